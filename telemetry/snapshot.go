package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the observable swarm state at one step.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	Step    int     `json:"step"`
	SimTime float64 `json:"sim_time"`

	Agents []AgentState `json:"agents"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentState holds one agent's state.
type AgentState struct {
	Index    int    `json:"index"`
	Category string `json:"category"`

	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	VelX float64 `json:"vel_x"`
	VelZ float64 `json:"vel_z"`

	Visible bool `json:"visible"`
	Held    bool `json:"held"`

	Partner      int `json:"partner"`
	FramesPaired int `json:"frames_paired,omitempty"`
	Cooldown     int `json:"cooldown,omitempty"`
}

// Capture records the current state of src.
func Capture(src Source, step int, seed int64) *Snapshot {
	n := src.Len()
	snap := &Snapshot{
		Version: SnapshotVersion,
		RNGSeed: seed,
		Step:    step,
		SimTime: src.Time(),
		Agents:  make([]AgentState, n),
	}
	for i := 0; i < n; i++ {
		a := src.Agent(i)
		v := src.Velocity(i)
		ps := src.PairState(i)
		snap.Agents[i] = AgentState{
			Index:        i,
			Category:     a.Category.String(),
			X:            a.Position.X,
			Y:            a.Position.Y,
			Z:            a.Position.Z,
			VelX:         v.X,
			VelZ:         v.Z,
			Visible:      a.Visible,
			Held:         src.Held(i),
			Partner:      ps.Partner,
			FramesPaired: ps.FramesPaired,
			Cooldown:     ps.Cooldown,
		}
	}
	return snap
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Step)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Step, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
