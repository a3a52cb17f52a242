package telemetry

// PhaseInfo describes a step phase for UI display.
type PhaseInfo struct {
	ID          string // Phase name used by PerfCollector
	Name        string // Display name
	Description string // What the phase does
	Category    string // Grouping (e.g., "core", "pairing")
}

// PhaseRegistry holds metadata about every step phase.
// This keeps the perf panel and the perf collector in sync.
type PhaseRegistry struct {
	phases []PhaseInfo
	byID   map[string]PhaseInfo
}

// NewPhaseRegistry creates a registry with all step phases in step order.
func NewPhaseRegistry() *PhaseRegistry {
	reg := &PhaseRegistry{
		byID: make(map[string]PhaseInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds all step phases. Update this when adding phases.
func (r *PhaseRegistry) registerDefaults() {
	r.Register(PhaseInfo{ID: PhaseResize, Name: "Resize", Description: "Matches auxiliary arrays to the population", Category: "core"})
	r.Register(PhaseInfo{ID: PhaseTargets, Name: "Targets", Description: "Advances the ambient pattern", Category: "core"})
	r.Register(PhaseInfo{ID: PhaseSpatialIndex, Name: "Spatial Index", Description: "Rebuilds the neighbor grid", Category: "core"})
	r.Register(PhaseInfo{ID: PhasePairing, Name: "Pairing", Description: "Forms and breaks pairs, steers shared headings", Category: "pairing"})
	r.Register(PhaseInfo{ID: PhaseForces, Name: "Forces", Description: "Accumulates forces and integrates motion", Category: "motion"})
	r.Register(PhaseInfo{ID: PhaseHistory, Name: "History", Description: "Rotates position history", Category: "motion"})
	r.Register(PhaseInfo{ID: PhaseTelemetry, Name: "Telemetry", Description: "Flushes stats windows and bookmarks", Category: "internal"})
}

// Register adds a phase to the registry.
func (r *PhaseRegistry) Register(info PhaseInfo) {
	r.phases = append(r.phases, info)
	r.byID[info.ID] = info
}

// Get returns phase info by ID.
func (r *PhaseRegistry) Get(id string) (PhaseInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a phase ID.
// Falls back to the ID itself if not found.
func (r *PhaseRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered phases.
func (r *PhaseRegistry) All() []PhaseInfo {
	return r.phases
}

// ByCategory returns phases filtered by category.
func (r *PhaseRegistry) ByCategory(category string) []PhaseInfo {
	var result []PhaseInfo
	for _, info := range r.phases {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}

// IDs returns all phase IDs in step order.
func (r *PhaseRegistry) IDs() []string {
	ids := make([]string, len(r.phases))
	for i, info := range r.phases {
		ids[i] = info.ID
	}
	return ids
}
