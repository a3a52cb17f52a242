package game

import (
	"log/slog"

	"github.com/pthm-cable/peakswarm/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	step := g.engine.Counters().Steps
	if !g.collector.ShouldFlush(step) {
		return
	}

	stats := g.collector.Flush(step, g.engine)
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndStep); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}

		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}

		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// SaveSnapshot writes the current swarm state to the snapshot directory.
// It returns the file path, or "" when snapshots are disabled or fail.
func (g *Game) SaveSnapshot() string {
	return g.saveSnapshot(nil)
}

func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) string {
	if g.snapshotDir == "" {
		return ""
	}
	snap := telemetry.Capture(g.engine, g.engine.Counters().Steps, g.seed)
	snap.Bookmark = bookmark

	path, err := telemetry.SaveSnapshot(snap, g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return ""
	}
	slog.Info("snapshot saved", "path", path, "step", snap.Step)
	return path
}
