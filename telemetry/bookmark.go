package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPairingSurge  BookmarkType = "pairing_surge"
	BookmarkPairCollapse  BookmarkType = "pair_collapse"
	BookmarkSpeedSpike    BookmarkType = "speed_spike"
	BookmarkSteadyPairing BookmarkType = "steady_pairing"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type"`
	Step        int          `json:"step"`
	Description string       `json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"step", b.Step,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the swarm.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentPairedPeak   float64 // peak paired fraction in recent history
	steadyWindowsCount int     // consecutive steady windows
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady pairing detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Pairing surge: formations > 2x rolling average
		if b := bd.checkPairingSurge(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Pair collapse: paired fraction halved from recent peak
		if b := bd.checkPairCollapse(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Speed spike: p90 speed > 2x rolling average
		if b := bd.checkSpeedSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		if b := bd.checkSteadyPairing(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.PairedFraction > bd.recentPairedPeak {
		bd.recentPairedPeak = stats.PairedFraction
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns recorded windows oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	ordered := make([]WindowStats, 0, bd.historySize)
	ordered = append(ordered, bd.history[bd.historyIdx:]...)
	return append(ordered, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) checkPairingSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Formed
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Formed) > avg*2.0 && stats.Formed >= 5 {
		return &Bookmark{
			Type:        BookmarkPairingSurge,
			Step:        stats.WindowEndStep,
			Description: fmt.Sprintf("%d pairs formed, %.1fx average (%.1f)", stats.Formed, float64(stats.Formed)/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPairCollapse(stats WindowStats) *Bookmark {
	if bd.recentPairedPeak < 0.2 {
		return nil
	}

	drop := 1.0 - stats.PairedFraction/bd.recentPairedPeak
	if drop > 0.5 {
		// Reset peak after collapse
		oldPeak := bd.recentPairedPeak
		bd.recentPairedPeak = stats.PairedFraction

		return &Bookmark{
			Type:        BookmarkPairCollapse,
			Step:        stats.WindowEndStep,
			Description: fmt.Sprintf("Paired fraction fell %.0f%% from %.2f to %.2f", drop*100, oldPeak, stats.PairedFraction),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkSpeedSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.SpeedP90
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.SpeedP90 > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkSpeedSpike,
			Step:        stats.WindowEndStep,
			Description: fmt.Sprintf("p90 speed %.3f is %.1fx average (%.3f)", stats.SpeedP90, stats.SpeedP90/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkSteadyPairing(stats WindowStats) *Bookmark {
	if stats.Paired < 4 {
		bd.steadyWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += h.PairedFraction
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := h.PairedFraction - mean
		variance += d * d
	}
	variance /= 4

	// Squared coefficient of variation under 2%
	if mean == 0 || variance/(mean*mean) >= 0.02 {
		bd.steadyWindowsCount = 0
		return nil
	}

	bd.steadyWindowsCount++

	// Trigger once, on the first steady window
	if bd.steadyWindowsCount == 1 {
		return &Bookmark{
			Type:        BookmarkSteadyPairing,
			Step:        stats.WindowEndStep,
			Description: fmt.Sprintf("Paired fraction steady around %.2f", mean),
		}
	}

	return nil
}
