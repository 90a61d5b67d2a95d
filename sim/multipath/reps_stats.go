package multipath

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// topPathsReported is how many of the most selected paths BalanceSummary keeps.
const topPathsReported = 10

// MqlStats counts Reps selections. Observational only: selection never reads it.
type MqlStats struct {
	TotalSelections      uint64
	MqlBasedSelections   uint64
	MqlUpdates           uint64
	PathSelectionCount   map[uint16]uint64
	MqlLevelDistribution map[uint8]uint64
}

func newMqlStats() MqlStats {
	return MqlStats{
		PathSelectionCount:   make(map[uint16]uint64),
		MqlLevelDistribution: make(map[uint8]uint64),
	}
}

// Reset zeroes every counter.
func (s *MqlStats) Reset() {
	*s = newMqlStats()
}

// MqlSelectionShare returns the percentage of selections made by MQL grouping.
func (s *MqlStats) MqlSelectionShare() float64 {
	if s.TotalSelections == 0 {
		return 0
	}
	return 100 * float64(s.MqlBasedSelections) / float64(s.TotalSelections)
}

// PathCount is one path's selection count.
type PathCount struct {
	PathID uint16
	Count  uint64
}

// BalanceSummary describes how evenly selections spread over the paths that
// were used at least once.
type BalanceSummary struct {
	PathsUsed      int
	Mean           float64
	StdDev         float64 // population standard deviation
	CV             float64 // StdDev / Mean
	Min            uint64
	Max            uint64
	ImbalanceRatio float64 // Max / Min
	Top            []PathCount
}

// BalanceSummary computes utilization balance over PathSelectionCount.
// Returns the zero value when nothing has been selected.
func (s *MqlStats) BalanceSummary() BalanceSummary {
	if len(s.PathSelectionCount) == 0 {
		return BalanceSummary{}
	}

	paths := slices.Sorted(maps.Keys(s.PathSelectionCount))
	counts := make([]float64, len(paths))
	ranked := make([]PathCount, len(paths))
	for i, id := range paths {
		counts[i] = float64(s.PathSelectionCount[id])
		ranked[i] = PathCount{PathID: id, Count: s.PathSelectionCount[id]}
	}

	mean, std := stat.PopMeanStdDev(counts, nil)
	summary := BalanceSummary{
		PathsUsed: len(paths),
		Mean:      mean,
		StdDev:    std,
		Min:       uint64(floats.Min(counts)),
		Max:       uint64(floats.Max(counts)),
	}
	if mean > 0 {
		summary.CV = std / mean
	}
	if summary.Min > 0 {
		summary.ImbalanceRatio = float64(summary.Max) / float64(summary.Min)
	}

	// Stable sort keeps ascending path id among equal counts.
	slices.SortStableFunc(ranked, func(a, b PathCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	summary.Top = ranked[:min(topPathsReported, len(ranked))]
	return summary
}

// PrintStats writes a human-readable statistics report to w.
func (r *Reps) PrintStats(w io.Writer) {
	if !r.useMql {
		fmt.Fprintln(w, "MQL-based path selection is disabled")
		return
	}
	s := &r.stats

	fmt.Fprintln(w, "\n========== REPS MQL Statistics ==========")
	fmt.Fprintf(w, "Total path selections: %d\n", s.TotalSelections)
	if s.TotalSelections > 0 {
		fmt.Fprintf(w, "MQL-based selections: %d (%.2f%%)\n", s.MqlBasedSelections, s.MqlSelectionShare())
	}
	fmt.Fprintf(w, "MQL updates received: %d\n", s.MqlUpdates)

	if s.MqlUpdates > 0 {
		fmt.Fprintln(w, "\nMQL Level Distribution:")
		for level := uint8(0); level <= MaxMqlLevel; level++ {
			if count := s.MqlLevelDistribution[level]; count > 0 {
				fmt.Fprintf(w, "  Level %d: %d (%.2f%%)\n", level, count, 100*float64(count)/float64(s.MqlUpdates))
			}
		}
	}

	if len(s.PathSelectionCount) > 0 {
		b := s.BalanceSummary()
		fmt.Fprintln(w, "\nPath Selection Distribution (Utilization Balance):")
		fmt.Fprintf(w, "  Total paths used: %d\n", b.PathsUsed)
		fmt.Fprintf(w, "  Mean selections per path: %.2f\n", b.Mean)
		fmt.Fprintf(w, "  Std deviation: %.2f\n", b.StdDev)
		fmt.Fprintf(w, "  Coefficient of Variation (CV): %.4f (lower = better balance)\n", b.CV)
		fmt.Fprintf(w, "  Min selections: %d\n", b.Min)
		fmt.Fprintf(w, "  Max selections: %d\n", b.Max)
		if b.Min > 0 {
			fmt.Fprintf(w, "  Imbalance ratio (max/min): %.2f\n", b.ImbalanceRatio)
		}

		fmt.Fprintln(w, "\nTop 10 Most Selected Paths:")
		for _, pc := range b.Top {
			fmt.Fprintf(w, "  Path %d: %d (%.2f%%)\n", pc.PathID, pc.Count, 100*float64(pc.Count)/float64(s.TotalSelections))
		}

		fmt.Fprintln(w, "\nAll Path Selection Counts (for utilization balance analysis):")
		fmt.Fprintln(w, "Path_ID:Selection_Count")
		for _, id := range slices.Sorted(maps.Keys(s.PathSelectionCount)) {
			fmt.Fprintf(w, "%d:%d\n", id, s.PathSelectionCount[id])
		}
	}
	fmt.Fprintln(w, "=========================================")
}
