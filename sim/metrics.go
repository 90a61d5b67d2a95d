// Tracks scenario-wide and per-flow transport metrics.

package sim

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/netsim-lab/uec-mp/sim/multipath"
)

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	Sends        uint64 // transmissions, retransmits included
	Retransmits  uint64
	PathFailures int

	Feedback    map[multipath.PathFeedback]uint64 // feedback kind -> count
	PathPackets map[int]uint64                    // path -> transmissions routed onto it

	FlowCompletion map[int]int64 // flow ID -> completion time in ticks
	FlowsTotal     int
	SimEndedTime   int64
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Feedback:       make(map[multipath.PathFeedback]uint64),
		PathPackets:    make(map[int]uint64),
		FlowCompletion: make(map[int]int64),
	}
}

// CompletionTimes returns the completion times of finished flows, sorted.
func (m *Metrics) CompletionTimes() []int64 {
	return slices.Sorted(maps.Values(m.FlowCompletion))
}

// Print writes aggregated metrics at the end of the simulation to w.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Simulation ended     : %d ticks\n", m.SimEndedTime)
	fmt.Fprintf(w, "Completed Flows      : %d / %d\n", len(m.FlowCompletion), m.FlowsTotal)
	fmt.Fprintf(w, "Packets Sent         : %d\n", m.Sends)
	fmt.Fprintf(w, "Retransmits          : %d\n", m.Retransmits)
	if m.PathFailures > 0 {
		fmt.Fprintf(w, "Path Failures        : %d\n", m.PathFailures)
	}

	if fct := m.CompletionTimes(); len(fct) > 0 {
		fmt.Fprintf(w, "Mean FCT             : %.2f us\n", CalculateMean(fct))
		fmt.Fprintf(w, "P50 FCT              : %.2f us\n", CalculatePercentile(fct, 50))
		fmt.Fprintf(w, "P99 FCT              : %.2f us\n", CalculatePercentile(fct, 99))
		fmt.Fprintf(w, "Max FCT              : %.2f us\n", float64(fct[len(fct)-1])/TicksPerMicrosecond)
	}

	fmt.Fprintln(w, "Feedback:")
	for _, fb := range []multipath.PathFeedback{multipath.PathGood, multipath.PathECN, multipath.PathNACK, multipath.PathTimeout} {
		fmt.Fprintf(w, "  %-8s: %d\n", fb, m.Feedback[fb])
	}

	if len(m.PathPackets) > 0 {
		fmt.Fprintln(w, "Packets per path:")
		for _, path := range slices.Sorted(maps.Keys(m.PathPackets)) {
			fmt.Fprintf(w, "  %d:%d\n", path, m.PathPackets[path])
		}
	}
}
