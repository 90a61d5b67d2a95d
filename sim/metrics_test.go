package sim

import (
	"bytes"
	"testing"

	"github.com/netsim-lab/uec-mp/sim/multipath"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_CompletionTimesSorted(t *testing.T) {
	m := NewMetrics()
	m.FlowCompletion[0] = 3000
	m.FlowCompletion[1] = 1000
	m.FlowCompletion[2] = 2000

	assert.Equal(t, []int64{1000, 2000, 3000}, m.CompletionTimes())
}

func TestMetrics_Print(t *testing.T) {
	// GIVEN metrics of a run where one of two flows finished
	m := NewMetrics()
	m.FlowsTotal = 2
	m.Sends = 12
	m.Retransmits = 2
	m.SimEndedTime = 90_000
	m.FlowCompletion[0] = 40_000
	m.Feedback[multipath.PathGood] = 9
	m.Feedback[multipath.PathTimeout] = 2
	m.PathPackets[1] = 7
	m.PathPackets[0] = 5

	// WHEN printed
	var buf bytes.Buffer
	m.Print(&buf)
	out := buf.String()

	// THEN the report has counts, FCT in microseconds and per-path lines in order
	assert.Contains(t, out, "Completed Flows      : 1 / 2\n")
	assert.Contains(t, out, "Retransmits          : 2\n")
	assert.Contains(t, out, "Mean FCT             : 40.00 us\n")
	assert.Contains(t, out, "  good    : 9\n")
	assert.Contains(t, out, "  nack    : 0\n")
	assert.Contains(t, out, "  timeout : 2\n")
	assert.Contains(t, out, "Packets per path:\n  0:5\n  1:7\n")
	assert.NotContains(t, out, "Path Failures")
}

func TestMetrics_PrintWithoutCompletions(t *testing.T) {
	var buf bytes.Buffer
	NewMetrics().Print(&buf)
	assert.NotContains(t, buf.String(), "FCT")
}
