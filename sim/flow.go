package sim

import (
	"github.com/netsim-lab/uec-mp/sim/multipath"
)

// Flow is one sender with a fixed congestion window and a packet budget.
// Every packet it transmits gets its entropy from the flow's own selector.
type Flow struct {
	ID       int
	Selector multipath.PathSelector
	Cwnd     uint64
	Packets  uint64 // packets that must be delivered before the flow completes

	StartTime  int64
	FinishTime int64 // valid once Done

	seqSent     uint64 // transmissions so far, retransmits included
	inflight    uint64
	unsent      uint64 // new packets not yet sent plus packets owed a retransmit
	delivered   uint64
	retransmits uint64
	done        bool
}

// NewFlow creates a flow that starts sending at start.
func NewFlow(id int, selector multipath.PathSelector, cwnd, packets uint64, start int64) *Flow {
	return &Flow{
		ID:        id,
		Selector:  selector,
		Cwnd:      cwnd,
		Packets:   packets,
		StartTime: start,
		unsent:    packets,
	}
}

// CanSend reports whether the window has room and there is something to send.
func (f *Flow) CanSend() bool {
	return !f.done && f.unsent > 0 && f.inflight < f.Cwnd
}

// NextEntropy asks the selector for the entropy of the next transmission and
// accounts for it as in flight.
func (f *Flow) NextEntropy() uint16 {
	entropy := f.Selector.NextEntropy(f.seqSent, f.Cwnd)
	f.seqSent++
	f.inflight++
	f.unsent--
	return entropy
}

// OnFeedback applies one ACK, NACK or timeout to the window. NACKed and
// timed-out packets are owed a retransmit. Returns true when this feedback
// completed the flow.
func (f *Flow) OnFeedback(fb multipath.PathFeedback, now int64) bool {
	f.inflight--
	switch fb {
	case multipath.PathGood, multipath.PathECN:
		f.delivered++
	default:
		f.unsent++
		f.retransmits++
	}
	if !f.done && f.delivered == f.Packets {
		f.done = true
		f.FinishTime = now
		return true
	}
	return false
}

// Done reports whether every packet has been delivered.
func (f *Flow) Done() bool { return f.done }

// SeqSent returns the number of transmissions so far.
func (f *Flow) SeqSent() uint64 { return f.seqSent }

// InFlight returns the number of unacknowledged transmissions.
func (f *Flow) InFlight() uint64 { return f.inflight }

// Delivered returns the number of acknowledged packets.
func (f *Flow) Delivered() uint64 { return f.delivered }

// Retransmits returns the number of NACKed or timed-out transmissions.
func (f *Flow) Retransmits() uint64 { return f.retransmits }

// CompletionTime returns FinishTime - StartTime, or -1 if the flow is not done.
func (f *Flow) CompletionTime() int64 {
	if !f.done {
		return -1
	}
	return f.FinishTime - f.StartTime
}
