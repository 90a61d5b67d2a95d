package sim

import (
	"github.com/netsim-lab/uec-mp/sim/multipath"
	"github.com/sirupsen/logrus"
)

// Event defines the interface for all simulation events.
// Each event must have a Timestamp (in ticks) and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Timestamp() int64
	Execute(*Simulator)
}

// SendEvent fills a flow's window. Scheduled at flow start and whenever
// feedback frees window space.
type SendEvent struct {
	time int64
	Flow *Flow
}

// Timestamp returns the scheduled time of the SendEvent.
func (e *SendEvent) Timestamp() int64 { return e.time }

// Execute transmits packets until the window is full or nothing is left to send.
func (e *SendEvent) Execute(sim *Simulator) {
	for e.Flow.CanSend() {
		sim.transmit(e.Flow)
	}
}

// FeedbackEvent delivers an ACK, NACK or timeout for one transmitted packet
// back to its sender.
type FeedbackEvent struct {
	time     int64
	Flow     *Flow
	Entropy  uint16
	Path     int
	Feedback multipath.PathFeedback
	Mql      uint8
	HasMql   bool
}

// Timestamp returns the scheduled time of the FeedbackEvent.
func (e *FeedbackEvent) Timestamp() int64 { return e.time }

// Execute hands the feedback to the flow's selector, then refills the window.
func (e *FeedbackEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< Feedback flow=%d entropy=%d path=%d %s", e.Flow.ID, e.Entropy, e.Path, e.Feedback)
	sim.deliverFeedback(e)
	if e.Flow.CanSend() {
		sim.Schedule(&SendEvent{time: e.time, Flow: e.Flow})
	}
}

// FailPathEvent takes a fabric path down.
type FailPathEvent struct {
	time int64
	Path int
}

// Timestamp returns the scheduled time of the FailPathEvent.
func (e *FailPathEvent) Timestamp() int64 { return e.time }

// Execute marks the path failed.
func (e *FailPathEvent) Execute(sim *Simulator) {
	sim.Fabric.SetFailed(e.Path, true)
	sim.Metrics.PathFailures++
}

// RecoverPathEvent brings a failed fabric path back.
type RecoverPathEvent struct {
	time int64
	Path int
}

// Timestamp returns the scheduled time of the RecoverPathEvent.
func (e *RecoverPathEvent) Timestamp() int64 { return e.time }

// Execute marks the path healthy.
func (e *RecoverPathEvent) Execute(sim *Simulator) {
	sim.Fabric.SetFailed(e.Path, false)
}
