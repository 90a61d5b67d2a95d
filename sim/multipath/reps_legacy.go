package multipath

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// RepsLegacy is the original two-phase REPS: the first window probes every
// path once in order, after which paths that returned GOOD feedback are
// recycled in FIFO order, with a uniform random pick when none are queued.
//
// Fed-back ids are queued unreduced, so a recycled entropy keeps any salt
// bits above the path index; Mixed relies on this. The path is the entropy
// modulo the path count.
//
// The recycle queue is unbounded: one entry per GOOD feedback, never
// deduplicated. Its length is bounded by the number of packets in flight that
// come back clean, which a finite flow keeps finite.
type RepsLegacy struct {
	base
	noOfPaths  uint16
	crtPath    uint16
	nextPathID []uint16 // FIFO of recyclable entropies
	rng        *rand.Rand
}

// NewRepsLegacy creates a RepsLegacy selector over noOfPaths paths.
func NewRepsLegacy(noOfPaths uint16, rng *rand.Rand) *RepsLegacy {
	logrus.Debugf("Multipath REPS legacy noOfPaths=%d", noOfPaths)
	return &RepsLegacy{noOfPaths: noOfPaths, rng: rng}
}

// ProcessEv queues pathID for reuse on GOOD feedback; other kinds are ignored.
func (r *RepsLegacy) ProcessEv(pathID uint16, feedback PathFeedback) {
	if feedback != PathGood {
		return
	}
	r.nextPathID = append(r.nextPathID, pathID)
	logrus.Debugf("%s REPS Add %d %d", r.debugTag, pathID, len(r.nextPathID))
}

// NextEntropy implements PathSelector.
func (r *RepsLegacy) NextEntropy(seqSent, curCwndInPkts uint64) uint16 {
	if seqSent < min(curCwndInPkts, uint64(r.noOfPaths)) {
		r.crtPath++
		if r.crtPath == r.noOfPaths {
			r.crtPath = 0
		}
		logrus.Debugf("%s REPS FirstWindow %d", r.debugTag, r.crtPath)
		return r.crtPath
	}

	if len(r.nextPathID) == 0 {
		r.crtPath = uint16(r.rng.Intn(int(r.noOfPaths)))
		logrus.Debugf("%s REPS Steady %d", r.debugTag, r.crtPath)
		return r.crtPath
	}

	r.crtPath = r.pop()
	logrus.Debugf("%s REPS Recycle %d %d", r.debugTag, r.crtPath, len(r.nextPathID))
	return r.crtPath
}

// NextEntropyRecycle pops the head of the recycle queue. ok is false when the
// queue is empty, in which case no state changes.
func (r *RepsLegacy) NextEntropyRecycle() (entropy uint16, ok bool) {
	if len(r.nextPathID) == 0 {
		return 0, false
	}
	r.crtPath = r.pop()
	logrus.Debugf("%s MIXED Recycle %d %d", r.debugTag, r.crtPath, len(r.nextPathID))
	return r.crtPath, true
}

// QueueLen returns the number of entropies waiting to be recycled.
func (r *RepsLegacy) QueueLen() int { return len(r.nextPathID) }

func (r *RepsLegacy) pop() uint16 {
	head := r.nextPathID[0]
	r.nextPathID = r.nextPathID[1:]
	if len(r.nextPathID) == 0 {
		r.nextPathID = nil
	}
	return head
}
