package sim

import (
	"fmt"
	"math/rand"

	"github.com/netsim-lab/uec-mp/sim/multipath"
	"github.com/sirupsen/logrus"
)

// PathState is the fabric-side view of one equal-cost path.
type PathState struct {
	BaseLevel uint8 // queue level with no traffic from the simulated flows
	Failed    bool
	InFlight  int

	Delivered uint64 // acked unmarked or ECN-marked
	Marked    uint64
	Trimmed   uint64
	Lost      uint64
}

// Delivery is the fate of one transmitted packet as seen by its sender.
type Delivery struct {
	Path     int
	Feedback multipath.PathFeedback
	Delay    int64 // ticks until the sender observes Feedback
	Mql      uint8 // queue level carried on the ACK/NACK
	HasMql   bool  // false for timeouts
}

// Fabric models N equal-cost paths between one sender and one receiver.
// A packet's path is its entropy modulo N. Each path's queue level is its
// base level plus the packets in flight on it divided by LevelStep, capped
// at multipath.MaxMqlLevel.
type Fabric struct {
	paths     []PathState
	baseRTT   int64
	rto       int64
	jitter    int64
	ecnLevel  uint8
	levelStep int
	trimming  bool
	rng       *rand.Rand
}

// NewFabric creates a fabric with noOfPaths paths. cfg must have passed
// ScenarioBundle.Validate.
func NewFabric(noOfPaths int, trimming bool, cfg FabricConfig, rng *rand.Rand) *Fabric {
	f := &Fabric{
		paths:     make([]PathState, noOfPaths),
		baseRTT:   cfg.BaseRTT,
		rto:       cfg.RTO,
		jitter:    cfg.Jitter,
		ecnLevel:  uint8(cfg.ECNLevel),
		levelStep: cfg.LevelStep,
		trimming:  trimming,
		rng:       rng,
	}
	for _, pl := range cfg.BaseLevels {
		f.paths[pl.Path].BaseLevel = uint8(pl.Level)
	}
	return f
}

// NumPaths returns the number of paths.
func (f *Fabric) NumPaths() int { return len(f.paths) }

// PathFor maps an entropy value to a path index.
func (f *Fabric) PathFor(entropy uint16) int {
	return int(entropy) % len(f.paths)
}

// Level returns the live queue level of path.
func (f *Fabric) Level(path int) uint8 {
	p := &f.paths[path]
	level := int(p.BaseLevel) + p.InFlight/f.levelStep
	return uint8(min(level, int(multipath.MaxMqlLevel)))
}

// Path returns a copy of the state of path.
func (f *Fabric) Path(path int) PathState { return f.paths[path] }

// SetFailed fails or recovers path. Packets already in flight are unaffected.
func (f *Fabric) SetFailed(path int, failed bool) {
	if path < 0 || path >= len(f.paths) {
		panic(fmt.Sprintf("fabric: path %d out of range [0, %d)", path, len(f.paths)))
	}
	f.paths[path].Failed = failed
	logrus.Infof("fabric path %d failed=%v", path, failed)
}

// Transmit sends one packet with the given entropy value and returns what the
// sender will observe. Packets that are not lost stay in flight on their path
// until Release is called.
func (f *Fabric) Transmit(entropy uint16) Delivery {
	path := f.PathFor(entropy)
	p := &f.paths[path]
	level := f.Level(path)

	if p.Failed || (!f.trimming && level >= multipath.MaxMqlLevel) {
		p.Lost++
		return Delivery{Path: path, Feedback: multipath.PathTimeout, Delay: f.rto}
	}

	p.InFlight++
	d := Delivery{Path: path, Mql: level, HasMql: true}
	switch {
	case f.trimming && level >= multipath.MaxMqlLevel:
		// Trimmed headers skip the data queue.
		p.Trimmed++
		d.Feedback = multipath.PathNACK
		d.Delay = f.baseRTT + f.drawJitter()
		return d
	case level >= f.ecnLevel:
		p.Marked++
		d.Feedback = multipath.PathECN
	default:
		d.Feedback = multipath.PathGood
	}
	p.Delivered++
	d.Delay = f.baseRTT + f.queueDelay(level) + f.drawJitter()
	return d
}

// Release removes one packet from path's in-flight count once its ACK/NACK
// has reached the sender.
func (f *Fabric) Release(path int) {
	p := &f.paths[path]
	if p.InFlight == 0 {
		logrus.Panicf("fabric: release on path %d with nothing in flight", path)
	}
	p.InFlight--
}

// queueDelay grows linearly from zero at level 0 to one base RTT at level 8.
func (f *Fabric) queueDelay(level uint8) int64 {
	return f.baseRTT * int64(level) / int64(multipath.MaxMqlLevel+1)
}

func (f *Fabric) drawJitter() int64 {
	if f.jitter <= 0 {
		return 0
	}
	return f.rng.Int63n(f.jitter + 1)
}
