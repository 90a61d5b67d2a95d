package multipath

import (
	"fmt"
	"strings"
)

// PathFeedback classifies the network's response to a packet sent on a path.
type PathFeedback int

const (
	PathGood PathFeedback = iota
	PathECN
	PathNACK
	PathTimeout
)

var feedbackNames = map[PathFeedback]string{
	PathGood:    "good",
	PathECN:     "ecn",
	PathNACK:    "nack",
	PathTimeout: "timeout",
}

// String returns the lower-case feedback name used in traces and metric labels.
func (f PathFeedback) String() string {
	if name, ok := feedbackNames[f]; ok {
		return name
	}
	return fmt.Sprintf("feedback(%d)", int(f))
}

// ParsePathFeedback maps a feedback name (case-insensitive) back to its kind.
func ParsePathFeedback(s string) (PathFeedback, error) {
	lower := strings.ToLower(s)
	for kind, name := range feedbackNames {
		if name == lower {
			return kind, nil
		}
	}
	return PathGood, fmt.Errorf("unknown path feedback %q", s)
}

// MaxMqlLevel is the worst (deepest queue) MQL level. Unknown paths are
// treated as sitting at this level.
const MaxMqlLevel uint8 = 7

// PathSelector chooses the entropy value for every outgoing packet of one flow
// and learns from the feedback for packets previously sent.
//
// A flow owns exactly one PathSelector for its lifetime. Implementations are
// NOT safe for concurrent use.
type PathSelector interface {
	// ProcessEv records feedback for the path/entropy value echoed by an
	// ACK, NACK or timeout. Never fails: out-of-range ids are masked or
	// stored as-is depending on the policy.
	ProcessEv(pathID uint16, feedback PathFeedback)

	// NextEntropy returns the entropy value for the packet about to be sent.
	NextEntropy(seqSent, curCwndInPkts uint64) uint16

	// ProcessMql delivers queue-depth telemetry for a path. Policies that do
	// not use telemetry ignore it.
	ProcessMql(pathID uint16, mqlLevel uint8)

	// SetDebugTag sets the prefix used in debug-level decision logs.
	SetDebugTag(tag string)
}

// base carries the debug tag and the default no-op telemetry handling shared
// by every policy.
type base struct {
	debugTag string
}

func (b *base) SetDebugTag(tag string) { b.debugTag = tag }

func (b *base) ProcessMql(uint16, uint8) {}

// Clock is the simulated clock consulted for frozen-mode deadlines.
type Clock interface {
	Now() int64
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() int64

func (f ClockFunc) Now() int64 { return f() }

// ManualClock is a Clock advanced explicitly by its owner.
type ManualClock struct {
	now int64
}

// Now returns the current simulated time.
func (c *ManualClock) Now() int64 { return c.now }

// Set moves the clock to t. Moving backwards panics: simulated time is monotonic.
func (c *ManualClock) Set(t int64) {
	if t < c.now {
		panic(fmt.Sprintf("ManualClock.Set: time moved backwards from %d to %d", c.now, t))
	}
	c.now = t
}

// Advance moves the clock forward by d ticks.
func (c *ManualClock) Advance(d int64) { c.Set(c.now + d) }

// upperBits returns the salt bits of salt that lie above mask.
func upperBits(salt, mask uint16) uint16 {
	return salt ^ (salt & mask)
}
