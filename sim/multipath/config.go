package multipath

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"math/rand"
	"slices"
)

// Policy names accepted by NewPathSelector.
const (
	PolicyOblivious  = "oblivious"
	PolicyBitmap     = "bitmap"
	PolicyReps       = "reps"
	PolicyRepsLegacy = "reps-legacy"
	PolicyMixed      = "mixed"
	PolicyEcmp       = "ecmp"
)

// ValidPolicies is the set of recognized policy names. Empty selects oblivious.
var ValidPolicies = map[string]bool{
	"":               true,
	PolicyOblivious:  true,
	PolicyBitmap:     true,
	PolicyReps:       true,
	PolicyRepsLegacy: true,
	PolicyMixed:      true,
	PolicyEcmp:       true,
}

// maskedPolicies derive path ids by masking and need a power-of-two path count.
var maskedPolicies = map[string]bool{
	"":              true,
	PolicyOblivious: true,
	PolicyBitmap:    true,
	PolicyMixed:     true,
}

// IsValidPolicy returns true if name is a recognized policy.
func IsValidPolicy(name string) bool { return ValidPolicies[name] }

// PolicyNames returns the non-empty policy names, sorted.
func PolicyNames() []string {
	names := make([]string, 0, len(ValidPolicies))
	for _, name := range slices.Sorted(maps.Keys(ValidPolicies)) {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

var (
	// ErrTrimmingRequired rejects REPS without trimming: its frozen mode is
	// only defined when trimmed packets are NACKed.
	ErrTrimmingRequired = errors.New("reps requires trimming to be enabled")
	// ErrNilClock rejects a REPS selector without a simulated clock.
	ErrNilClock = errors.New("reps requires a clock")
)

// Config selects and parameterizes one flow's path selector.
type Config struct {
	Policy             string
	NoOfPaths          int
	MaxPenalty         int   // bitmap, mixed; 0 = DefaultMaxPenalty
	Trimming           bool  // reps
	UseMql             bool  // reps
	BufferSize         int   // reps; 0 = DefaultRepsBufferSize
	FreezeDuration     int64 // reps, clock ticks; 0 = DefaultFreezeDuration
	ExploreAfterFreeze int   // reps; 0 = DefaultExploreAfterFreeze
}

// Validate checks the policy name and parameter ranges.
func (c Config) Validate() error {
	if !IsValidPolicy(c.Policy) {
		return fmt.Errorf("unknown multipath policy %q", c.Policy)
	}
	if c.NoOfPaths < 1 || c.NoOfPaths > math.MaxUint16 {
		return fmt.Errorf("number of paths must be in [1, %d], got %d", math.MaxUint16, c.NoOfPaths)
	}
	if maskedPolicies[c.Policy] && c.NoOfPaths&(c.NoOfPaths-1) != 0 {
		return fmt.Errorf("policy %q requires a power-of-two number of paths, got %d", c.Policy, c.NoOfPaths)
	}
	if c.MaxPenalty < 0 || c.MaxPenalty > math.MaxUint8 {
		return fmt.Errorf("max penalty must be in [0, %d], got %d", math.MaxUint8, c.MaxPenalty)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer size must be non-negative, got %d", c.BufferSize)
	}
	if c.FreezeDuration < 0 {
		return fmt.Errorf("freeze duration must be non-negative, got %d", c.FreezeDuration)
	}
	if c.ExploreAfterFreeze < 0 {
		return fmt.Errorf("explore-after-freeze must be non-negative, got %d", c.ExploreAfterFreeze)
	}
	if c.Policy == PolicyReps && !c.Trimming {
		return fmt.Errorf("policy %q: %w", c.Policy, ErrTrimmingRequired)
	}
	return nil
}

// NewPathSelector builds the selector named by cfg.Policy. rng is owned by
// the selector from here on; clock is only consulted by reps.
func NewPathSelector(cfg Config, rng *rand.Rand, clock Clock) (PathSelector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := uint16(cfg.NoOfPaths)
	switch cfg.Policy {
	case "", PolicyOblivious:
		return NewOblivious(n, rng), nil
	case PolicyBitmap:
		return NewBitmap(n, uint8(cfg.MaxPenalty), rng), nil
	case PolicyReps:
		reps, err := NewReps(n, rng, clock, RepsOptions{
			Trimming:           cfg.Trimming,
			UseMql:             cfg.UseMql,
			BufferSize:         cfg.BufferSize,
			FreezeDuration:     cfg.FreezeDuration,
			ExploreAfterFreeze: cfg.ExploreAfterFreeze,
		})
		if err != nil {
			return nil, fmt.Errorf("creating reps selector: %w", err)
		}
		return reps, nil
	case PolicyRepsLegacy:
		return NewRepsLegacy(n, rng), nil
	case PolicyMixed:
		return NewMixed(n, uint8(cfg.MaxPenalty), rng), nil
	case PolicyEcmp:
		return NewEcmp(n, rng), nil
	default:
		panic(fmt.Sprintf("unhandled multipath policy %q", cfg.Policy))
	}
}
