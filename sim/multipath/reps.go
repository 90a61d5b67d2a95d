package multipath

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// DefaultExploreAfterFreeze is the number of uniformly random selections
// forced after a frozen period ends.
const DefaultExploreAfterFreeze = 16

// DefaultFreezeDuration is the default frozen-mode length in clock ticks.
const DefaultFreezeDuration int64 = 20_000

// SelectionSource names the branch of Reps.NextEntropy that produced a value.
type SelectionSource string

const (
	SourceExplore SelectionSource = "explore"
	SourceMql     SelectionSource = "mql"
	SourceFrozen  SelectionSource = "frozen"
	SourceRecycle SelectionSource = "recycle"
	SourceRandom  SelectionSource = "random"
)

// RepsOptions configures a Reps selector. Zero values select the defaults.
type RepsOptions struct {
	Trimming           bool
	UseMql             bool
	BufferSize         int
	FreezeDuration     int64
	ExploreAfterFreeze int
	// Buffer replaces the default RecycleBuffer; BufferSize and
	// FreezeDuration are then ignored.
	Buffer FreshBuffer
}

// Reps recycles entropies that returned GOOD feedback through a FreshBuffer.
// A timeout freezes the buffer: selection then cycles through cached entropies
// until the freeze deadline passes, after which the buffer is wiped and the
// next selections explore uniformly at random.
//
// With MQL enabled, buffered entropies are also grouped by their last reported
// queue level and selection prefers the lowest non-empty level.
//
// Feedback ids are reduced modulo the path count, so the buffer, the MQL
// table and the selection statistics are all keyed by path.
//
// Invariant: after every ProcessEv, ProcessMql and NextEntropy call, an
// entropy is in the MQL grouping only while it is a fresh entry of the
// buffer. Entries the buffer overwrites or hands out are pruned.
type Reps struct {
	base
	noOfPaths uint16
	buffer    FreshBuffer
	clock     Clock
	rng       *rand.Rand
	crtPath   uint16

	exploreCounter     int
	exploreAfterFreeze int
	canExitFrozenMode  int64

	useMql   bool
	pathMql  map[uint16]uint8
	grouping mqlGrouping

	stats      MqlStats
	lastSource SelectionSource
}

// NewReps creates a Reps selector. Frozen-mode semantics are only defined
// with trimming enabled, so opts.Trimming=false returns ErrTrimmingRequired.
func NewReps(noOfPaths uint16, rng *rand.Rand, clock Clock, opts RepsOptions) (*Reps, error) {
	if !opts.Trimming {
		return nil, ErrTrimmingRequired
	}
	if clock == nil {
		return nil, ErrNilClock
	}
	buffer := opts.Buffer
	if buffer == nil {
		freeze := opts.FreezeDuration
		if freeze <= 0 {
			freeze = DefaultFreezeDuration
		}
		buffer = NewRecycleBuffer(opts.BufferSize, freeze)
	}
	explore := opts.ExploreAfterFreeze
	if explore <= 0 {
		explore = DefaultExploreAfterFreeze
	}
	logrus.Debugf("Multipath REPS noOfPaths=%d useMql=%v freeze=%d", noOfPaths, opts.UseMql, buffer.FreezeDuration())
	return &Reps{
		noOfPaths:          noOfPaths,
		buffer:             buffer,
		clock:              clock,
		rng:                rng,
		exploreAfterFreeze: explore,
		useMql:             opts.UseMql,
		pathMql:            make(map[uint16]uint8),
		stats:              newMqlStats(),
	}, nil
}

// SetUseMql enables or disables MQL strict-priority selection.
func (r *Reps) SetUseMql(useMql bool) {
	if !useMql {
		r.grouping.clear()
	}
	r.useMql = useMql
}

// UseMql reports whether MQL strict-priority selection is enabled.
func (r *Reps) UseMql() bool { return r.useMql }

// IsFrozen reports whether the selector is in frozen mode.
func (r *Reps) IsFrozen() bool { return r.buffer.IsFrozenMode() }

// ExploreCounter returns the number of forced random selections remaining.
func (r *Reps) ExploreCounter() int { return r.exploreCounter }

// Stats returns the live selection statistics.
func (r *Reps) Stats() *MqlStats { return &r.stats }

// LastSource returns the branch that produced the most recent selection.
func (r *Reps) LastSource() SelectionSource { return r.lastSource }

// ProcessEv implements PathSelector.
func (r *Reps) ProcessEv(pathID uint16, feedback PathFeedback) {
	pathID %= r.noOfPaths
	now := r.clock.Now()

	if r.buffer.IsFrozenMode() && now > r.canExitFrozenMode {
		r.buffer.SetFrozenMode(false)
		r.buffer.ResetBuffer()
		r.exploreCounter = r.exploreAfterFreeze
		r.grouping.clear()
		logrus.Debugf("%s REPS exit frozen mode at %d, exploring %d", r.debugTag, now, r.exploreCounter)
	}

	if feedback == PathTimeout && !r.buffer.IsFrozenMode() && r.exploreCounter == 0 {
		r.buffer.SetFrozenMode(true)
		r.canExitFrozenMode = now + r.buffer.FreezeDuration()
		logrus.Debugf("%s REPS enter frozen mode at %d until %d", r.debugTag, now, r.canExitFrozenMode)
	}

	if feedback == PathGood {
		if evicted, dropped := r.buffer.Add(pathID); dropped {
			logrus.Debugf("%s REPS buffer full, dropped fresh %d", r.debugTag, evicted)
		}
		if level, known := r.pathMql[pathID]; known && r.useMql {
			r.addToGrouping(pathID, level)
		}
	}
	r.pruneGrouping()
}

// NextEntropy implements PathSelector. Reps has no first-window phase, so
// seqSent and curCwndInPkts are unused.
func (r *Reps) NextEntropy(_, _ uint64) uint16 {
	path := r.next()
	r.pruneGrouping()
	return path
}

func (r *Reps) next() uint16 {
	r.stats.TotalSelections++

	if r.exploreCounter > 0 {
		r.exploreCounter--
		return r.selected(r.randomPath(), SourceExplore)
	}

	if r.useMql && !r.grouping.empty() {
		if path, ok := r.selectByMql(); ok {
			r.stats.MqlBasedSelections++
			return r.selected(path, SourceMql)
		}
	}

	if r.buffer.IsFrozenMode() {
		if r.buffer.IsEmpty() {
			return r.selected(r.randomPath(), SourceRandom)
		}
		return r.selected(r.buffer.RemoveFrozen(), SourceFrozen)
	}
	if r.buffer.IsEmpty() || r.buffer.NumberFreshEntropies() == 0 {
		r.crtPath = r.randomPath()
		return r.selected(r.crtPath, SourceRandom)
	}
	return r.selected(r.buffer.RemoveEarliestFresh(), SourceRecycle)
}

func (r *Reps) randomPath() uint16 {
	return uint16(r.rng.Intn(int(r.noOfPaths)))
}

func (r *Reps) selected(path uint16, source SelectionSource) uint16 {
	r.stats.PathSelectionCount[path]++
	r.lastSource = source
	return path
}

// ProcessMql records the queue level of pathID and, when grouping is enabled
// and the path is buffered, moves it to the group for its new level.
func (r *Reps) ProcessMql(pathID uint16, mqlLevel uint8) {
	pathID %= r.noOfPaths
	mqlLevel = min(mqlLevel, MaxMqlLevel)
	oldLevel, known := r.pathMql[pathID]
	if !known {
		oldLevel = MaxMqlLevel
	}
	r.pathMql[pathID] = mqlLevel

	if r.useMql {
		r.addToGrouping(pathID, mqlLevel)
		r.pruneGrouping()
	}

	r.stats.MqlUpdates++
	r.stats.MqlLevelDistribution[mqlLevel]++
	logrus.Debugf("%s REPS processMql path=%d mql=%d (was %d)", r.debugTag, pathID, mqlLevel, oldLevel)
}

// pruneGrouping drops grouped entropies the buffer no longer holds fresh.
func (r *Reps) pruneGrouping() {
	if r.useMql && !r.grouping.empty() {
		r.grouping.prune(r.buffer.ContainsEntropy)
	}
}
