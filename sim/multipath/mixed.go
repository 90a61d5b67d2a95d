package multipath

import "math/rand"

// Mixed prefers recycling entropies that recently came back GOOD and falls
// back to Bitmap's penalty-aware round robin when nothing is queued. Both
// halves see every feedback event.
type Mixed struct {
	bitmap     *Bitmap
	repsLegacy *RepsLegacy
}

// NewMixed creates a Mixed selector. noOfPaths must be a power of two.
// The Bitmap half is built first so that it draws the same salt and XOR from
// rng as a standalone Bitmap would.
func NewMixed(noOfPaths uint16, maxPenalty uint8, rng *rand.Rand) *Mixed {
	return &Mixed{
		bitmap:     NewBitmap(noOfPaths, maxPenalty, rng),
		repsLegacy: NewRepsLegacy(noOfPaths, rng),
	}
}

// SetDebugTag tags both halves.
func (m *Mixed) SetDebugTag(tag string) {
	m.bitmap.SetDebugTag(tag)
	m.repsLegacy.SetDebugTag(tag)
}

// ProcessEv implements PathSelector.
func (m *Mixed) ProcessEv(pathID uint16, feedback PathFeedback) {
	m.bitmap.ProcessEv(pathID, feedback)
	m.repsLegacy.ProcessEv(pathID, feedback)
}

// NextEntropy implements PathSelector.
func (m *Mixed) NextEntropy(seqSent, curCwndInPkts uint64) uint16 {
	if entropy, ok := m.repsLegacy.NextEntropyRecycle(); ok {
		return entropy
	}
	return m.bitmap.NextEntropy(seqSent, curCwndInPkts)
}

// ProcessMql is a no-op: neither half uses telemetry.
func (m *Mixed) ProcessMql(uint16, uint8) {}
