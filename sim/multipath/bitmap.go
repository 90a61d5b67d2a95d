package multipath

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// DefaultMaxPenalty is the penalty ceiling used when none is configured.
const DefaultMaxPenalty uint8 = 15

// Penalties added per feedback kind. Timeout saturates to the configured maximum.
const (
	ecnPenalty  uint8 = 1
	nackPenalty uint8 = 4
)

// Bitmap extends the Oblivious round robin with per-path penalty scores.
// A penalized path is skipped when the cursor reaches it, and each skip pays
// its penalty down by one, so badly penalized paths are avoided for several
// rounds before being retried.
type Bitmap struct {
	base
	cursor     entropyCursor
	penalties  []uint8 // per path, in [0, maxPenalty]
	skipCount  uint16  // number of paths with a non-zero penalty
	maxPenalty uint8
}

// NewBitmap creates a Bitmap selector. noOfPaths must be a power of two.
// A zero maxPenalty selects DefaultMaxPenalty.
func NewBitmap(noOfPaths uint16, maxPenalty uint8, rng *rand.Rand) *Bitmap {
	if maxPenalty == 0 {
		maxPenalty = DefaultMaxPenalty
	}
	b := &Bitmap{
		cursor:     newEntropyCursor(noOfPaths, rng),
		penalties:  make([]uint8, noOfPaths),
		maxPenalty: maxPenalty,
	}
	logrus.Debugf("Multipath Bitmap noOfPaths=%d pathRandom=%d pathXor=%d maxPenalty=%d",
		noOfPaths, b.cursor.pathRandom, b.cursor.pathXor, maxPenalty)
	return b
}

// ProcessEv implements PathSelector. Only the low bits of pathID are used.
func (b *Bitmap) ProcessEv(pathID uint16, feedback PathFeedback) {
	pathID &= b.cursor.mask()

	var penalty uint8
	switch feedback {
	case PathECN:
		penalty = ecnPenalty
	case PathNACK:
		penalty = nackPenalty
	case PathTimeout:
		penalty = b.maxPenalty
	default:
		return
	}

	if b.penalties[pathID] == 0 {
		b.skipCount++
	}
	// Widen before adding so the clamp sees the true sum.
	sum := int(b.penalties[pathID]) + int(penalty)
	if sum > int(b.maxPenalty) {
		sum = int(b.maxPenalty)
	}
	b.penalties[pathID] = uint8(sum)
}

// NextEntropy implements PathSelector.
func (b *Bitmap) NextEntropy(_, _ uint64) uint16 {
	entropy := b.cursor.current()
	for steps := uint16(0); b.penalties[entropy] > 0 && steps < b.cursor.noOfPaths; steps++ {
		b.decay(entropy)
		b.cursor.advance()
		entropy = b.cursor.current()
	}
	b.cursor.advance()
	return b.cursor.salted(entropy)
}

// decay pays down one unit of penalty for a skipped path.
func (b *Bitmap) decay(pathID uint16) {
	b.penalties[pathID]--
	if b.penalties[pathID] == 0 {
		if b.skipCount == 0 {
			logrus.Panicf("Bitmap: skip count underflow on path %d", pathID)
		}
		b.skipCount--
	}
}

// Penalty returns the current penalty of pathID (low bits only).
func (b *Bitmap) Penalty(pathID uint16) uint8 {
	return b.penalties[pathID&b.cursor.mask()]
}

// SkipCount returns the number of paths currently carrying a penalty.
func (b *Bitmap) SkipCount() uint16 { return b.skipCount }
