package multipath

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// entropyCursor walks the path space in a per-wrap XOR-permuted round robin.
// Shared by Oblivious and Bitmap. noOfPaths must be a power of two.
type entropyCursor struct {
	noOfPaths      uint16
	pathRandom     uint16 // upper bits of every EV, fixed at construction
	pathXor        uint16 // re-rolled each time currentEvIndex wraps
	currentEvIndex uint16
	rng            *rand.Rand
}

func newEntropyCursor(noOfPaths uint16, rng *rand.Rand) entropyCursor {
	return entropyCursor{
		noOfPaths:  noOfPaths,
		pathRandom: uint16(rng.Intn(math.MaxUint16)),
		pathXor:    uint16(rng.Intn(int(noOfPaths))),
		rng:        rng,
	}
}

func (c *entropyCursor) mask() uint16 { return c.noOfPaths - 1 }

// current returns the path id under the cursor, without the salt.
func (c *entropyCursor) current() uint16 {
	return (c.currentEvIndex ^ c.pathXor) & c.mask()
}

// advance moves to the next index, re-rolling the XOR on wrap.
func (c *entropyCursor) advance() {
	c.currentEvIndex++
	if c.currentEvIndex == c.noOfPaths {
		c.currentEvIndex = 0
		c.pathXor = uint16(c.rng.Int()) & c.mask()
	}
}

// salted ORs the fixed upper-bit salt into a path id.
func (c *entropyCursor) salted(pathID uint16) uint16 {
	return pathID | upperBits(c.pathRandom, c.mask())
}

// Oblivious spreads packets over every path in round-robin order and never
// reacts to feedback.
type Oblivious struct {
	base
	cursor entropyCursor
}

// NewOblivious creates an Oblivious selector over noOfPaths paths.
// noOfPaths must be a power of two.
func NewOblivious(noOfPaths uint16, rng *rand.Rand) *Oblivious {
	o := &Oblivious{cursor: newEntropyCursor(noOfPaths, rng)}
	logrus.Debugf("Multipath Oblivious noOfPaths=%d pathRandom=%d pathXor=%d",
		noOfPaths, o.cursor.pathRandom, o.cursor.pathXor)
	return o
}

// ProcessEv is a no-op: Oblivious ignores feedback.
func (o *Oblivious) ProcessEv(uint16, PathFeedback) {}

// NextEntropy implements PathSelector.
func (o *Oblivious) NextEntropy(_, _ uint64) uint16 {
	entropy := o.cursor.current()
	o.cursor.advance()
	return o.cursor.salted(entropy)
}
