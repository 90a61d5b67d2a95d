package multipath

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Ecmp pins a flow to one path chosen uniformly at construction, modelling
// static hash-based multipathing. It is the no-adaptation control baseline.
type Ecmp struct {
	base
	crtPath uint16
}

// NewEcmp creates an Ecmp selector over noOfPaths paths.
func NewEcmp(noOfPaths uint16, rng *rand.Rand) *Ecmp {
	e := &Ecmp{crtPath: uint16(rng.Intn(int(noOfPaths)))}
	logrus.Debugf("Multipath ECMP noOfPaths=%d path=%d", noOfPaths, e.crtPath)
	return e
}

// ProcessEv is a no-op.
func (e *Ecmp) ProcessEv(uint16, PathFeedback) {}

// NextEntropy always returns the path chosen at construction.
func (e *Ecmp) NextEntropy(_, _ uint64) uint16 { return e.crtPath }
