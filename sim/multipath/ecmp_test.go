package multipath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEcmp_SamePathForLifetime(t *testing.T) {
	// GIVEN an Ecmp selector
	e := NewEcmp(16, newTestRand(8))
	first := e.NextEntropy(0, 1)
	assert.Less(t, first, uint16(16))

	// WHEN arbitrary feedback arrives between sends
	feedback := []PathFeedback{PathGood, PathECN, PathNACK, PathTimeout}
	for i := 0; i < 100; i++ {
		e.ProcessEv(uint16(i), feedback[i%len(feedback)])
		e.ProcessMql(uint16(i), uint8(i%8))

		// THEN the returned path never changes
		assert.Equal(t, first, e.NextEntropy(uint64(i), 10))
	}
}

func TestEcmp_SpreadsFlowsAcrossPaths(t *testing.T) {
	paths := make(map[uint16]bool)
	for seed := int64(0); seed < 32; seed++ {
		paths[NewEcmp(16, newTestRand(seed)).NextEntropy(0, 1)] = true
	}
	assert.Greater(t, len(paths), 1)
}
