package multipath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOblivious_FirstCycle_IsPermutation(t *testing.T) {
	for _, n := range []uint16{1, 2, 4, 8, 16, 64, 256} {
		// GIVEN a fresh Oblivious selector over n paths
		o := NewOblivious(n, newTestRand(int64(n)))
		mask := n - 1

		// WHEN n entropies are drawn with no feedback
		seen := make(map[uint16]int, n)
		for i := uint16(0); i < n; i++ {
			seen[o.NextEntropy(uint64(i), 100)&mask]++
		}

		// THEN every path id appears exactly once
		assert.Len(t, seen, int(n), "n=%d", n)
		for id, count := range seen {
			assert.Equal(t, 1, count, "n=%d path %d", n, id)
		}
	}
}

func TestOblivious_UpperBits_FixedPerInstance(t *testing.T) {
	o := NewOblivious(16, newTestRand(7))
	mask := uint16(15)

	first := o.NextEntropy(0, 0) &^ mask
	for i := 1; i < 200; i++ {
		assert.Equal(t, first, o.NextEntropy(uint64(i), 0)&^mask, "call %d", i)
	}
}

func TestOblivious_UpperBits_VaryAcrossFlows(t *testing.T) {
	salts := make(map[uint16]bool)
	for seed := int64(0); seed < 10; seed++ {
		o := NewOblivious(8, newTestRand(seed))
		salts[o.NextEntropy(0, 0)&^7] = true
	}
	assert.Greater(t, len(salts), 1, "every flow drew the same salt")
}

func TestOblivious_IgnoresFeedback(t *testing.T) {
	// GIVEN two selectors from the same seed
	quiet := NewOblivious(8, newTestRand(3))
	noisy := NewOblivious(8, newTestRand(3))

	// WHEN only one of them receives feedback
	for i := 0; i < 50; i++ {
		noisy.ProcessEv(uint16(i%8), PathTimeout)
		noisy.ProcessMql(uint16(i%8), 0)

		// THEN both produce the same sequence
		assert.Equal(t, quiet.NextEntropy(uint64(i), 8), noisy.NextEntropy(uint64(i), 8), "call %d", i)
	}
}
