package multipath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepsLegacy_FirstWindow_VisitsEveryPathInOrder(t *testing.T) {
	// GIVEN a window larger than the path count
	r := NewRepsLegacy(8, newTestRand(1))

	// WHEN the first no_of_paths packets are sent
	var got []uint16
	for seq := uint64(0); seq < 8; seq++ {
		got = append(got, r.NextEntropy(seq, 100))
	}

	// THEN each path is visited once in increasing order (mod 8)
	assert.Equal(t, []uint16{1, 2, 3, 4, 5, 6, 7, 0}, got)
}

func TestRepsLegacy_FirstWindow_IgnoresFeedback(t *testing.T) {
	r := NewRepsLegacy(4, newTestRand(1))
	r.ProcessEv(3, PathGood)
	r.ProcessEv(3, PathGood)

	assert.Equal(t, uint16(1), r.NextEntropy(0, 10))
	assert.Equal(t, uint16(2), r.NextEntropy(1, 10))
	assert.Equal(t, 2, r.QueueLen(), "first window must not consume the recycle queue")
}

func TestRepsLegacy_WindowSmallerThanPaths(t *testing.T) {
	// GIVEN cwnd=2 over 8 paths, with path 6 queued
	r := NewRepsLegacy(8, newTestRand(1))
	r.ProcessEv(6, PathGood)

	// WHEN seq 0,1 are in the first window and seq 2 is not
	assert.Equal(t, uint16(1), r.NextEntropy(0, 2))
	assert.Equal(t, uint16(2), r.NextEntropy(1, 2))

	// THEN seq 2 recycles
	assert.Equal(t, uint16(6), r.NextEntropy(2, 2))
}

func TestRepsLegacy_SteadyState_RecyclesFIFO(t *testing.T) {
	r := NewRepsLegacy(8, newTestRand(1))
	for _, p := range []uint16{5, 2, 7, 2} {
		r.ProcessEv(p, PathGood)
	}
	r.ProcessEv(4, PathECN)
	r.ProcessEv(4, PathNACK)
	r.ProcessEv(4, PathTimeout)
	assert.Equal(t, 4, r.QueueLen(), "only GOOD feedback is queued, without dedup")

	var got []uint16
	for i := 0; i < 4; i++ {
		got = append(got, r.NextEntropy(100, 8))
	}
	assert.Equal(t, []uint16{5, 2, 7, 2}, got)
	assert.Equal(t, 0, r.QueueLen())
}

func TestRepsLegacy_SteadyState_RandomWhenEmpty(t *testing.T) {
	r := NewRepsLegacy(8, newTestRand(1))
	for i := 0; i < 100; i++ {
		assert.Less(t, r.NextEntropy(100, 8), uint16(8))
	}
}

func TestRepsLegacy_NextEntropyRecycle(t *testing.T) {
	r := NewRepsLegacy(8, newTestRand(1))

	_, ok := r.NextEntropyRecycle()
	assert.False(t, ok, "empty queue yields no value")

	r.ProcessEv(0xAB03, PathGood)
	got, ok := r.NextEntropyRecycle()
	assert.True(t, ok)
	assert.Equal(t, uint16(0xAB03), got, "recycled entropy keeps its salt bits")

	_, ok = r.NextEntropyRecycle()
	assert.False(t, ok)
}
