package multipath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmap_WithoutFeedback_MatchesOblivious(t *testing.T) {
	b := NewBitmap(16, 0, newTestRand(11))
	o := NewOblivious(16, newTestRand(11))
	for i := 0; i < 100; i++ {
		require.Equal(t, o.NextEntropy(uint64(i), 16), b.NextEntropy(uint64(i), 16), "call %d", i)
	}
}

func TestBitmap_ProcessEv_PenaltyPerFeedback(t *testing.T) {
	tests := []struct {
		name     string
		feedback []PathFeedback
		want     uint8
		skip     uint16
	}{
		{"good adds nothing", []PathFeedback{PathGood}, 0, 0},
		{"ecn adds one", []PathFeedback{PathECN}, 1, 1},
		{"nack adds four", []PathFeedback{PathNACK}, 4, 1},
		{"timeout saturates", []PathFeedback{PathTimeout}, DefaultMaxPenalty, 1},
		{"accumulates", []PathFeedback{PathECN, PathNACK, PathECN}, 6, 1},
		{"clamped at max", []PathFeedback{PathNACK, PathNACK, PathNACK, PathNACK}, DefaultMaxPenalty, 1},
		{"timeout after ecn stays at max", []PathFeedback{PathECN, PathTimeout}, DefaultMaxPenalty, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBitmap(8, 0, newTestRand(1))
			for _, fb := range tt.feedback {
				b.ProcessEv(2, fb)
			}
			assert.Equal(t, tt.want, b.Penalty(2))
			assert.Equal(t, tt.skip, b.SkipCount())
		})
	}
}

func TestBitmap_CustomMaxPenalty(t *testing.T) {
	b := NewBitmap(8, 3, newTestRand(1))
	b.ProcessEv(1, PathNACK)
	assert.Equal(t, uint8(3), b.Penalty(1))
	b.ProcessEv(2, PathTimeout)
	assert.Equal(t, uint8(3), b.Penalty(2))
}

func TestBitmap_ProcessEv_MasksOutOfRangeIDs(t *testing.T) {
	// GIVEN an entropy value carrying salt bits above the path mask
	b := NewBitmap(8, 0, newTestRand(1))

	// WHEN it is fed back
	b.ProcessEv(0xFFF3, PathNACK)

	// THEN only the low bits select the penalized path
	assert.Equal(t, uint8(4), b.Penalty(3))
	assert.Equal(t, uint16(1), b.SkipCount())
}

func TestBitmap_TimeoutPath_SkippedAndDecaying(t *testing.T) {
	// GIVEN a timeout on path 3
	b := NewBitmap(8, 0, newTestRand(5))
	b.ProcessEv(3, PathTimeout)

	// WHEN seven full cycles of entropies are drawn
	for i := 0; i < 7*8; i++ {
		// THEN path 3 is never chosen
		require.NotEqual(t, uint16(3), b.NextEntropy(uint64(i), 8)&7, "call %d", i)
	}

	// AND its penalty has been paid down by the skips but not cleared
	assert.Less(t, b.Penalty(3), DefaultMaxPenalty)
	assert.Greater(t, b.Penalty(3), uint8(0))
}

func TestBitmap_CleanPath_ChosenWhenOthersPenalized(t *testing.T) {
	// GIVEN every path except 5 timed out
	b := NewBitmap(8, 0, newTestRand(9))
	for p := uint16(0); p < 8; p++ {
		if p != 5 {
			b.ProcessEv(p, PathTimeout)
		}
	}

	// WHEN the next entropy is drawn
	// THEN the walk lands on the only clean path
	assert.Equal(t, uint16(5), b.NextEntropy(0, 8)&7)
}

func TestBitmap_AllPenalized_ReturnsAfterCap(t *testing.T) {
	// GIVEN every path at max penalty
	b := NewBitmap(8, 0, newTestRand(2))
	for p := uint16(0); p < 8; p++ {
		b.ProcessEv(p, PathTimeout)
	}

	// WHEN an entropy is drawn
	got := b.NextEntropy(0, 8)

	// THEN it returns after walking at most one cycle, decaying each visited path once
	assert.Less(t, got&7, uint16(8))
	total := 0
	for p := uint16(0); p < 8; p++ {
		total += int(b.Penalty(p))
	}
	assert.Equal(t, 8*int(DefaultMaxPenalty)-8, total)
	assert.Equal(t, uint16(8), b.SkipCount())
}

func TestBitmap_SkipCount_ReturnsToZero(t *testing.T) {
	// GIVEN a single ECN mark on path 2
	b := NewBitmap(8, 0, newTestRand(4))
	b.ProcessEv(2, PathECN)
	require.Equal(t, uint16(1), b.SkipCount())

	// WHEN one full cycle is drawn
	for i := 0; i < 8; i++ {
		b.NextEntropy(uint64(i), 8)
	}

	// THEN the penalty was paid off on the first visit
	assert.Equal(t, uint8(0), b.Penalty(2))
	assert.Equal(t, uint16(0), b.SkipCount())
}
