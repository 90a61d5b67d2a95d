package multipath

import "github.com/sirupsen/logrus"

// DefaultRepsBufferSize is the default number of cached entropies per REPS flow.
const DefaultRepsBufferSize = 256

// FreshBuffer is the recycle buffer consumed by Reps. Fresh entries are
// entropies that last produced GOOD feedback and are eligible for reuse.
//
// Implementations must keep fresh entries in FIFO order. An added entry is
// fresh at once; if making room later drops a fresh entry before it was
// consumed, Add reports it through evicted and dropped.
type FreshBuffer interface {
	Add(entropy uint16) (evicted uint16, dropped bool)
	IsEmpty() bool
	NumberFreshEntropies() int
	// RemoveEarliestFresh consumes the oldest fresh entry. Callers must check
	// NumberFreshEntropies first.
	RemoveEarliestFresh() uint16
	// RemoveFrozen returns the next entry under the frozen-mode policy.
	// Callers must check IsEmpty first.
	RemoveFrozen() uint16
	// RemoveEntropy consumes every fresh occurrence of entropy and returns how
	// many were removed. The relative order of the remaining entries is kept.
	RemoveEntropy(entropy uint16) int
	ContainsEntropy(entropy uint16) bool
	IsFrozenMode() bool
	SetFrozenMode(frozen bool)
	ResetBuffer()
	// FreezeDuration is how long, in clock ticks, a frozen period lasts.
	FreezeDuration() int64
}

type bufferSlot struct {
	value uint16
	fresh bool
}

// RecycleBuffer is a fixed-capacity ring of cached entropies. Adding to a full
// ring overwrites the oldest slot. Consuming an entry clears its fresh flag but
// keeps it cached, so that frozen mode can keep cycling through every entropy
// that was recently known to be good.
type RecycleBuffer struct {
	slots          []bufferSlot
	head           int // next write position
	count          int // cached slots in use
	fresh          int // slots with fresh set
	frozen         bool
	frozenCursor   int // offset from the oldest slot for RemoveFrozen
	freezeDuration int64
}

// NewRecycleBuffer creates a buffer holding up to capacity entropies.
// A non-positive capacity selects DefaultRepsBufferSize.
func NewRecycleBuffer(capacity int, freezeDuration int64) *RecycleBuffer {
	if capacity <= 0 {
		capacity = DefaultRepsBufferSize
	}
	return &RecycleBuffer{
		slots:          make([]bufferSlot, capacity),
		freezeDuration: freezeDuration,
	}
}

func (b *RecycleBuffer) oldest() int {
	return (b.head - b.count + len(b.slots)) % len(b.slots)
}

// at returns the index of the i-th cached slot counting from the oldest.
func (b *RecycleBuffer) at(i int) int {
	return (b.oldest() + i) % len(b.slots)
}

func (b *RecycleBuffer) consume(idx int) uint16 {
	if b.slots[idx].fresh {
		b.slots[idx].fresh = false
		b.fresh--
	}
	return b.slots[idx].value
}

// Add implements FreshBuffer. On a full ring the oldest slot is overwritten;
// dropped is true when that slot was still fresh.
func (b *RecycleBuffer) Add(entropy uint16) (evicted uint16, dropped bool) {
	if b.count == len(b.slots) {
		if b.slots[b.head].fresh {
			b.fresh--
			evicted, dropped = b.slots[b.head].value, true
		}
		if b.frozenCursor > 0 {
			b.frozenCursor--
		}
	} else {
		b.count++
	}
	b.slots[b.head] = bufferSlot{value: entropy, fresh: true}
	b.fresh++
	b.head = (b.head + 1) % len(b.slots)
	return evicted, dropped
}

// IsEmpty reports whether no entropy is cached, fresh or consumed.
func (b *RecycleBuffer) IsEmpty() bool { return b.count == 0 }

// NumberFreshEntropies implements FreshBuffer.
func (b *RecycleBuffer) NumberFreshEntropies() int { return b.fresh }

// Len returns the number of cached slots, fresh or consumed.
func (b *RecycleBuffer) Len() int { return b.count }

// RemoveEarliestFresh implements FreshBuffer.
func (b *RecycleBuffer) RemoveEarliestFresh() uint16 {
	for i := 0; i < b.count; i++ {
		idx := b.at(i)
		if b.slots[idx].fresh {
			return b.consume(idx)
		}
	}
	logrus.Panicf("RecycleBuffer.RemoveEarliestFresh: no fresh entries (cached=%d)", b.count)
	return 0
}

// RemoveFrozen cycles through every cached slot, oldest first, consuming the
// slot if it was still fresh.
func (b *RecycleBuffer) RemoveFrozen() uint16 {
	if b.count == 0 {
		logrus.Panicf("RecycleBuffer.RemoveFrozen: buffer is empty")
	}
	pos := b.frozenCursor % b.count
	b.frozenCursor = (pos + 1) % b.count
	return b.consume(b.at(pos))
}

// RemoveEntropy implements FreshBuffer.
func (b *RecycleBuffer) RemoveEntropy(entropy uint16) int {
	removed := 0
	for i := 0; i < b.count; i++ {
		idx := b.at(i)
		if b.slots[idx].fresh && b.slots[idx].value == entropy {
			b.consume(idx)
			removed++
		}
	}
	return removed
}

// ContainsEntropy reports whether entropy is present as a fresh entry.
func (b *RecycleBuffer) ContainsEntropy(entropy uint16) bool {
	for i := 0; i < b.count; i++ {
		idx := b.at(i)
		if b.slots[idx].fresh && b.slots[idx].value == entropy {
			return true
		}
	}
	return false
}

// IsFrozenMode implements FreshBuffer.
func (b *RecycleBuffer) IsFrozenMode() bool { return b.frozen }

// SetFrozenMode implements FreshBuffer. Entering frozen mode restarts the
// frozen cycle at the oldest slot.
func (b *RecycleBuffer) SetFrozenMode(frozen bool) {
	if frozen && !b.frozen {
		b.frozenCursor = 0
	}
	b.frozen = frozen
}

// ResetBuffer drops every cached entropy. The frozen flag is left untouched.
func (b *RecycleBuffer) ResetBuffer() {
	for i := range b.slots {
		b.slots[i] = bufferSlot{}
	}
	b.head, b.count, b.fresh, b.frozenCursor = 0, 0, 0, 0
}

// FreezeDuration implements FreshBuffer.
func (b *RecycleBuffer) FreezeDuration() int64 { return b.freezeDuration }
