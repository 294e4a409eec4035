// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

// slotEntry is the constraint shared by *Outbound and *Inbound: both carry
// a priority and a monotonic sequence number, which is all slotQueue's
// selection logic needs. The original repeats its dense linear scan
// ("highest priority, then oldest") once for m_tx_queue and once for
// m_rx_queue; a Go rewrite collapses that into one generic implementation.
type slotEntry interface {
	priority() uint8
	seqNum() uint32
}

// slotItem is one position in a slotQueue: either empty, or owning exactly
// one entry. Slot order carries no semantic meaning — selection is always
// by priority then age (see SelectBest).
type slotItem[T slotEntry] struct {
	occupied bool
	value    T
}

// slotQueue is a fixed-capacity (resizable-upward) container of slots, used
// for both the TX queue (slotQueue[*Outbound]) and the RX queue
// (slotQueue[*Inbound]).
type slotQueue[T slotEntry] struct {
	slots []slotItem[T]
}

// newSlotQueue creates a queue with the given slot capacity.
func newSlotQueue[T slotEntry](capacity int) *slotQueue[T] {
	return &slotQueue[T]{slots: make([]slotItem[T], capacity)}
}

// Capacity returns the total number of slots.
func (q *slotQueue[T]) Capacity() int { return len(q.slots) }

// Len returns the number of currently occupied slots.
func (q *slotQueue[T]) Len() int {
	n := 0
	for i := range q.slots {
		if q.slots[i].occupied {
			n++
		}
	}
	return n
}

// Insert places v into the first empty slot and reports success. It
// returns false without mutating the queue when no slot is free, so the
// caller (Engine.Send) can return false together with the rejected message.
func (q *slotQueue[T]) Insert(v T) bool {
	for i := range q.slots {
		if !q.slots[i].occupied {
			q.slots[i] = slotItem[T]{occupied: true, value: v}
			return true
		}
	}
	return false
}

// At returns the entry at slot i and whether that slot is occupied.
func (q *slotQueue[T]) At(i int) (T, bool) {
	return q.slots[i].value, q.slots[i].occupied
}

// Remove frees slot i, dropping the engine's reference to whatever entry it
// held. The caller is responsible for anything else the entry needed to do
// on removal (status transitions, trackers) before calling Remove.
func (q *slotQueue[T]) Remove(i int) {
	var zero slotItem[T]
	q.slots[i] = zero
}

// SelectBest scans occupied slots matching filter (filter == nil matches
// everything) and returns the index and value of the one with highest
// priority, breaking ties by smallest sequence number (oldest). found is
// false if nothing matched.
func (q *slotQueue[T]) SelectBest(filter func(T) bool) (index int, entry T, found bool) {
	for i := range q.slots {
		if !q.slots[i].occupied {
			continue
		}
		v := q.slots[i].value
		if filter != nil && !filter(v) {
			continue
		}
		if !found {
			index, entry, found = i, v, true
			continue
		}
		if v.priority() > entry.priority() {
			index, entry = i, v
		} else if v.priority() == entry.priority() && v.seqNum() < entry.seqNum() {
			index, entry = i, v
		}
	}
	return index, entry, found
}

// Each calls fn for every occupied slot, in slot order. fn must not mutate
// the queue's slot count (Insert/Remove/Resize) while iterating.
func (q *slotQueue[T]) Each(fn func(index int, entry T)) {
	for i := range q.slots {
		if q.slots[i].occupied {
			fn(i, q.slots[i].value)
		}
	}
}

// Resize changes capacity. Growing preserves all existing slots (occupied
// or not) and appends empty slots. Shrinking below the current occupied
// count returns ErrShrinkBelowOccupancy instead of the original's
// undefined behavior — Go has no way to silently leak the entries that
// would fall off the end, so rejecting is the safe analogue.
func (q *slotQueue[T]) Resize(n int) error {
	if n < 0 {
		return ErrInvalidArgument
	}
	if n < len(q.slots) {
		if q.Len() > n {
			return ErrShrinkBelowOccupancy
		}
		// Slot order carries no meaning, so occupied slots are packed to
		// the front before the tail is cut off.
		kept := make([]slotItem[T], n)
		j := 0
		for i := range q.slots {
			if q.slots[i].occupied {
				kept[j] = q.slots[i]
				j++
			}
		}
		q.slots = kept
		return nil
	}
	grown := make([]slotItem[T], n)
	copy(grown, q.slots)
	q.slots = grown
	return nil
}
