// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotQueueInsertAndFull(t *testing.T) {
	q := newSlotQueue[*Inbound](2)
	assert.True(t, q.Insert(newInbound(NewMessage(1), 0)))
	assert.True(t, q.Insert(newInbound(NewMessage(2), 1)))
	assert.False(t, q.Insert(newInbound(NewMessage(3), 2)))
	assert.Equal(t, 2, q.Len())
}

func TestSlotQueueSelectBestPriorityThenAge(t *testing.T) {
	q := newSlotQueue[*Inbound](4)
	low := newInbound(NewMessage(1), 0)
	low.Message.SetPriority(1)
	high := newInbound(NewMessage(2), 1)
	high.Message.SetPriority(5)
	tie1 := newInbound(NewMessage(3), 2)
	tie1.Message.SetPriority(5)

	q.Insert(low)
	q.Insert(high)
	q.Insert(tie1)

	idx, entry, found := q.SelectBest(nil)
	require.True(t, found)
	assert.Equal(t, high, entry)

	q.Remove(idx)
	_, entry, found = q.SelectBest(nil)
	require.True(t, found)
	assert.Equal(t, tie1, entry)
}

func TestSlotQueueResizeGrowAndShrink(t *testing.T) {
	q := newSlotQueue[*Inbound](1)
	q.Insert(newInbound(NewMessage(1), 0))

	require.NoError(t, q.Resize(3))
	assert.Equal(t, 3, q.Capacity())
	assert.Equal(t, 1, q.Len())

	err := q.Resize(0)
	assert.ErrorIs(t, err, ErrShrinkBelowOccupancy)

	q.Remove(0)
	require.NoError(t, q.Resize(0))
	assert.Equal(t, 0, q.Capacity())
}

func TestSlotQueueResizeNegative(t *testing.T) {
	q := newSlotQueue[*Inbound](1)
	assert.ErrorIs(t, q.Resize(-1), ErrInvalidArgument)
}

func TestSlotQueueEach(t *testing.T) {
	q := newSlotQueue[*Inbound](3)
	q.Insert(newInbound(NewMessage(1), 0))
	q.Insert(newInbound(NewMessage(2), 1))

	seen := 0
	q.Each(func(i int, e *Inbound) { seen++ })
	assert.Equal(t, 2, seen)
}
