// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, sent *[][]byte) *Engine {
	t.Helper()
	return NewEngine(func(frame []byte) {
		*sent = append(*sent, append([]byte(nil), frame...))
	}, WithQueueSize(2), WithReceiptTimeout(20*time.Millisecond), WithMaxTransmissions(3))
}

func TestEngineSendQueueFullReturnsMessage(t *testing.T) {
	var sent [][]byte
	e := newTestEngine(t, &sent)

	ok, rejected := e.Send(NewMessage(1), false, nil)
	require.True(t, ok)
	require.Nil(t, rejected)

	ok, rejected = e.Send(NewMessage(2), false, nil)
	require.True(t, ok)
	require.Nil(t, rejected)

	msg3 := NewMessage(3)
	ok, rejected = e.Send(msg3, false, nil)
	require.False(t, ok)
	require.Same(t, msg3, rejected)
}

func TestEngineSendTracksStatusViaPointer(t *testing.T) {
	var sent [][]byte
	e := newTestEngine(t, &sent)

	var tracker Status
	ok, _ := e.Send(NewMessage(1), true, &tracker)
	require.True(t, ok)
	require.Equal(t, StatusQueued, tracker)

	e.Tick(time.Now())
	require.Equal(t, StatusVerifying, tracker)
}

func TestEngineFireAndForgetDeliveredAcrossEngines(t *testing.T) {
	var a, b *Engine
	a = NewEngine(func(frame []byte) { b.Feed(frame) }, WithQueueSize(4))
	b = NewEngine(func(frame []byte) { a.Feed(frame) }, WithQueueSize(4))

	ok, _ := a.Send(NewMessage(42), false, nil)
	require.True(t, ok)

	a.Tick(time.Now())
	b.Tick(time.Now())

	require.Equal(t, 1, b.MessagesAvailable())
	msg, found := b.Receive()
	require.True(t, found)
	require.Equal(t, uint16(42), msg.ID())
}

func TestEngineReceiptRequiredRoundTrip(t *testing.T) {
	var a, b *Engine
	a = NewEngine(func(frame []byte) { b.Feed(frame) }, WithQueueSize(4), WithReceiptTimeout(time.Hour))
	b = NewEngine(func(frame []byte) { a.Feed(frame) }, WithQueueSize(4))

	var tracker Status
	a.Send(NewMessage(7), true, &tracker)

	now := time.Now()
	a.Tick(now)
	require.Equal(t, StatusVerifying, tracker)

	b.Tick(now)
	msg, found := b.Receive()
	require.True(t, found)
	require.Equal(t, uint16(7), msg.ID())

	a.Tick(now)
	require.Equal(t, StatusReceived, tracker)
}

func TestEngineReceiveByIDAndWildcard(t *testing.T) {
	var sent [][]byte
	e := newTestEngine(t, &sent)
	e.rxQueue.Insert(newInbound(NewMessage(1), 0))
	e.rxQueue.Insert(newInbound(NewMessage(2), 1))

	msg, found := e.Receive(2)
	require.True(t, found)
	require.Equal(t, uint16(2), msg.ID())

	msg, found = e.Receive()
	require.True(t, found)
	require.Equal(t, uint16(1), msg.ID())

	_, found = e.Receive()
	require.False(t, found)
}

func TestEngineSetQueueSizeRejectsShrinkBelowOccupancy(t *testing.T) {
	var sent [][]byte
	e := newTestEngine(t, &sent)
	e.Send(NewMessage(1), false, nil)
	e.Send(NewMessage(2), false, nil)

	err := e.SetQueueSize(1)
	require.Error(t, err)
	require.Equal(t, uint16(2), e.QueueSize())
}

func TestEngineGetSetReceiptTimeoutAndMaxTransmissions(t *testing.T) {
	var sent [][]byte
	e := newTestEngine(t, &sent)

	e.SetReceiptTimeout(250 * time.Millisecond)
	require.Equal(t, 250*time.Millisecond, e.ReceiptTimeout())

	e.SetMaxTransmissions(9)
	require.Equal(t, uint8(9), e.MaxTransmissions())
}
