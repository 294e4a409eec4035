// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *Scheduler, *[][]byte) {
	t.Helper()
	var sent [][]byte
	transmit := func(frame []byte) { sent = append(sent, append([]byte(nil), frame...)) }
	sched := newScheduler(newSlotQueue[*Outbound](4), 100*time.Millisecond, 3, transmit, nil, nopLogger{})
	d := newDispatcher(newSlotQueue[*Inbound](4), sched, transmit, nil, nopLogger{})
	return d, sched, &sent
}

func TestDispatcherEnqueuesNotRequiredFrame(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	frame := EncodeFrame(3, ReceiptNotRequired, NewMessage(9))
	d.Feed(frame)

	require.True(t, d.SpinRX(time.Now()))
	require.Equal(t, 1, d.rxQueue.Len())
	_, entry, found := d.rxQueue.SelectBest(nil)
	require.True(t, found)
	require.Equal(t, uint16(9), entry.Message.ID())
	require.Equal(t, uint32(3), entry.SequenceNumber)
}

func TestDispatcherReceiptRequiredEchoesPositiveReceipt(t *testing.T) {
	d, _, sent := newTestDispatcher(t)

	frame := EncodeFrame(11, ReceiptRequired, NewMessage(4))
	d.Feed(frame)
	require.True(t, d.SpinRX(time.Now()))

	require.Len(t, *sent, 1)
	decoded, err := decodeRawFrame(unescapeAll((*sent)[0]))
	require.NoError(t, err)
	require.Equal(t, ReceiptReceived, decoded.ReceiptType)
	require.Equal(t, uint32(11), decoded.SequenceNumber)
	require.Equal(t, 1, d.rxQueue.Len())
}

func TestDispatcherPartialFrameWaitsForMoreBytes(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	frame := EncodeFrame(1, ReceiptNotRequired, NewMessageWithData(1, 4))
	d.Feed(frame[:len(frame)-2])
	require.False(t, d.SpinRX(time.Now()))

	d.Feed(frame[len(frame)-2:])
	require.True(t, d.SpinRX(time.Now()))
}

func TestDispatcherResyncSkipsGarbageBeforeHeader(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	frame := EncodeFrame(1, ReceiptNotRequired, NewMessage(1))
	garbage := []byte{0x01, 0x02, 0x03}
	d.Feed(append(garbage, frame...))

	require.True(t, d.SpinRX(time.Now()))
	require.Equal(t, 1, d.rxQueue.Len())
}

func TestDispatcherHandlesReceiptFrameAgainstScheduler(t *testing.T) {
	d, sched, sent := newTestDispatcher(t)

	o := newOutbound(NewMessage(5), 2, true, nil)
	sched.queue.Insert(o)
	sched.SpinTX(time.Now())
	require.Len(t, *sent, 1)

	receipt := encodeReceiptFrame(2, 5, 0, ReceiptReceived)
	d.Feed(receipt)
	require.True(t, d.SpinRX(time.Now()))

	require.Equal(t, StatusReceived, o.Status())
}

func TestDispatcherEscapedByteStreamDecodesCorrectly(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	m := NewMessageWithData(2, 1)
	m.SetUint8(0, 0xAA)
	frame := EncodeFrame(0, ReceiptNotRequired, m)

	for _, b := range frame {
		d.Feed([]byte{b})
	}

	require.True(t, d.SpinRX(time.Now()))
	_, entry, found := d.rxQueue.SelectBest(nil)
	require.True(t, found)
	require.Equal(t, byte(0xAA), entry.Message.Uint8(0))
}
