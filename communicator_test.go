// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCommunicatorSendReceiveOverPipeDevices(t *testing.T) {
	devA, devB := NewPipeDevice()

	a := NewCommunicator(devA, WithQueueSize(4), WithTickInterval(5*time.Millisecond))
	b := NewCommunicator(devB, WithQueueSize(4), WithTickInterval(5*time.Millisecond))
	a.Start(nil)
	b.Start(nil)
	defer func() {
		// Closing first unblocks each side's pending device Read so Stop's
		// WaitGroup can join the read-loop goroutines.
		devA.Close()
		devB.Close()
		a.Stop()
		b.Stop()
	}()

	ok, rejected := a.Send(NewMessage(99), false, nil)
	require.True(t, ok)
	require.Nil(t, rejected)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for message delivery")
		default:
		}
		if b.MessagesAvailable() > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	msg, found := b.Receive()
	require.True(t, found)
	require.Equal(t, uint16(99), msg.ID())
}

func TestCommunicatorQueueSizeAndTimeoutAccessors(t *testing.T) {
	devA, devB := NewPipeDevice()
	defer devA.Close()
	defer devB.Close()

	c := NewCommunicator(devA, WithQueueSize(6), WithReceiptTimeout(30*time.Millisecond), WithMaxTransmissions(4))
	_ = devB

	require.Equal(t, uint16(6), c.QueueSize())
	require.Equal(t, 30*time.Millisecond, c.ReceiptTimeout())
	require.Equal(t, uint8(4), c.MaxTransmissions())

	require.NoError(t, c.SetQueueSize(8))
	require.Equal(t, uint16(8), c.QueueSize())

	c.SetReceiptTimeout(time.Second)
	require.Equal(t, time.Second, c.ReceiptTimeout())

	c.SetMaxTransmissions(10)
	require.Equal(t, uint8(10), c.MaxTransmissions())
}

func TestCommunicatorStopIsIdempotent(t *testing.T) {
	devA, devB := NewPipeDevice()
	defer devA.Close()
	defer devB.Close()

	c := NewCommunicator(devA, WithQueueSize(2))
	c.Start(NewManualTicker())
	// Unblock the read loop's pending Read (io.Pipe only returns once the
	// paired write-half is closed) so Stop's WaitGroup can complete.
	devB.Close()
	c.Stop()
	require.NotPanics(t, c.Stop)
}
