// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPipeDeviceCrossConnected(t *testing.T) {
	a, b := NewPipeDevice()
	defer a.Close()
	defer b.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = a.Write([]byte("hello"))
	}()

	buf := make([]byte, 5)
	n, err := b.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))
	<-done
}

func TestPipeDeviceWaitForBytesWrittenNoop(t *testing.T) {
	a, b := NewPipeDevice()
	defer a.Close()
	defer b.Close()

	require.NoError(t, a.WaitForBytesWritten(time.Millisecond))
}
