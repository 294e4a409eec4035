// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import (
	"io"
	"time"

	"code.hybscloud.com/iox"
)

// Device is the serial-port abstraction a Communicator drives. It mirrors
// the original qt-serial_communicator's QSerialPort surface (write,
// waitForBytesWritten, read, bytesAvailable) rather than a bare io.ReadWriter,
// since WaitForBytesWritten's blocking/non-blocking distinction matters to
// callers that want to bound how long a Tick can stall on a slow link.
type Device interface {
	io.Reader
	io.Writer

	// WaitForBytesWritten blocks until previously buffered writes have
	// drained, or timeout elapses. A zero timeout means return immediately.
	WaitForBytesWritten(timeout time.Duration) error

	// BytesAvailable reports how many bytes can currently be read without
	// blocking.
	BytesAvailable() int
}

// PipeDevice is an in-memory Device over an io.Pipe, used for tests and for
// wiring two Engines together in-process. Grounded on this corpus's framing
// library's NewPipe, which pairs an io.Pipe reader and writer behind a single
// synchronous handle.
type PipeDevice struct {
	r *io.PipeReader
	w *io.PipeWriter
}

// NewPipeDevice returns two PipeDevices connected to each other: bytes
// written to one are readable from the other.
func NewPipeDevice() (a, b *PipeDevice) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	a = &PipeDevice{r: ar, w: aw}
	b = &PipeDevice{r: br, w: bw}
	return a, b
}

// Write implements io.Writer.
func (p *PipeDevice) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

// Read implements io.Reader. It blocks until at least one byte arrives or
// the pipe is closed, matching io.Pipe's contract; it never returns
// ErrWouldBlock.
func (p *PipeDevice) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	return n, err
}

// WaitForBytesWritten is a no-op for PipeDevice: io.Pipe's Write already
// blocks until a paired Read consumes the data, so there is never a pending
// write to wait for.
func (p *PipeDevice) WaitForBytesWritten(time.Duration) error { return nil }

// BytesAvailable always reports zero: io.Pipe has no internal buffer to
// inspect without consuming it. Communicator never relies on this as a gate;
// it reads from Device on its own goroutine instead.
func (p *PipeDevice) BytesAvailable() int { return 0 }

// Close closes both ends owned by this PipeDevice.
func (p *PipeDevice) Close() error {
	werr := p.w.Close()
	rerr := p.r.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// wouldBlock reports whether err is the non-blocking control-flow sentinel
// re-exported from iox, so a Communicator's read loop can distinguish "no
// data yet" from a real I/O failure.
func wouldBlock(err error) bool {
	return err == iox.ErrWouldBlock
}
