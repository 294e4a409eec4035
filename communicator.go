// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import (
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Communicator is the concurrency-safe wrapper around an Engine: a single
// mutex serializes every call into the Engine, while two background
// goroutines drive it — one reading from Device and feeding bytes in, one
// waking on Ticker and calling Tick. This mirrors the original's design,
// where a single Qt event loop thread guaranteed the same serialization for
// free; Go has no event loop, so the mutex plays that role explicitly.
type Communicator struct {
	mu     sync.Mutex
	engine *Engine

	// id correlates this Communicator's log lines across a process running
	// several of them against different devices at once.
	id string

	device Device
	ticker Ticker
	opts   Options

	readBuf []byte

	stop   chan struct{}
	done   sync.WaitGroup
	closed bool
}

// NewCommunicator constructs a Communicator driving dev, using a default
// time.Ticker at opts' TickInterval unless WithTicker-equivalent behavior is
// supplied by the caller via Start's ticker argument. Call Start to begin
// the background goroutines.
func NewCommunicator(dev Device, opts ...Option) *Communicator {
	o := defaultOptions
	for _, apply := range opts {
		apply(&o)
	}

	c := &Communicator{
		id:      uuid.NewString(),
		device:  dev,
		opts:    o,
		readBuf: make([]byte, 4096),
		stop:    make(chan struct{}),
	}
	c.engine = NewEngine(func(frame []byte) { c.writeFrame(frame) }, opts...)
	return c
}

// ID returns the correlation id generated for this Communicator, suitable
// for tagging external log aggregation when several run in one process.
func (c *Communicator) ID() string { return c.id }

// writeFrame writes a fully-encoded frame to the device, waiting for it to
// drain. Called with the Communicator's mutex already held (it is only ever
// invoked from within Engine, which is only ever invoked with mu held).
func (c *Communicator) writeFrame(frame []byte) {
	if _, err := c.device.Write(frame); err != nil {
		if c.opts.Logger != nil {
			c.opts.Logger.Warnf("comlink[%s]: device write error: %v", c.id, err)
		}
		return
	}
	if err := c.device.WaitForBytesWritten(c.opts.ReceiptTimeout); err != nil {
		if c.opts.Logger != nil {
			c.opts.Logger.Warnf("comlink[%s]: device drain error: %v", c.id, err)
		}
	}
}

// Start launches the background read and tick goroutines. ticker overrides
// the internal default (time.Ticker at opts.TickInterval); pass nil to use
// the default. Returns ErrClosed if this Communicator has already been
// stopped; a Communicator is single-use, matching the original's one
// communicator per serial port lifetime.
func (c *Communicator) Start(ticker Ticker) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	if ticker == nil {
		ticker = NewTicker(c.opts.TickInterval)
	}
	c.ticker = ticker

	c.done.Add(2)
	go c.readLoop()
	go c.tickLoop()
	return nil
}

// Stop halts both background goroutines and releases the ticker. It does
// not close the underlying Device; callers own that lifecycle.
func (c *Communicator) Stop() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	if c.ticker != nil {
		c.ticker.Stop()
	}
	c.done.Wait()
}

// readLoop continuously reads from Device and feeds bytes into the Engine.
// A non-blocking Device signals no-data via ErrWouldBlock; the retry policy
// for that case is governed by opts.RetryDelay (see Options.RetryDelay).
func (c *Communicator) readLoop() {
	defer c.done.Done()
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		n, err := c.device.Read(c.readBuf)
		if n > 0 {
			c.mu.Lock()
			c.engine.Feed(c.readBuf[:n])
			c.mu.Unlock()
		}
		if err != nil {
			if wouldBlock(err) {
				c.waitRetry()
				continue
			}
			if c.opts.Logger != nil {
				c.opts.Logger.Warnf("comlink[%s]: device read error: %v", c.id, err)
			}
			return
		}
	}
}

// waitRetry applies the RetryDelay policy after an ErrWouldBlock from
// Device.Read.
func (c *Communicator) waitRetry() {
	switch {
	case c.opts.RetryDelay < 0:
		select {
		case <-c.stop:
		case <-time.After(time.Millisecond):
		}
	case c.opts.RetryDelay == 0:
		runtime.Gosched()
	default:
		select {
		case <-c.stop:
		case <-time.After(c.opts.RetryDelay):
		}
	}
}

// tickLoop fires Engine.Tick on every Ticker tick until Stop is called.
func (c *Communicator) tickLoop() {
	defer c.done.Done()
	for {
		select {
		case <-c.stop:
			return
		case now := <-c.ticker.C():
			c.mu.Lock()
			c.engine.Tick(c.opts.clockOrNow(now))
			c.mu.Unlock()
		}
	}
}

// Send enqueues msg for transmission. See Engine.Send.
func (c *Communicator) Send(msg *Message, receiptRequired bool, tracker *Status) (bool, *Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Send(msg, receiptRequired, tracker)
}

// MessagesAvailable returns the number of RX entries waiting to be consumed.
func (c *Communicator) MessagesAvailable() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.MessagesAvailable()
}

// Receive returns and removes the next available message. See Engine.Receive.
func (c *Communicator) Receive(id ...uint16) (*Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Receive(id...)
}

// QueueSize returns the current TX/RX queue capacity.
func (c *Communicator) QueueSize() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.QueueSize()
}

// SetQueueSize resizes both queues. See Engine.SetQueueSize.
func (c *Communicator) SetQueueSize(n uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.SetQueueSize(n)
}

// ReceiptTimeout returns the current receipt timeout.
func (c *Communicator) ReceiptTimeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.ReceiptTimeout()
}

// SetReceiptTimeout updates the receipt timeout.
func (c *Communicator) SetReceiptTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.SetReceiptTimeout(d)
}

// MaxTransmissions returns the current maximum transmission count.
func (c *Communicator) MaxTransmissions() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.MaxTransmissions()
}

// SetMaxTransmissions updates the maximum transmission count.
func (c *Communicator) SetMaxTransmissions(n uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.SetMaxTransmissions(n)
}

// clockOrNow returns opts.Clock() whenever a Clock is set (time.Now by
// default, or the function given to WithClock, e.g. by tests pairing a
// manualTicker with a fixed clock); only a nil Clock makes it return
// tickTime unchanged.
func (o *Options) clockOrNow(tickTime time.Time) time.Time {
	if o.Clock != nil {
		return o.Clock()
	}
	return tickTime
}
