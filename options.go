// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import "time"

// Options configures an Engine/Communicator. See defaultOptions for the
// values spec.md §6 calls out by name.
type Options struct {
	QueueSize        uint16
	ReceiptTimeout   time.Duration
	MaxTransmissions uint8
	TickInterval     time.Duration
	Clock            func() time.Time
	Logger           Logger
	Metrics          *Collector

	// RetryDelay controls how a Communicator's device-read loop handles
	// ErrWouldBlock from the Device:
	//   - negative: wait one millisecond and retry
	//   - zero: yield (runtime.Gosched) and retry immediately
	//   - positive: sleep for the duration and retry
	// Mirrors the retry policy this corpus's framing library already
	// defines for the same control-flow signal.
	RetryDelay time.Duration
}

var defaultOptions = Options{
	QueueSize:        10,
	ReceiptTimeout:   100 * time.Millisecond,
	MaxTransmissions: 5,
	TickInterval:     20 * time.Millisecond,
	Clock:            time.Now,
	Logger:           nopLogger{},
	Metrics:          nil,
	RetryDelay:       0,
}

// Option configures Options. The shape mirrors the functional-options
// pattern used throughout this corpus's framing library (framer.Option).
type Option func(*Options)

// WithQueueSize sets the initial TX/RX queue capacity (default 10).
func WithQueueSize(n uint16) Option {
	return func(o *Options) { o.QueueSize = n }
}

// WithReceiptTimeout sets how long a VERIFYING entry waits for a receipt
// before becoming eligible for retransmission (default 100ms).
func WithReceiptTimeout(d time.Duration) Option {
	return func(o *Options) { o.ReceiptTimeout = d }
}

// WithMaxTransmissions sets the maximum number of transmission attempts
// (including the first) before an entry gives up (default 5).
func WithMaxTransmissions(n uint8) Option {
	return func(o *Options) { o.MaxTransmissions = n }
}

// WithTickInterval sets the Communicator's default internal Ticker period
// (default 20ms). Ignored if an explicit Ticker is supplied to Start.
func WithTickInterval(d time.Duration) Option {
	return func(o *Options) { o.TickInterval = d }
}

// WithClock overrides the time source used for timestamps and timeout
// comparisons. Intended for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) { o.Clock = clock }
}

// WithLogger attaches a structured logger. The default is a no-op: logging
// is an ambient, optional concern, never a required collaborator.
func WithLogger(l Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMetrics attaches a Collector (see metrics.go) that the Scheduler and
// Dispatcher update as they process traffic. The default is nil: metrics
// collection is opt-in.
func WithMetrics(c *Collector) Option {
	return func(o *Options) { o.Metrics = c }
}

// WithRetryDelay sets the Communicator read-loop retry policy used when the
// Device returns ErrWouldBlock.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.RetryDelay = d }
}
