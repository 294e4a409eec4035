// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import (
	"time"
)

// Engine is the single-threaded cooperative core of the protocol: it owns
// the TX and RX queues, the Scheduler, and the Dispatcher, and exposes the
// original communicator's public surface (send, messages_available,
// receive, queue-size/timeout/max-transmissions get-set) without any
// locking of its own. Communicator adds the concurrency-safe wrapper around
// exactly this type.
type Engine struct {
	opts Options

	txQueue *slotQueue[*Outbound]
	rxQueue *slotQueue[*Inbound]

	scheduler  *Scheduler
	dispatcher *Dispatcher

	sequenceCounter uint32

	transmit transmitFunc
}

// NewEngine constructs an Engine that writes outgoing frames via transmit
// (typically Device.Write, wrapped by Communicator) and applies opts on top
// of defaultOptions.
func NewEngine(transmit func(frame []byte), opts ...Option) *Engine {
	o := defaultOptions
	for _, apply := range opts {
		apply(&o)
	}

	e := &Engine{opts: o, transmit: transmit}
	e.txQueue = newSlotQueue[*Outbound](int(o.QueueSize))
	e.rxQueue = newSlotQueue[*Inbound](int(o.QueueSize))
	e.scheduler = newScheduler(e.txQueue, o.ReceiptTimeout, o.MaxTransmissions, transmit, o.Metrics, o.Logger)
	e.dispatcher = newDispatcher(e.rxQueue, e.scheduler, transmit, o.Metrics, o.Logger)
	return e
}

// Send enqueues msg for transmission. If tracker is non-nil, Send writes
// StatusQueued into it immediately and the Scheduler keeps it updated as the
// entry's status changes. If the TX queue is full, Send returns (false, msg)
// so the caller regains ownership of the rejected message instead of it
// being silently discarded, resolving the "what happens to a message that
// cannot be queued" open question in favor of giving the caller a choice.
func (e *Engine) Send(msg *Message, receiptRequired bool, tracker *Status) (bool, *Message) {
	seq := e.sequenceCounter
	e.sequenceCounter++

	o := newOutbound(msg, seq, receiptRequired, tracker)
	if !e.txQueue.Insert(o) {
		return false, msg
	}
	e.reportDepths()
	return true, nil
}

// MessagesAvailable returns the number of RX entries waiting to be consumed
// by Receive.
func (e *Engine) MessagesAvailable() int {
	return e.rxQueue.Len()
}

// Receive returns the highest-priority, oldest message in the RX queue
// matching id (or any message if id is WildcardID or omitted), removing it
// from the queue. found is false if nothing matched.
func (e *Engine) Receive(id ...uint16) (msg *Message, found bool) {
	want := WildcardID
	if len(id) > 0 {
		want = id[0]
	}
	idx, entry, ok := e.rxQueue.SelectBest(func(in *Inbound) bool {
		return want == WildcardID || in.Message.ID() == want
	})
	if !ok {
		return nil, false
	}
	e.rxQueue.Remove(idx)
	e.reportDepths()
	return entry.Message, true
}

// QueueSize returns the current TX/RX queue capacity (the two queues are
// always resized together).
func (e *Engine) QueueSize() uint16 {
	return uint16(e.txQueue.Capacity())
}

// SetQueueSize resizes both the TX and RX queues to n slots. Shrinking below
// either queue's current occupancy fails and leaves both queues unchanged.
func (e *Engine) SetQueueSize(n uint16) error {
	if err := e.txQueue.Resize(int(n)); err != nil {
		return err
	}
	if err := e.rxQueue.Resize(int(n)); err != nil {
		// Restore symmetry: undo the TX resize since RX rejected it.
		_ = e.txQueue.Resize(e.rxQueue.Capacity())
		return err
	}
	return nil
}

// ReceiptTimeout returns how long a VERIFYING entry waits for a receipt
// before becoming eligible for retransmission.
func (e *Engine) ReceiptTimeout() time.Duration { return e.scheduler.receiptTimeout }

// SetReceiptTimeout updates the receipt timeout.
func (e *Engine) SetReceiptTimeout(d time.Duration) { e.scheduler.receiptTimeout = d }

// MaxTransmissions returns the maximum number of transmission attempts
// before an entry gives up.
func (e *Engine) MaxTransmissions() uint8 { return e.scheduler.maxTransmissions }

// SetMaxTransmissions updates the maximum transmission count.
func (e *Engine) SetMaxTransmissions(n uint8) { e.scheduler.maxTransmissions = n }

// Feed hands newly arrived raw bytes to the Dispatcher's escape decoder. It
// never blocks and performs no parsing; call Tick to advance parsing and
// scheduling.
func (e *Engine) Feed(b []byte) {
	e.dispatcher.Feed(b)
}

// Tick drives exactly one scheduling step and one dispatch step, mirroring
// the original's timer() calling spin_tx() then spin_rx() on every timer
// tick. now is the caller's clock sample; Communicator supplies opts.Clock().
func (e *Engine) Tick(now time.Time) {
	e.scheduler.SpinTX(now)
	e.dispatcher.SpinRX(now)
	e.reportDepths()
}

// reportDepths pushes current queue occupancy into the Collector, if one is
// configured.
func (e *Engine) reportDepths() {
	if e.opts.Metrics == nil {
		return
	}
	e.opts.Metrics.setTXDepth(e.txQueue.Len())
	e.opts.Metrics.setRXDepth(e.rxQueue.Len())
}
