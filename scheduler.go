// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import "time"

// transmitFunc is how the Scheduler asks its owner to put encoded bytes on
// the wire. Engine supplies this; tests can supply a recording stub.
type transmitFunc func(frame []byte)

// Scheduler implements the transmit side of the protocol: spin_tx's
// priority/age selection and first-send/retransmit/give-up state machine,
// plus inbound receipt handling. It holds no I/O state of its own; it
// drives the TX queue and calls out to transmitFunc.
type Scheduler struct {
	queue            *slotQueue[*Outbound]
	receiptTimeout   time.Duration
	maxTransmissions uint8
	transmit         transmitFunc
	metrics          *Collector
	logger           Logger
}

func newScheduler(queue *slotQueue[*Outbound], receiptTimeout time.Duration, maxTransmissions uint8, transmit transmitFunc, metrics *Collector, logger Logger) *Scheduler {
	return &Scheduler{
		queue:            queue,
		receiptTimeout:   receiptTimeout,
		maxTransmissions: maxTransmissions,
		transmit:         transmit,
		metrics:          metrics,
		logger:           logger,
	}
}

// eligible reports whether o may be considered for transmission this tick:
// anything not currently VERIFYING, or a VERIFYING entry whose receipt
// timeout has elapsed.
func (s *Scheduler) eligible(now time.Time) func(*Outbound) bool {
	return func(o *Outbound) bool {
		if o.Status() == StatusVerifying && !o.timeoutElapsed(now, s.receiptTimeout) {
			return false
		}
		return true
	}
}

// SpinTX performs exactly one TX action per call, per spec: select the
// highest-priority (then oldest) eligible entry and either first-send it,
// retransmit it, or give up on it. Returns whether any action was taken.
func (s *Scheduler) SpinTX(now time.Time) bool {
	idx, o, found := s.queue.SelectBest(s.eligible(now))
	if !found {
		return false
	}

	if o.NTransmissions == 0 {
		s.transmitOnce(o, now)
		if o.ReceiptRequired {
			o.writeStatus(StatusVerifying)
		} else {
			o.writeStatus(StatusSent)
			s.queue.Remove(idx)
		}
		return true
	}

	if o.canRetransmit(s.maxTransmissions) {
		s.transmitOnce(o, now)
		return true
	}

	o.writeStatus(StatusNotReceived)
	s.queue.Remove(idx)
	if s.metrics != nil {
		s.metrics.giveUps.Inc()
	}
	if s.logger != nil {
		s.logger.Warnf("comlink: giving up on sequence %d after %d transmissions", o.SequenceNumber, o.NTransmissions)
	}
	return true
}

// transmitOnce encodes and writes o's frame, then records the attempt.
func (s *Scheduler) transmitOnce(o *Outbound, now time.Time) {
	rt := ReceiptNotRequired
	if o.ReceiptRequired {
		rt = ReceiptRequired
	}
	s.transmit(EncodeFrame(o.SequenceNumber, rt, o.Message))
	o.markTransmitted(now)
	if s.metrics != nil {
		if o.NTransmissions > 1 {
			s.metrics.framesRetransmitted.Inc()
		}
		s.metrics.framesTransmitted.Inc()
	}
}

// HandleReceipt processes an inbound receipt frame (ReceiptReceived or
// ReceiptChecksumMismatch) against the TX queue. Frames with an invalid
// checksum on the receipt itself must never reach here — the dispatcher
// only calls this for ChecksumOK frames, matching spec.md §4.D's "Only
// receipts with a valid checksum are acted upon."
func (s *Scheduler) HandleReceipt(now time.Time, rt ReceiptType, sequenceNumber uint32) {
	idx, o, found := s.queue.SelectBest(func(o *Outbound) bool {
		return o.SequenceNumber == sequenceNumber
	})
	if !found {
		// Duplicate receipt after earlier success or give-up, or a receipt
		// for a sequence number this engine never sent. Idempotent no-op.
		return
	}

	switch rt {
	case ReceiptReceived:
		o.writeStatus(StatusReceived)
		s.queue.Remove(idx)
		if s.metrics != nil {
			s.metrics.receiptsReceived.Inc()
		}
	case ReceiptChecksumMismatch:
		if s.metrics != nil {
			s.metrics.receiptsMismatch.Inc()
		}
		if o.canRetransmit(s.maxTransmissions) {
			s.transmitOnce(o, now)
			if s.logger != nil {
				s.logger.Debugf("comlink: negative receipt for sequence %d, retransmitting immediately", sequenceNumber)
			}
			return
		}
		o.writeStatus(StatusNotReceived)
		s.queue.Remove(idx)
		if s.metrics != nil {
			s.metrics.giveUps.Inc()
		}
	}
}
