// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import "time"

// Status is the lifecycle state of an outbound message. QUEUED, VERIFYING,
// SENT, RECEIVED, and NOTRECEIVED map 1:1 onto the protocol's status enum;
// Sent, Received, and NotReceived are terminal.
type Status int32

const (
	// StatusQueued is the initial state: accepted by Send, not yet
	// transmitted.
	StatusQueued Status = iota
	// StatusVerifying means the message has been sent at least once and a
	// receipt is required and has not yet arrived.
	StatusVerifying
	// StatusSent is terminal: sent once, no receipt required.
	StatusSent
	// StatusReceived is terminal: a matching positive receipt arrived.
	StatusReceived
	// StatusNotReceived is terminal: max transmissions were exhausted
	// without a receipt.
	StatusNotReceived
)

// String renders the status for logging.
func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "QUEUED"
	case StatusVerifying:
		return "VERIFYING"
	case StatusSent:
		return "SENT"
	case StatusReceived:
		return "RECEIVED"
	case StatusNotReceived:
		return "NOTRECEIVED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is one of the three states an Outbound entry
// never transitions out of.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusReceived || s == StatusNotReceived
}

// Outbound is a TX slot's metadata: the owned Message plus everything the
// Scheduler needs to decide when (and whether) to transmit or retransmit
// it. Tracker is a back-reference into an application-owned cell — the
// Scheduler writes into it on every status change but never allocates or
// frees it, mirroring the original's message_status* pointer semantics.
type Outbound struct {
	Message          *Message
	SequenceNumber   uint32
	ReceiptRequired  bool
	NTransmissions   uint8
	LastTxTimestamp  time.Time
	Tracker          *Status
	status           Status
}

// newOutbound constructs a QUEUED outbound entry for msg. If tracker is
// non-nil it is updated immediately to StatusQueued, matching "once placed
// in the queue, the message's status is set to QUEUED."
func newOutbound(msg *Message, seq uint32, receiptRequired bool, tracker *Status) *Outbound {
	o := &Outbound{
		Message:         msg,
		SequenceNumber:  seq,
		ReceiptRequired: receiptRequired,
		Tracker:         tracker,
		status:          StatusQueued,
	}
	o.writeStatus(StatusQueued)
	return o
}

// Status returns the entry's current status.
func (o *Outbound) Status() Status { return o.status }

// writeStatus updates the entry's status and, if a tracker was supplied,
// mirrors the value into the caller-owned cell.
func (o *Outbound) writeStatus(s Status) {
	o.status = s
	if o.Tracker != nil {
		*o.Tracker = s
	}
}

// timeoutElapsed reports whether at least d has passed since the entry was
// last transmitted, as of now.
func (o *Outbound) timeoutElapsed(now time.Time, d time.Duration) bool {
	return now.Sub(o.LastTxTimestamp) >= d
}

// canRetransmit reports whether another transmission attempt is allowed
// given maxTransmissions.
func (o *Outbound) canRetransmit(maxTransmissions uint8) bool {
	return o.NTransmissions < maxTransmissions
}

// markTransmitted records a transmission attempt at now.
func (o *Outbound) markTransmitted(now time.Time) {
	o.LastTxTimestamp = now
	o.NTransmissions++
}

// Inbound is an RX slot's metadata: the owned Message plus the sequence
// number it arrived with on the wire.
type Inbound struct {
	Message        *Message
	SequenceNumber uint32
}

func newInbound(msg *Message, seq uint32) *Inbound {
	return &Inbound{Message: msg, SequenceNumber: seq}
}

// priority and seqNum satisfy the slotEntry constraint used by slotQueue's
// generic priority/age selection (queue.go), so the same dense-scan
// selection logic serves both the TX and RX directions instead of being
// written out twice as in the original.

func (o *Outbound) priority() uint8  { return o.Message.Priority() }
func (o *Outbound) seqNum() uint32   { return o.SequenceNumber }
func (in *Inbound) priority() uint8 { return in.Message.Priority() }
func (in *Inbound) seqNum() uint32  { return in.SequenceNumber }
