// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import (
	"encoding/binary"
	"time"
)

// headerFieldsLen is the number of raw bytes needed to know a frame's
// total length: header(1) + sequence(4) + receipt-type(1) + id(2) +
// priority(1) + data_length(2).
const headerFieldsLen = 11

// Dispatcher implements the receive side of the protocol: Feed is the
// byte-arrival handler (never blocks, undoes the escape transform at
// buffer-fill time); SpinRX is the tick-driven frame parser (header
// resync, length check, checksum, receipt-type dispatch, RX enqueue).
type Dispatcher struct {
	buf        []byte
	escapeNext bool

	rxQueue   *slotQueue[*Inbound]
	scheduler *Scheduler
	transmit  transmitFunc
	metrics   *Collector
	logger    Logger
}

func newDispatcher(rxQueue *slotQueue[*Inbound], scheduler *Scheduler, transmit transmitFunc, metrics *Collector, logger Logger) *Dispatcher {
	return &Dispatcher{
		rxQueue:   rxQueue,
		scheduler: scheduler,
		transmit:  transmit,
		metrics:   metrics,
		logger:    logger,
	}
}

// Feed consumes newly arrived raw bytes, undoing the escape transform byte
// by byte and appending the result to the internal buffer. It must never
// block: it performs no I/O and no parsing, only buffering. This keeps the
// buffer always holding unescaped frame bytes, so SpinRX's length
// arithmetic never has to account for escapes.
func (d *Dispatcher) Feed(b []byte) {
	for _, c := range b {
		if c == EscapeByte {
			d.escapeNext = true
			continue
		}
		// Any byte after an escape is incremented, not only the two
		// values escapeFrame produces; an escape followed by an unrelated
		// byte is passed through plus one rather than rejected.
		if d.escapeNext {
			d.buf = append(d.buf, c+1)
		} else {
			d.buf = append(d.buf, c)
		}
		d.escapeNext = false
	}
}

// Buffered returns the number of unescaped bytes currently waiting to be
// parsed. Mostly useful for tests and instrumentation.
func (d *Dispatcher) Buffered() int { return len(d.buf) }

// SpinRX performs at most one frame's worth of work per call: resync to
// the next header byte, wait for enough bytes, validate the checksum,
// dispatch by receipt-type, and enqueue into RX when appropriate. Returns
// whether a frame was fully processed this call.
func (d *Dispatcher) SpinRX(now time.Time) bool {
	d.resync()

	if len(d.buf) < headerFieldsLen {
		return false
	}
	dataLength := int(binary.BigEndian.Uint16(d.buf[9:11]))
	packetLength := rawFrameLen(dataLength)
	if len(d.buf) < packetLength {
		return false
	}

	frame := make([]byte, packetLength)
	copy(frame, d.buf[:packetLength])
	d.consume(packetLength)

	decoded, err := decodeRawFrame(frame)
	if err != nil {
		// Malformed even though the length field looked plausible; drop
		// and let the next resync find the next candidate header.
		return true
	}

	switch decoded.ReceiptType {
	case ReceiptNotRequired:
		if decoded.ChecksumOK {
			d.enqueueRX(decoded.SequenceNumber, decoded.Message)
		} else if d.logger != nil {
			d.logger.Debugf("comlink: dropping NOT_REQUIRED frame seq=%d, checksum mismatch", decoded.SequenceNumber)
		}

	case ReceiptRequired:
		rt := ReceiptReceived
		if !decoded.ChecksumOK {
			rt = ReceiptChecksumMismatch
		}
		d.transmit(encodeReceiptFrame(decoded.SequenceNumber, decoded.Message.ID(), decoded.Message.Priority(), rt))
		if decoded.ChecksumOK {
			d.enqueueRX(decoded.SequenceNumber, decoded.Message)
		}

	case ReceiptReceived, ReceiptChecksumMismatch:
		if decoded.ChecksumOK {
			d.scheduler.HandleReceipt(now, decoded.ReceiptType, decoded.SequenceNumber)
		}
	}

	return true
}

// resync pops leading bytes until the buffer is empty or starts with the
// header byte. A corrupted frame causes this loop to skip bytes on the
// next call until it finds another header candidate; false positives are
// self-correcting (they either fail checksum or stall waiting for bytes
// that never arrive).
func (d *Dispatcher) resync() {
	i := 0
	for i < len(d.buf) && d.buf[i] != HeaderByte {
		i++
	}
	if i > 0 && d.logger != nil {
		d.logger.Debugf("comlink: resync skipped %d byte(s) searching for header", i)
	}
	d.consume(i)
}

// consume drops the first n bytes of the buffer.
func (d *Dispatcher) consume(n int) {
	d.buf = d.buf[n:]
	if len(d.buf) == 0 {
		d.buf = d.buf[:0]
	}
}

// enqueueRX places msg into the first empty RX slot. A full RX queue drops
// the message silently, per spec.md §4.D ("bounded memory wins").
func (d *Dispatcher) enqueueRX(seq uint32, msg *Message) {
	if !d.rxQueue.Insert(newInbound(msg, seq)) {
		if d.metrics != nil {
			d.metrics.rxDropped.Inc()
		}
		if d.logger != nil {
			d.logger.Warnf("comlink: rx queue full, dropping message id=%d seq=%d", msg.ID(), seq)
		}
	}
}
