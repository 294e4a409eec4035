// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import "encoding/binary"

// Wire-level constants. The header byte doubles as the resynchronization
// marker: after corruption, a receiver scans for the next occurrence of it.
const (
	HeaderByte byte = 0xAA
	EscapeByte byte = 0x1B
)

// frameFixedLen is the number of raw (pre-escape) bytes in a frame besides
// the message body: 1 header + 4 sequence + 1 receipt-type + 1 checksum.
const frameFixedLen = 7

// minFrameLen is the smallest possible raw frame: a zero-length message
// body (5-byte header, no data) plus frameFixedLen.
const minFrameLen = frameFixedLen + messageHeaderLen

// ReceiptType classifies a frame as a plain message or a receipt.
type ReceiptType uint8

const (
	// ReceiptNotRequired marks a fire-and-forget transmission.
	ReceiptNotRequired ReceiptType = 0
	// ReceiptRequired marks a transmission the receiver must acknowledge.
	ReceiptRequired ReceiptType = 1
	// ReceiptReceived is a positive receipt.
	ReceiptReceived ReceiptType = 2
	// ReceiptChecksumMismatch is a negative receipt.
	ReceiptChecksumMismatch ReceiptType = 3
)

// checksum is the single-byte XOR over b, used over all raw bytes of a
// frame preceding the checksum byte itself (header inclusive).
func checksum(b []byte) byte {
	var c byte
	for _, x := range b {
		c ^= x
	}
	return c
}

// rawFrameLen returns the pre-escape length of a frame carrying a message
// with the given data length.
func rawFrameLen(dataLength int) int {
	return frameFixedLen + messageHeaderLen + dataLength
}

// buildRawFrame writes header, sequence, receipt-type, serialized message
// body, and checksum into a freshly allocated raw (unescaped) frame.
func buildRawFrame(seq uint32, rt ReceiptType, msg *Message) []byte {
	n := rawFrameLen(len(msg.Data()))
	raw := make([]byte, n)
	raw[0] = HeaderByte
	binary.BigEndian.PutUint32(raw[1:5], seq)
	raw[5] = byte(rt)
	msg.Serialize(raw[6 : n-1])
	raw[n-1] = checksum(raw[:n-1])
	return raw
}

// escapeFrame returns the wire-ready bytes for raw: the header byte (raw[0])
// is copied verbatim, since it is the sync marker and must stay
// unambiguous; every occurrence of HeaderByte or EscapeByte afterward is
// replaced by the two-byte sequence EscapeByte, raw-1.
func escapeFrame(raw []byte) []byte {
	n := 0
	for _, b := range raw[1:] {
		if b == HeaderByte || b == EscapeByte {
			n++
		}
	}
	if n == 0 {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out
	}
	out := make([]byte, 0, len(raw)+n)
	out = append(out, raw[0])
	for _, b := range raw[1:] {
		if b == HeaderByte || b == EscapeByte {
			out = append(out, EscapeByte, b-1)
		} else {
			out = append(out, b)
		}
	}
	return out
}

// EncodeFrame builds the full wire representation (escaped, checksummed) of
// a message frame with the given sequence number and receipt-type.
func EncodeFrame(seq uint32, rt ReceiptType, msg *Message) []byte {
	return escapeFrame(buildRawFrame(seq, rt, msg))
}

// encodeReceiptFrame builds the wire representation of a zero-data receipt
// frame echoing seq, id, and priority. A receipt is encoded exactly like a
// message frame whose body carries no data.
func encodeReceiptFrame(seq uint32, id uint16, priority uint8, rt ReceiptType) []byte {
	m := NewMessage(id)
	m.SetPriority(priority)
	return EncodeFrame(seq, rt, m)
}

// DecodedFrame is the result of parsing one complete, unescaped raw frame.
type DecodedFrame struct {
	SequenceNumber uint32
	ReceiptType    ReceiptType
	Message        *Message
	ChecksumOK     bool
}

// decodeRawFrame parses a complete, unescaped frame (exactly rawFrameLen(N)
// bytes, as produced by the dispatcher's header/length scan). It does not
// validate the checksum's *effect* on acceptance — callers decide what to
// do with ChecksumOK — but it always computes it, since every downstream
// consumer needs the value.
func decodeRawFrame(raw []byte) (DecodedFrame, error) {
	if len(raw) < minFrameLen {
		return DecodedFrame{}, ErrTruncatedMessage
	}
	seq := binary.BigEndian.Uint32(raw[1:5])
	rt := ReceiptType(raw[5])
	msg, err := NewMessageFromBytes(raw[6 : len(raw)-1])
	if err != nil {
		return DecodedFrame{}, err
	}
	want := checksum(raw[:len(raw)-1])
	got := raw[len(raw)-1]
	return DecodedFrame{
		SequenceNumber: seq,
		ReceiptType:    rt,
		Message:        msg,
		ChecksumOK:     want == got,
	}, nil
}

// unescapeAll reverses escapeFrame over a complete, non-fragmented escaped
// buffer, interpreting in[0] as the already-unescaped header byte. It is
// the one-shot counterpart to Dispatcher.Feed's stateful per-byte
// transform, useful for direct encode/decode round-trip tests that don't
// need to model partial delivery.
func unescapeAll(in []byte) []byte {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, 0, len(in))
	out = append(out, in[0])
	escapeNext := false
	for _, b := range in[1:] {
		if b == EscapeByte {
			escapeNext = true
			continue
		}
		if escapeNext {
			out = append(out, b+1)
		} else {
			out = append(out, b)
		}
		escapeNext = false
	}
	return out
}
