// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import (
	"encoding/binary"
	"fmt"
	"math"
)

// WildcardID is the reserved message id accepted by Receive to mean "any
// id". It is only meaningful at this API boundary; the wire format carries
// 0xFFFF like any other id.
const WildcardID uint16 = 0xFFFF

// messageHeaderLen is the size in bytes of the id+priority+data_length
// header that precedes a Message's data in its serialized form.
const messageHeaderLen = 5

// Message is the application-visible payload carried by a frame. Fields are
// id (16-bit), priority (8-bit, higher is more urgent), and an opaque data
// blob accessed through typed, big-endian field accessors.
type Message struct {
	id       uint16
	priority uint8
	data     []byte
}

// NewMessage creates an empty message with no data fields. Priority starts
// at zero; use SetPriority to change it.
func NewMessage(id uint16) *Message {
	return &Message{id: id}
}

// NewMessageWithData creates a message with a zero-initialized data buffer
// of dataLength bytes. Priority starts at zero.
func NewMessageWithData(id uint16, dataLength uint16) *Message {
	return &Message{id: id, data: make([]byte, dataLength)}
}

// NewMessageFromBytes deserializes a message body (id, priority,
// data_length, data — see SPEC_FULL.md §4.A) from b. Priority is restored
// from the wire byte, unlike the other two constructors. Returns
// ErrTruncatedMessage if b is shorter than its own declared length.
func NewMessageFromBytes(b []byte) (*Message, error) {
	if len(b) < messageHeaderLen {
		return nil, ErrTruncatedMessage
	}
	dataLength := binary.BigEndian.Uint16(b[3:5])
	if len(b) < messageHeaderLen+int(dataLength) {
		return nil, ErrTruncatedMessage
	}
	m := &Message{
		id:       binary.BigEndian.Uint16(b[0:2]),
		priority: b[2],
		data:     make([]byte, dataLength),
	}
	copy(m.data, b[messageHeaderLen:messageHeaderLen+int(dataLength)])
	return m, nil
}

// ID returns the message's id.
func (m *Message) ID() uint16 { return m.id }

// Priority returns the message's priority. Higher values are more urgent.
func (m *Message) Priority() uint8 { return m.priority }

// SetPriority sets the message's priority.
func (m *Message) SetPriority(p uint8) { m.priority = p }

// DataLength returns the length of the data buffer in bytes.
func (m *Message) DataLength() uint16 { return uint16(len(m.data)) }

// MessageLength returns the serialized body length: data length plus the
// 5-byte header.
func (m *Message) MessageLength() uint32 { return uint32(len(m.data)) + messageHeaderLen }

// Data returns the message's raw data buffer. The slice aliases the
// message's internal storage; callers that need an independent copy should
// clone it.
func (m *Message) Data() []byte { return m.data }

// Serialize writes the wire body (id, priority, data_length, data) into b,
// which must have at least MessageLength() bytes.
func (m *Message) Serialize(b []byte) {
	binary.BigEndian.PutUint16(b[0:2], m.id)
	b[2] = m.priority
	binary.BigEndian.PutUint16(b[3:5], uint16(len(m.data)))
	copy(b[messageHeaderLen:], m.data)
}

// fieldBounds panics with ErrFieldOutOfRange if [address, address+size) is
// not fully contained in the data buffer. An out-of-range offset is a
// caller bug under the protocol; Go slices make memory corruption
// impossible, so the idiomatic stand-in for "must fail explicitly" is a
// panic instead of silent truncation.
func (m *Message) fieldBounds(address uint16, size int) {
	if int(address)+size > len(m.data) {
		panic(fmt.Errorf("%w: address=%d size=%d data_length=%d", ErrFieldOutOfRange, address, size, len(m.data)))
	}
}

// SetUint8 stores an 8-bit unsigned integer at address.
func (m *Message) SetUint8(address uint16, v uint8) {
	m.fieldBounds(address, 1)
	m.data[address] = v
}

// Uint8 reads an 8-bit unsigned integer from address.
func (m *Message) Uint8(address uint16) uint8 {
	m.fieldBounds(address, 1)
	return m.data[address]
}

// SetInt8 stores an 8-bit signed integer at address.
func (m *Message) SetInt8(address uint16, v int8) { m.SetUint8(address, uint8(v)) }

// Int8 reads an 8-bit signed integer from address.
func (m *Message) Int8(address uint16) int8 { return int8(m.Uint8(address)) }

// SetUint16 stores a big-endian 16-bit unsigned integer at address.
func (m *Message) SetUint16(address uint16, v uint16) {
	m.fieldBounds(address, 2)
	binary.BigEndian.PutUint16(m.data[address:], v)
}

// Uint16 reads a big-endian 16-bit unsigned integer from address.
func (m *Message) Uint16(address uint16) uint16 {
	m.fieldBounds(address, 2)
	return binary.BigEndian.Uint16(m.data[address:])
}

// SetInt16 stores a big-endian 16-bit signed integer at address.
func (m *Message) SetInt16(address uint16, v int16) { m.SetUint16(address, uint16(v)) }

// Int16 reads a big-endian 16-bit signed integer from address.
func (m *Message) Int16(address uint16) int16 { return int16(m.Uint16(address)) }

// SetUint32 stores a big-endian 32-bit unsigned integer at address.
func (m *Message) SetUint32(address uint16, v uint32) {
	m.fieldBounds(address, 4)
	binary.BigEndian.PutUint32(m.data[address:], v)
}

// Uint32 reads a big-endian 32-bit unsigned integer from address.
func (m *Message) Uint32(address uint16) uint32 {
	m.fieldBounds(address, 4)
	return binary.BigEndian.Uint32(m.data[address:])
}

// SetInt32 stores a big-endian 32-bit signed integer at address.
func (m *Message) SetInt32(address uint16, v int32) { m.SetUint32(address, uint32(v)) }

// Int32 reads a big-endian 32-bit signed integer from address.
func (m *Message) Int32(address uint16) int32 { return int32(m.Uint32(address)) }

// SetUint64 stores a big-endian 64-bit unsigned integer at address.
func (m *Message) SetUint64(address uint16, v uint64) {
	m.fieldBounds(address, 8)
	binary.BigEndian.PutUint64(m.data[address:], v)
}

// Uint64 reads a big-endian 64-bit unsigned integer from address.
func (m *Message) Uint64(address uint16) uint64 {
	m.fieldBounds(address, 8)
	return binary.BigEndian.Uint64(m.data[address:])
}

// SetInt64 stores a big-endian 64-bit signed integer at address.
func (m *Message) SetInt64(address uint16, v int64) { m.SetUint64(address, uint64(v)) }

// Int64 reads a big-endian 64-bit signed integer from address.
func (m *Message) Int64(address uint16) int64 { return int64(m.Uint64(address)) }

// SetFloat32 stores a big-endian IEEE-754 single-precision float at address.
func (m *Message) SetFloat32(address uint16, v float32) {
	m.SetUint32(address, math.Float32bits(v))
}

// Float32 reads a big-endian IEEE-754 single-precision float from address.
func (m *Message) Float32(address uint16) float32 {
	return math.Float32frombits(m.Uint32(address))
}

// SetFloat64 stores a big-endian IEEE-754 double-precision float at address.
func (m *Message) SetFloat64(address uint16, v float64) {
	m.SetUint64(address, math.Float64bits(v))
}

// Float64 reads a big-endian IEEE-754 double-precision float from address.
func (m *Message) Float64(address uint16) float64 {
	return math.Float64frombits(m.Uint64(address))
}
