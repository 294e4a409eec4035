// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import (
	"errors"

	"code.hybscloud.com/iox"
)

var (
	// ErrQueueFull names the condition of a Send rejected because no empty
	// TX slot was available. Send itself reports that condition as
	// (false, msg), handing the message back; it never returns this error.
	ErrQueueFull = errors.New("comlink: tx queue full")

	// ErrFieldOutOfRange reports that a typed field accessor addressed
	// bytes outside a Message's data buffer. Wrapped into a panic rather
	// than returned, since an out-of-range offset is a caller bug per spec.
	ErrFieldOutOfRange = errors.New("comlink: field address out of range")

	// ErrShrinkBelowOccupancy reports that Resize was asked to shrink a
	// queue below its current occupied-slot count.
	ErrShrinkBelowOccupancy = errors.New("comlink: cannot shrink queue below current occupancy")

	// ErrTruncatedMessage reports that NewMessageFromBytes was given fewer
	// bytes than its own header declares.
	ErrTruncatedMessage = errors.New("comlink: truncated message bytes")

	// ErrInvalidArgument reports an argument outside its valid range, such
	// as a negative capacity passed to a queue's Resize.
	ErrInvalidArgument = errors.New("comlink: invalid argument")

	// ErrClosed reports an operation on a Communicator that has already
	// been stopped.
	ErrClosed = errors.New("comlink: communicator closed")
)

// These are re-exported so callers driving a Device directly can recognize
// the same non-blocking control-flow signals the framer package in this
// corpus already defines, without importing iox themselves.
var (
	// ErrWouldBlock means "no further progress without waiting". It is an
	// expected, non-failure control-flow signal from a non-blocking Device.
	ErrWouldBlock = iox.ErrWouldBlock

	// ErrMore means a partial result is usable and more will follow on a
	// subsequent call to the same operation.
	ErrMore = iox.ErrMore
)
