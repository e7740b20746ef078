// SPDX-License-Identifier: Apache-2.0

package memlifo

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrOutOfMemory indicates that a chunk could not be acquired, either
	// because the provider failed or because the configured byte limit
	// would be exceeded.
	ErrOutOfMemory = errors.New("memlifo: out of memory")

	// ErrFrameOrder indicates that a frame other than the topmost open frame
	// was popped or allocated from. This is a programming error.
	ErrFrameOrder = errors.New("memlifo: frame is not the topmost open frame")

	// ErrInvalidRequest indicates a zero, negative or overflowing size or alignment.
	ErrInvalidRequest = errors.New("memlifo: invalid request")

	// ErrReleased indicates use of a stack after Release.
	ErrReleased = errors.New("memlifo: stack released")

	// ErrFramesOpen indicates that a stack was handed back to a Pool with open frames.
	ErrFramesOpen = errors.New("memlifo: stack has open frames")

	// ErrPooled indicates that a PoolItem was released while the pool already held it.
	ErrPooled = errors.New("memlifo: item already returned to pool")

	// ErrTooManyAttempts indicates that Fill gave up after the configured
	// number of short-buffer retries.
	ErrTooManyAttempts = errors.New("memlifo: too many fill attempts")
)

// ShortBufferError is returned by a Fill producer when the buffer it was
// given is too small. Need is the size the producer requires, or 0 if it
// does not know.
type ShortBufferError struct {
	Need int
}

func (e *ShortBufferError) Error() string {
	if e.Need <= 0 {
		return "memlifo: short buffer"
	}
	return fmt.Sprintf("memlifo: short buffer, need %d bytes", e.Need)
}

// Is lets errors.Is match a ShortBufferError against io.ErrShortBuffer.
func (e *ShortBufferError) Is(target error) bool {
	return target == io.ErrShortBuffer
}
