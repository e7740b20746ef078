// SPDX-License-Identifier: Apache-2.0

// Package memlifo implements a frame-stack arena allocator.
//
// A Stack hands out memory in nested frames. Push reserves a region for a
// new frame, Alloc adds regions to the topmost frame and Pop discards every
// region of a frame at once by rewinding a cursor. Memory comes from large
// chunks obtained from a Provider and is never moved while a frame that
// references it is still open.
//
// The typical caller is a wrapper around an operating system call that fills
// a variable-length buffer: push a frame sized by a guess, call the OS, and if
// the buffer was too small pop and push again with the reported size. Fill
// implements that loop.
//
// Memory handed out by a Stack is not scanned by the garbage collector. Only
// store pointer-free data in it.
package memlifo

import (
	"fmt"
	"unsafe"
)

// Stack is a LIFO arena organized into nested frames.
//
// A Stack is owned by a single goroutine. Use NewConcurrentStack to share one.
type Stack interface {
	// Push opens a new frame and reserves at least hint bytes for it.
	// The returned region is the frame's primary region; its length is the
	// actual capacity reserved, which callers should prefer over hint.
	Push(hint int) (Frame, []byte, error)

	// Alloc reserves size more bytes in f, which must be the topmost frame.
	// Regions returned earlier stay valid and in place until f is popped.
	Alloc(f Frame, size int) ([]byte, error)

	// AllocAligned is like Alloc with an explicit power of two alignment.
	AllocAligned(f Frame, size, alignment int) ([]byte, error)

	// Grow resizes the primary region of f, which must be the topmost frame.
	// The boolean result reports whether the region was extended in place.
	// When it is false the returned region is new and its content is NOT
	// copied from the old one.
	Grow(f Frame, size int) ([]byte, bool, error)

	// Pop closes f, which must be the topmost frame, and invalidates every
	// region allocated since f was pushed.
	Pop(f Frame) error

	// Remaining returns the number of bytes the topmost frame can still
	// allocate without acquiring a new chunk. It is 0 when no frame is open.
	Remaining() int

	// Depth returns the number of open frames.
	Depth() int

	// Len returns the number of bytes currently in use, alignment padding included.
	Len() int

	// Cap returns the total number of bytes held in chunks.
	Cap() int

	// Peak returns the highest value Len has reached. It is not reset by Pop.
	Peak() int

	// Stats returns a snapshot of the stack's counters.
	Stats() Stats

	// Release returns all chunks to their provider. The stack cannot be used
	// afterwards. Calling Release more than once is allowed.
	Release() error
}

// Frame identifies one open frame of a Stack.
// The zero Frame never refers to an open frame.
type Frame struct {
	depth  int
	serial uint64
}

// Depth returns the nesting depth of the frame, starting at 1.
func (f Frame) Depth() int {
	return f.depth
}

// IsZero reports whether f is the zero Frame.
func (f Frame) IsZero() bool {
	return f.depth == 0 && f.serial == 0
}

func (f Frame) String() string {
	return fmt.Sprintf("frame(depth=%d, serial=%d)", f.depth, f.serial)
}

// Allocate reserves a zeroed T inside frame f.
// T must not contain pointers.
func Allocate[T any](s Stack, f Frame) (*T, error) {
	var x T
	if unsafe.Sizeof(x) == 0 {
		return new(T), nil
	}
	b, err := s.AllocAligned(f, int(unsafe.Sizeof(x)), int(unsafe.Alignof(x)))
	if err != nil {
		return nil, err
	}
	return (*T)(unsafe.Pointer(unsafe.SliceData(b))), nil
}
