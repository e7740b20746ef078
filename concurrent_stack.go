// SPDX-License-Identifier: Apache-2.0

package memlifo

import (
	"sync"
)

type concurrentStack struct {
	mtx sync.Mutex
	s   Stack
}

// NewConcurrentStack returns a stack that is safe to be accessed concurrently
// from multiple goroutines. Every method holds one mutex for its whole duration.
//
// Frames still nest across all goroutines: a goroutine can only pop or allocate
// from the frame that is on top of the shared stack.
func NewConcurrentStack(s Stack) Stack {
	return &concurrentStack{s: s}
}

// Push satisfies the Stack interface.
func (c *concurrentStack) Push(hint int) (Frame, []byte, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.s == nil {
		return Frame{}, nil, ErrReleased
	}
	return c.s.Push(hint)
}

// Alloc satisfies the Stack interface.
func (c *concurrentStack) Alloc(f Frame, size int) ([]byte, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.s == nil {
		return nil, ErrReleased
	}
	return c.s.Alloc(f, size)
}

// AllocAligned satisfies the Stack interface.
func (c *concurrentStack) AllocAligned(f Frame, size, alignment int) ([]byte, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.s == nil {
		return nil, ErrReleased
	}
	return c.s.AllocAligned(f, size, alignment)
}

// Grow satisfies the Stack interface.
func (c *concurrentStack) Grow(f Frame, size int) ([]byte, bool, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.s == nil {
		return nil, false, ErrReleased
	}
	return c.s.Grow(f, size)
}

// Pop satisfies the Stack interface.
func (c *concurrentStack) Pop(f Frame) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.s == nil {
		return ErrReleased
	}
	return c.s.Pop(f)
}

// Remaining satisfies the Stack interface.
func (c *concurrentStack) Remaining() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.s == nil {
		return 0
	}
	return c.s.Remaining()
}

// Depth satisfies the Stack interface.
func (c *concurrentStack) Depth() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.s == nil {
		return 0
	}
	return c.s.Depth()
}

// Len returns the total number of bytes currently allocated in the stack.
func (c *concurrentStack) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.s == nil {
		return 0
	}
	return c.s.Len()
}

// Cap returns the total capacity of all chunks held by the stack.
func (c *concurrentStack) Cap() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.s == nil {
		return 0
	}
	return c.s.Cap()
}

// Peak returns the peak number of bytes that have been allocated in the stack.
func (c *concurrentStack) Peak() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.s == nil {
		return 0
	}
	return c.s.Peak()
}

// Stats satisfies the Stack interface.
func (c *concurrentStack) Stats() Stats {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.s == nil {
		return Stats{Released: true}
	}
	return c.s.Stats()
}

// Release satisfies the Stack interface.
func (c *concurrentStack) Release() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.s == nil {
		return nil
	}
	return c.s.Release()
}
