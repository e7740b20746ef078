// SPDX-License-Identifier: Apache-2.0

package memlifo

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// maxRequest bounds a single region or chunk request, leaving headroom for
// alignment padding and doubling without overflowing int.
const maxRequest = math.MaxInt >> 2

type frameStack struct {
	opts   options
	logger *zap.Logger

	head *chunk
	tail *chunk // holds the cursor

	frames []frameRecord
	serial uint64 // last frame serial handed out

	used     int // bytes below the cursor across all chunks
	peak     int
	capacity int // bytes held in chunks
	chunks   int

	acquiredTotal int
	releasedTotal int
	closed        bool
}

// frameRecord is the checkpoint saved by Push.
type frameRecord struct {
	serial uint64

	// cursor at the moment of the push; chunk is nil if no chunk existed yet
	chunk  *chunk
	offset int

	// primary region, resized by Grow
	region      *chunk
	regionStart int
	regionLen   int
}

// New creates a Stack. Without options it acquires 32KB chunks from the Go
// heap on demand; no memory is acquired until the first Push.
func New(opts ...Option) Stack {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.minChunkSize < alignment {
		o.minChunkSize = alignment
	}
	return &frameStack{
		opts:   o,
		logger: o.logger.With(zap.String("provider", o.provider.Name())),
	}
}

// roundSize validates a byte count and rounds it up to the alignment unit.
func roundSize(n int) (int, error) {
	if n <= 0 || n > maxRequest {
		return 0, fmt.Errorf("%w: size %d", ErrInvalidRequest, n)
	}
	return int(alignUp(uintptr(n), alignment)), nil
}

// Push satisfies the Stack interface.
func (s *frameStack) Push(hint int) (Frame, []byte, error) {
	if s.closed {
		return Frame{}, nil, ErrReleased
	}
	size, err := roundSize(hint)
	if err != nil {
		return Frame{}, nil, err
	}

	rec := frameRecord{chunk: s.tail}
	if s.tail != nil {
		rec.offset = s.tail.offset
	}

	c, start, err := s.reserve(size, alignment)
	if err != nil {
		return Frame{}, nil, err
	}

	s.serial++
	rec.serial = s.serial
	rec.region = c
	rec.regionStart = start
	rec.regionLen = size
	s.frames = append(s.frames, rec)

	return Frame{depth: len(s.frames), serial: rec.serial}, c.buf[start : start+size : start+size], nil
}

// Alloc satisfies the Stack interface.
func (s *frameStack) Alloc(f Frame, size int) ([]byte, error) {
	return s.AllocAligned(f, size, alignment)
}

// AllocAligned satisfies the Stack interface.
func (s *frameStack) AllocAligned(f Frame, size, align int) ([]byte, error) {
	if err := s.checkTop(f, "alloc"); err != nil {
		return nil, err
	}
	if size <= 0 || size > maxRequest {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidRequest, size)
	}
	if align <= 0 || align&(align-1) != 0 || align > maxAlignment {
		return nil, fmt.Errorf("%w: alignment %d", ErrInvalidRequest, align)
	}

	c, start, err := s.reserve(size, align)
	if err != nil {
		return nil, err
	}
	return c.buf[start : start+size : start+size], nil
}

// maxAlignment is the largest alignment AllocAligned accepts.
const maxAlignment = 4096

// Grow satisfies the Stack interface.
func (s *frameStack) Grow(f Frame, size int) ([]byte, bool, error) {
	if err := s.checkTop(f, "grow"); err != nil {
		return nil, false, err
	}
	size, err := roundSize(size)
	if err != nil {
		return nil, false, err
	}

	rec := &s.frames[len(s.frames)-1]
	c := rec.region
	start := rec.regionStart
	last := c == s.tail && start+rec.regionLen == c.offset

	switch {
	case size <= rec.regionLen:
		if last {
			s.used -= rec.regionLen - size
			c.offset = start + size
			rec.regionLen = size
		}
		return c.buf[start : start+size : start+size], true, nil

	case last && size <= len(c.buf)-start:
		s.commit(c, c.offset, start+size-c.offset)
		rec.regionLen = size
		return c.buf[start : start+size : start+size], true, nil
	}

	nc, nstart, err := s.reserve(size, alignment)
	if err != nil {
		return nil, false, err
	}
	rec.region = nc
	rec.regionStart = nstart
	rec.regionLen = size
	return nc.buf[nstart : nstart+size : nstart+size], false, nil
}

// Pop satisfies the Stack interface.
func (s *frameStack) Pop(f Frame) error {
	if err := s.checkTop(f, "pop"); err != nil {
		return err
	}

	rec := s.frames[len(s.frames)-1]
	s.frames[len(s.frames)-1] = frameRecord{}
	s.frames = s.frames[:len(s.frames)-1]

	restore, offset := rec.chunk, rec.offset
	if restore == nil {
		// Pushed before any chunk existed: keep the base chunk for reuse.
		restore, offset = s.head, 0
	}
	s.truncate(restore)
	s.used -= restore.offset - offset
	restore.offset = offset
	return nil
}

// reserve carves size bytes aligned to align out of the current chunk,
// acquiring a chunk when it does not fit. On failure no state is changed.
func (s *frameStack) reserve(size, align int) (*chunk, int, error) {
	if c := s.tail; c != nil {
		if start, ok := c.fit(size, align); ok {
			s.commit(c, start, size)
			return c, start, nil
		}
	}

	need := size
	if align > alignment {
		need += align - 1
	}

	if s.head == nil && need <= s.opts.minChunkSize {
		b, err := s.acquireChunk(s.opts.minChunkSize)
		if err != nil {
			return nil, 0, err
		}
		start, ok := b.fit(size, align)
		if !ok {
			s.discard(b)
			return nil, 0, fmt.Errorf("%w: %d bytes aligned to %d do not fit a fresh chunk", ErrOutOfMemory, size, align)
		}
		s.link(b)
		s.commit(b, start, size)
		return b, start, nil
	}

	// The oversized chunk comes first so a request the provider cannot
	// serve never touches the base chunk.
	c, err := s.acquireChunk(need)
	if err != nil {
		return nil, 0, err
	}
	var base *chunk
	if s.head == nil {
		base, err = s.acquireChunk(s.opts.minChunkSize)
		if err != nil {
			s.discard(c)
			return nil, 0, err
		}
	}
	start, ok := c.fit(size, align)
	if !ok {
		s.discard(c)
		if base != nil {
			s.discard(base)
		}
		return nil, 0, fmt.Errorf("%w: %d bytes aligned to %d do not fit a fresh chunk", ErrOutOfMemory, size, align)
	}
	if base != nil {
		s.link(base)
	}
	s.link(c)
	s.commit(c, start, size)
	return c, start, nil
}

// commit advances the cursor of c to start+size.
func (s *frameStack) commit(c *chunk, start, size int) {
	if s.opts.zero {
		clear(c.buf[start : start+size])
	}
	s.used += start + size - c.offset
	c.offset = start + size
	if s.used > s.peak {
		s.peak = s.used
	}
}

// checkTop verifies that f is the topmost open frame.
func (s *frameStack) checkTop(f Frame, op string) error {
	if s.closed {
		return ErrReleased
	}
	n := len(s.frames)
	if n == 0 || f.depth != n || f.serial != s.frames[n-1].serial {
		s.logger.Warn("frame order violation",
			zap.String("op", op),
			zap.Int("frame_depth", f.depth),
			zap.Uint64("frame_serial", f.serial),
			zap.Int("depth", n),
		)
		return fmt.Errorf("%w: %s of %s at depth %d", ErrFrameOrder, op, f, n)
	}
	return nil
}

// Remaining satisfies the Stack interface.
func (s *frameStack) Remaining() int {
	if s.closed || len(s.frames) == 0 {
		return 0
	}
	return s.tail.available()
}

// Depth satisfies the Stack interface.
func (s *frameStack) Depth() int {
	return len(s.frames)
}

// Len returns the total number of bytes currently allocated in the stack.
func (s *frameStack) Len() int {
	return s.used
}

// Cap returns the total capacity of all chunks held by the stack.
func (s *frameStack) Cap() int {
	return s.capacity
}

// Peak returns the peak number of bytes that have been allocated in the stack.
// This value is not reset by Pop or Release.
func (s *frameStack) Peak() int {
	return s.peak
}

// Release satisfies the Stack interface.
func (s *frameStack) Release() error {
	if s.closed {
		return nil
	}
	if n := len(s.frames); n > 0 {
		s.logger.Warn("releasing stack with open frames", zap.Int("depth", n))
	}

	var err error
	for c := s.head; c != nil; {
		next := c.next
		err = multierr.Append(err, s.releaseChunk(c))
		c = next
	}
	s.head, s.tail = nil, nil
	s.frames = nil
	s.used = 0
	s.closed = true
	return err
}
