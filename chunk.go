// SPDX-License-Identifier: Apache-2.0

package memlifo

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"
)

// chunk is one contiguous block of provider memory. Chunks are linked in
// acquisition order; the last one holds the cursor.
type chunk struct {
	buf    []byte
	offset int // bump cursor within buf
	next   *chunk
}

func (c *chunk) addr() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(c.buf)))
}

// fit returns the offset at which size bytes aligned to align would start,
// and whether they fit in the rest of the chunk.
func (c *chunk) fit(size, align int) (int, bool) {
	at := c.addr() + uintptr(c.offset)
	start := c.offset + int(alignUp(at, uintptr(align))-at)
	if start > len(c.buf) || size > len(c.buf)-start {
		return 0, false
	}
	return start, true
}

// available returns the bytes left after the cursor for a default aligned region.
func (c *chunk) available() int {
	at := c.addr() + uintptr(c.offset)
	start := c.offset + int(alignUp(at, alignment)-at)
	if start >= len(c.buf) {
		return 0
	}
	return len(c.buf) - start
}

func (c *chunk) contains(p uintptr) bool {
	return p >= c.addr() && p < c.addr()+uintptr(len(c.buf))
}

func alignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}

// acquireChunk obtains a chunk of at least need bytes from the provider.
// The size is rounded up to the configured minimum chunk size and to the
// alignment unit. It never retries with a smaller size.
func (s *frameStack) acquireChunk(need int) (*chunk, error) {
	size := max(need, s.opts.minChunkSize)
	if size > maxRequest {
		return nil, fmt.Errorf("%w: chunk of %d bytes", ErrOutOfMemory, size)
	}
	size = int(alignUp(uintptr(size), alignment))

	if s.opts.maxBytes > 0 && size > s.opts.maxBytes-s.capacity {
		s.logger.Debug("chunk limit reached",
			zap.Int("size", size),
			zap.Int("capacity", s.capacity),
			zap.Int("max_bytes", s.opts.maxBytes),
		)
		return nil, fmt.Errorf("%w: chunk of %d bytes exceeds limit of %d bytes (%d held)",
			ErrOutOfMemory, size, s.opts.maxBytes, s.capacity)
	}

	buf, err := s.opts.provider.Alloc(size)
	if err != nil {
		s.logger.Error("chunk acquisition failed",
			zap.Int("size", size),
			zap.String("provider", s.opts.provider.Name()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s provider could not supply %d bytes: %w",
			ErrOutOfMemory, s.opts.provider.Name(), size, err)
	}
	if len(buf) < size {
		s.freeUnused(buf)
		return nil, fmt.Errorf("%w: %s provider returned %d of %d bytes",
			ErrOutOfMemory, s.opts.provider.Name(), len(buf), size)
	}
	// Providers may round up, so the limit is checked again on what was returned.
	if s.opts.maxBytes > 0 && len(buf) > s.opts.maxBytes-s.capacity {
		s.freeUnused(buf)
		s.logger.Debug("chunk limit reached",
			zap.Int("size", len(buf)),
			zap.Int("capacity", s.capacity),
			zap.Int("max_bytes", s.opts.maxBytes),
		)
		return nil, fmt.Errorf("%w: %s provider returned a %d byte chunk, exceeding limit of %d bytes (%d held)",
			ErrOutOfMemory, s.opts.provider.Name(), len(buf), s.opts.maxBytes, s.capacity)
	}

	s.capacity += len(buf)
	s.chunks++
	s.acquiredTotal++
	s.logger.Debug("acquired chunk",
		zap.Int("size", len(buf)),
		zap.String("provider", s.opts.provider.Name()),
		zap.Int("chunks", s.chunks),
	)
	return &chunk{buf: buf}, nil
}

// freeUnused hands back provider memory that never became a chunk.
func (s *frameStack) freeUnused(buf []byte) {
	if err := s.opts.provider.Free(buf); err != nil {
		s.logger.Error("chunk release failed", zap.Int("size", len(buf)), zap.Error(err))
	}
}

// releaseChunk returns c to the provider. c must already be unlinked or
// about to be.
func (s *frameStack) releaseChunk(c *chunk) error {
	size := len(c.buf)
	err := s.opts.provider.Free(c.buf)
	c.buf = nil
	c.offset = 0
	c.next = nil

	s.capacity -= size
	s.chunks--
	s.releasedTotal++
	s.logger.Debug("released chunk",
		zap.Int("size", size),
		zap.String("provider", s.opts.provider.Name()),
		zap.Int("chunks", s.chunks),
	)
	if err != nil {
		return fmt.Errorf("memlifo: free chunk of %d bytes: %w", size, err)
	}
	return nil
}

// discard releases a chunk that was never linked.
func (s *frameStack) discard(c *chunk) {
	if err := s.releaseChunk(c); err != nil {
		s.logger.Error("chunk release failed", zap.Error(err))
	}
}

// link appends c to the chunk list and makes it current.
func (s *frameStack) link(c *chunk) {
	if s.tail == nil {
		s.head = c
	} else {
		s.tail.next = c
	}
	s.tail = c
}

// truncate releases every chunk after c and makes c current.
func (s *frameStack) truncate(c *chunk) {
	next := c.next
	c.next = nil
	s.tail = c
	for next != nil {
		n := next.next
		s.used -= next.offset
		if err := s.releaseChunk(next); err != nil {
			s.logger.Error("chunk release failed", zap.Error(err))
		}
		next = n
	}
}
