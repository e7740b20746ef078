// SPDX-License-Identifier: Apache-2.0

package memlifo

import (
	"io"
)

// Buffer is a bytes.Buffer-like struct whose storage lives in one frame of a Stack.
// It implements io.Writer, io.ByteWriter, io.Reader, io.WriterTo and io.ReaderFrom.
//
// The frame must be the topmost open frame whenever the buffer grows. The
// buffer's content is invalid once the frame is popped.
type Buffer struct {
	stack   Stack
	frame   Frame
	buf     []byte // unread data
	readBuf []byte // intermediate buffer for ReadFrom
}

// NewBuffer creates a new Buffer backed by frame f of s.
// If s is nil, it will fall back to standard Go allocation.
func NewBuffer(s Stack, f Frame) *Buffer {
	return &Buffer{
		stack: s,
		frame: f,
	}
}

// Write implements io.Writer interface.
// It writes len(p) bytes from p to the buffer.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	buf, err := SliceAppend(b.stack, b.frame, b.buf, p...)
	if err != nil {
		return 0, err
	}
	b.buf = buf
	return len(p), nil
}

// WriteByte writes a single byte to the buffer.
func (b *Buffer) WriteByte(c byte) error {
	buf, err := SliceAppend(b.stack, b.frame, b.buf, c)
	if err != nil {
		return err
	}
	b.buf = buf
	return nil
}

// WriteString writes a string to the buffer.
func (b *Buffer) WriteString(s string) (n int, err error) {
	if len(s) == 0 {
		return 0, nil
	}
	buf, err := SliceAppend(b.stack, b.frame, b.buf, []byte(s)...)
	if err != nil {
		return 0, err
	}
	b.buf = buf
	return len(s), nil
}

// WriteTo implements io.WriterTo. Written bytes are consumed.
func (b *Buffer) WriteTo(w io.Writer) (n int64, err error) {
	if len(b.buf) == 0 {
		return 0, nil
	}
	m, err := w.Write(b.buf)
	if m > 0 {
		n = int64(m)
		b.consume(m)
	}
	return n, err
}

// Read reads up to len(p) bytes from the buffer into p.
// It returns io.EOF once the buffer is drained.
func (b *Buffer) Read(p []byte) (n int, err error) {
	if len(b.buf) == 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n = copy(p, b.buf)
	b.consume(n)
	return n, nil
}

// ReadByte reads and returns the next byte from the buffer.
// If no byte is available, it returns io.EOF.
func (b *Buffer) ReadByte() (byte, error) {
	if len(b.buf) == 0 {
		return 0, io.EOF
	}
	c := b.buf[0]
	b.consume(1)
	return c, nil
}

// consume drops the first n unread bytes, shifting the rest to the front so
// the frame region is reused by later writes.
func (b *Buffer) consume(n int) {
	m := copy(b.buf, b.buf[n:])
	b.buf = b.buf[:m]
}

// Bytes returns a slice of length b.Len() holding the unread portion of the buffer.
// The slice is valid for use only until the next buffer modification or
// until the frame is popped.
func (b *Buffer) Bytes() []byte {
	if len(b.buf) == 0 {
		return []byte{}
	}
	return b.buf
}

// String returns a heap copy of the unread portion of the buffer.
func (b *Buffer) String() string {
	return string(b.buf)
}

// Len returns the number of bytes of the unread portion of the buffer.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Cap returns the capacity of the buffer's underlying byte slice.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Reset resets the buffer to be empty but keeps its frame region for reuse.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}

// Truncate discards all but the first n unread bytes from the buffer.
// It panics if n is negative or greater than the length of the buffer.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > len(b.buf) {
		panic("memlifo: truncation out of range")
	}
	b.buf = b.buf[:n]
}

// Next returns a heap copy of the next n bytes from the buffer,
// advancing the buffer as if the bytes had been returned by Read.
func (b *Buffer) Next(n int) []byte {
	n = min(n, len(b.buf))
	if n <= 0 {
		return []byte{}
	}
	result := make([]byte, n)
	copy(result, b.buf[:n])
	b.consume(n)
	return result
}

// ReadFrom implements io.ReaderFrom interface.
// It reads data from r until EOF or error, writing it to the buffer.
// The intermediate read buffer is allocated from the frame.
func (b *Buffer) ReadFrom(r io.Reader) (n int64, err error) {
	if b.readBuf == nil {
		if err := b.allocateReadBuffer(); err != nil {
			return 0, err
		}
	}
	for {
		nr, er := r.Read(b.readBuf)
		if nr > 0 {
			if _, ew := b.Write(b.readBuf[:nr]); ew != nil {
				return n, ew
			}
			n += int64(nr)
		}
		if er != nil {
			if er == io.EOF {
				return n, nil
			}
			return n, er
		}
	}
}

// allocateReadBuffer allocates the intermediate read buffer from the frame.
func (b *Buffer) allocateReadBuffer() error {
	const readBufferSize = 4 * 1024 // 4KB read buffer
	rb, err := AllocateSlice[byte](b.stack, b.frame, readBufferSize, readBufferSize)
	if err != nil {
		return err
	}
	b.readBuf = rb
	return nil
}
