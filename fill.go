// SPDX-License-Identifier: Apache-2.0

package memlifo

import (
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFillAttempts bounds the push/produce cycles of Fill.
const DefaultMaxFillAttempts = 8

// WithFrame pushes a frame of at least hint bytes, calls fn with it and pops
// the frame on every exit path, including a panic in fn. A pop failure is
// reported only if fn itself succeeded.
func WithFrame(s Stack, hint int, fn func(f Frame, buf []byte) error) (err error) {
	f, buf, err := s.Push(hint)
	if err != nil {
		return err
	}
	defer func() {
		if perr := s.Pop(f); perr != nil && err == nil {
			err = perr
		}
	}()
	return fn(f, buf)
}

type fillConfig struct {
	maxAttempts int
}

// FillOption configures Fill.
type FillOption func(*fillConfig)

// WithMaxAttempts sets how many buffers Fill tries before giving up.
func WithMaxAttempts(n int) FillOption {
	return func(c *fillConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// Fill runs the retry loop used around calls that write a variable-length
// result into a caller supplied buffer.
//
// Each attempt pushes a frame, calls produce with the frame's region and,
// when produce succeeds, passes the n bytes it wrote to convert before the
// frame is popped. convert must copy whatever it keeps: the region is
// invalid after the pop.
//
// produce reports a buffer that is too small by returning a
// *ShortBufferError, io.ErrShortBuffer or the platform's short-buffer errno.
// For the latter two, n is taken as the size it needs, mirroring calls that
// return the required size in their length argument. The next attempt uses
// the reported size, or twice the previous size when none is reported.
func Fill[T any](s Stack, hint int, produce func(buf []byte) (int, error), convert func(buf []byte) (T, error), opts ...FillOption) (T, error) {
	cfg := fillConfig{maxAttempts: DefaultMaxFillAttempts}
	for _, opt := range opts {
		opt(&cfg)
	}

	var zero T
	size := hint
	for attempt := 1; ; attempt++ {
		var (
			res   T
			need  int
			have  int
			short bool
		)
		err := WithFrame(s, size, func(_ Frame, buf []byte) error {
			have = len(buf)
			n, err := produce(buf)
			if err != nil {
				need, short = shortBufferNeed(err, n)
				if short {
					return nil
				}
				return err
			}
			if n < 0 || n > len(buf) {
				return fmt.Errorf("%w: producer reported %d bytes for a %d byte buffer", ErrInvalidRequest, n, len(buf))
			}
			res, err = convert(buf[:n])
			return err
		})
		if err != nil {
			return zero, err
		}
		if !short {
			return res, nil
		}
		if attempt >= cfg.maxAttempts {
			return zero, fmt.Errorf("%w: %d attempts, last buffer %d bytes", ErrTooManyAttempts, attempt, have)
		}
		size, err = nextFillSize(have, need)
		if err != nil {
			return zero, err
		}
	}
}

// shortBufferNeed reports whether err signals a short buffer and the size
// the producer asked for.
func shortBufferNeed(err error, n int) (int, bool) {
	var sb *ShortBufferError
	if errors.As(err, &sb) {
		return sb.Need, true
	}
	if errors.Is(err, io.ErrShortBuffer) || isOSShortBuffer(err) {
		return n, true
	}
	return 0, false
}

func nextFillSize(have, need int) (int, error) {
	if need > have {
		return need, nil
	}
	if have > maxRequest/2 {
		return 0, fmt.Errorf("%w: cannot grow %d byte buffer", ErrInvalidRequest, have)
	}
	return have * 2, nil
}
