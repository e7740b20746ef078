// SPDX-License-Identifier: Apache-2.0

package memlifo

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// sectionAPI mimics a call that copies a variable-length result into a
// caller buffer and reports the size it needs when the buffer is too small.
type sectionAPI struct {
	data  []byte
	calls []int // buffer sizes seen
}

func (a *sectionAPI) read(buf []byte) (int, error) {
	a.calls = append(a.calls, len(buf))
	if len(buf) < len(a.data) {
		return 0, &ShortBufferError{Need: len(a.data)}
	}
	return copy(buf, a.data), nil
}

func copyString(buf []byte) (string, error) {
	return string(buf), nil
}

func TestFillFirstAttempt(t *testing.T) {
	s := New(WithMinChunkSize(1024))
	api := &sectionAPI{data: []byte("key=value")}

	got, err := Fill(s, 100, api.read, copyString)
	require.NoError(t, err)
	require.Equal(t, "key=value", got)
	require.Equal(t, []int{104}, api.calls)
	require.Equal(t, 0, s.Depth())
}

func TestFillRetriesWithReportedSize(t *testing.T) {
	s := New(WithMinChunkSize(1024))
	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i)
	}
	api := &sectionAPI{data: data}

	got, err := Fill(s, 100, api.read, func(buf []byte) ([]byte, error) {
		return append([]byte(nil), buf...), nil
	})
	require.NoError(t, err)
	require.Equal(t, data, got)
	require.Equal(t, []int{104, 5000}, api.calls)
	require.Equal(t, 0, s.Depth())
	require.Equal(t, 1024, s.Cap()) // the oversized chunk is gone
}

func TestFillDoublesWithoutReportedSize(t *testing.T) {
	s := New()
	var sizes []int
	produce := func(buf []byte) (int, error) {
		sizes = append(sizes, len(buf))
		if len(buf) < 100 {
			return 0, io.ErrShortBuffer
		}
		return 1, nil
	}

	_, err := Fill(s, 16, produce, copyString)
	require.NoError(t, err)
	require.Equal(t, []int{16, 32, 64, 128}, sizes)
}

func TestFillShortBufferWithCountArgument(t *testing.T) {
	s := New()
	var sizes []int
	produce := func(buf []byte) (int, error) {
		sizes = append(sizes, len(buf))
		if len(buf) < 300 {
			// the required size travels in the count, like a Win32 pcbNeeded
			return 300, fmt.Errorf("query: %w", io.ErrShortBuffer)
		}
		return 300, nil
	}

	_, err := Fill(s, 8, produce, copyString)
	require.NoError(t, err)
	require.Equal(t, []int{8, 304}, sizes)
}

func TestFillGivesUp(t *testing.T) {
	s := New()
	produce := func(buf []byte) (int, error) {
		return 0, &ShortBufferError{}
	}

	_, err := Fill(s, 8, produce, copyString, WithMaxAttempts(3))
	require.ErrorIs(t, err, ErrTooManyAttempts)
	require.Equal(t, 0, s.Depth())
}

func TestFillProducerError(t *testing.T) {
	s := New()
	boom := errors.New("access denied")

	_, err := Fill(s, 8, func([]byte) (int, error) { return 0, boom }, copyString)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, s.Depth())
}

func TestFillConvertError(t *testing.T) {
	s := New()
	bad := errors.New("malformed record")

	_, err := Fill(s, 8, func(buf []byte) (int, error) { return len(buf), nil },
		func([]byte) (int, error) { return 0, bad })
	require.ErrorIs(t, err, bad)
	require.Equal(t, 0, s.Depth())
}

func TestFillProducerOverreports(t *testing.T) {
	s := New()
	_, err := Fill(s, 8, func(buf []byte) (int, error) { return len(buf) + 1, nil }, copyString)
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.Equal(t, 0, s.Depth())
}

func TestFillOutOfMemory(t *testing.T) {
	s := New(WithMinChunkSize(64), WithMaxBytes(128))
	api := &sectionAPI{data: make([]byte, 1000)}

	_, err := Fill(s, 8, api.read, copyString)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Equal(t, 0, s.Depth())
}

func TestFillHugeReportedSize(t *testing.T) {
	requireLargeAddressSpace(t)
	s := New()
	f, _, err := s.Push(8)
	require.NoError(t, err)
	require.NoError(t, s.Pop(f))
	before := s.Stats()

	_, err = Fill(s, 8, func([]byte) (int, error) {
		return 0, &ShortBufferError{Need: hugeRequest}
	}, copyString)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Equal(t, before, s.Stats())
}

func TestFillInsideOuterFrame(t *testing.T) {
	s := New(WithMinChunkSize(256))
	outer, region, err := s.Push(32)
	require.NoError(t, err)
	copy(region, "outer")

	api := &sectionAPI{data: make([]byte, 2000)}
	_, err = Fill(s, 8, api.read, copyString)
	require.NoError(t, err)

	require.Equal(t, 1, s.Depth())
	require.Equal(t, "outer", string(region[:5]))
	require.NoError(t, s.Pop(outer))
}

func TestWithFramePopsOnPanic(t *testing.T) {
	s := New()
	require.Panics(t, func() {
		_ = WithFrame(s, 64, func(Frame, []byte) error {
			panic("boom")
		})
	})
	require.Equal(t, 0, s.Depth())
}

func TestWithFrameReportsLeakedFrame(t *testing.T) {
	s := New()
	err := WithFrame(s, 64, func(Frame, []byte) error {
		_, _, err := s.Push(8) // never popped
		return err
	})
	require.ErrorIs(t, err, ErrFrameOrder)
	require.Equal(t, 2, s.Depth())
}

func TestWithFramePushError(t *testing.T) {
	s := New()
	called := false
	err := WithFrame(s, 0, func(Frame, []byte) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.False(t, called)
}

func TestShortBufferError(t *testing.T) {
	require.EqualError(t, &ShortBufferError{}, "memlifo: short buffer")
	require.EqualError(t, &ShortBufferError{Need: 12}, "memlifo: short buffer, need 12 bytes")
	require.ErrorIs(t, &ShortBufferError{Need: 1}, io.ErrShortBuffer)
}

func TestNextFillSize(t *testing.T) {
	n, err := nextFillSize(100, 250)
	require.NoError(t, err)
	require.Equal(t, 250, n)

	n, err = nextFillSize(100, 50)
	require.NoError(t, err)
	require.Equal(t, 200, n)

	_, err = nextFillSize(maxRequest, 0)
	require.ErrorIs(t, err, ErrInvalidRequest)
}
