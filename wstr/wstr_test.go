// SPDX-License-Identifier: Apache-2.0

package wstr_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wundergraph/go-memlifo"
	"github.com/wundergraph/go-memlifo/wstr"
)

func TestEncodedLen(t *testing.T) {
	require.Equal(t, 2, wstr.EncodedLen(""))
	require.Equal(t, 8, wstr.EncodedLen("abc"))
	require.Equal(t, 6, wstr.EncodedLen("\U0001D11E")) // surrogate pair
	require.Equal(t, 6, wstr.EncodedLen("世界"))
}

func TestEncode(t *testing.T) {
	buf := make([]byte, 16)
	n, err := wstr.Encode(buf, "hi")
	require.NoError(t, err)
	require.Equal(t, []byte{'h', 0, 'i', 0, 0, 0}, buf[:n])
}

func TestEncodeShortBuffer(t *testing.T) {
	buf := make([]byte, 4)
	n, err := wstr.Encode(buf, "hello")
	require.ErrorIs(t, err, io.ErrShortBuffer)
	require.Equal(t, 12, n)
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"", "C:\\Windows\\System32", "héllo, 世界", "clef \U0001D11E"} {
		buf := make([]byte, wstr.EncodedLen(s))
		n, err := wstr.Encode(buf, s)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)

		got, err := wstr.Decode(buf)
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestDecode(t *testing.T) {
	got, err := wstr.Decode([]byte{'o', 0, 'k', 0})
	require.NoError(t, err)
	require.Equal(t, "ok", got, "missing terminator")

	got, err = wstr.Decode([]byte{'a', 0, 0, 0, 'b', 0})
	require.NoError(t, err)
	require.Equal(t, "a", got)

	_, err = wstr.Decode([]byte{'a', 0, 0})
	require.ErrorIs(t, err, wstr.ErrOddLength)
}

func TestMulti(t *testing.T) {
	ss := []string{"a", "bc"}
	require.Equal(t, 12, wstr.MultiLen(ss))

	buf := make([]byte, wstr.MultiLen(ss))
	n, err := wstr.EncodeMulti(buf, ss)
	require.NoError(t, err)
	require.Equal(t, []byte{'a', 0, 0, 0, 'b', 0, 'c', 0, 0, 0, 0, 0}, buf[:n])

	got, err := wstr.DecodeMulti(buf[:n])
	require.NoError(t, err)
	require.Equal(t, ss, got)

	n, err = wstr.EncodeMulti(buf[:5], ss)
	require.ErrorIs(t, err, io.ErrShortBuffer)
	require.Equal(t, 12, n)

	n, err = wstr.EncodeMulti(buf, nil)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	got, err = wstr.DecodeMulti(buf[:n])
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = wstr.DecodeMulti(buf[:3])
	require.ErrorIs(t, err, wstr.ErrOddLength)
}

func TestAllocInFrame(t *testing.T) {
	s := memlifo.New(memlifo.WithMinChunkSize(256))
	f, _, err := s.Push(8)
	require.NoError(t, err)

	b, err := wstr.Alloc(s, f, "path")
	require.NoError(t, err)
	require.Len(t, b, 10)

	got, err := wstr.Decode(b)
	require.NoError(t, err)
	require.Equal(t, "path", got)
	require.NoError(t, s.Pop(f))
	require.Equal(t, 0, s.Len())
}

func TestAllocWrongFrame(t *testing.T) {
	s := memlifo.New()
	f, _, err := s.Push(8)
	require.NoError(t, err)
	_, _, err = s.Push(8)
	require.NoError(t, err)

	_, err = wstr.Alloc(s, f, "x")
	require.ErrorIs(t, err, memlifo.ErrFrameOrder)
}

// TestFillSectionNames reads a profile section through the retry loop:
// the producer reports the size it needs and the names are decoded before
// the frame is popped.
func TestFillSectionNames(t *testing.T) {
	section := []string{"alpha", "beta", "gamma", "a rather long key name that does not fit the first buffer"}
	calls := 0
	produce := func(buf []byte) (int, error) {
		calls++
		return wstr.EncodeMulti(buf, section)
	}

	s := memlifo.New(memlifo.WithMinChunkSize(64))
	got, err := memlifo.Fill(s, 32, produce, wstr.DecodeMulti)
	require.NoError(t, err)
	require.Equal(t, section, got)
	require.Equal(t, 2, calls)
	require.Equal(t, 0, s.Depth())
	require.Equal(t, 64, s.Cap())
}
