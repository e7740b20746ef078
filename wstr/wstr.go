// SPDX-License-Identifier: Apache-2.0

// Package wstr converts between Go strings and the NUL-terminated UTF-16LE
// strings exchanged with Windows style APIs through frame buffers.
//
// Decoding always produces heap strings, so results stay valid after the
// frame holding the raw buffer is popped.
package wstr

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/wundergraph/go-memlifo"
)

// ErrOddLength is returned when a buffer does not hold whole UTF-16 code units.
var ErrOddLength = errors.New("wstr: odd buffer length")

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodedLen returns the number of bytes Encode writes for s, terminator included.
func EncodedLen(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return (n + 1) * 2
}

// Encode writes s to dst as NUL-terminated UTF-16LE and returns the number of
// bytes written. If dst is too small it returns the required size and
// io.ErrShortBuffer. Invalid UTF-8 is replaced with U+FFFD.
func Encode(dst []byte, s string) (int, error) {
	need := EncodedLen(s)
	if len(dst) < need {
		return need, io.ErrShortBuffer
	}
	n, _, err := utf16le.NewEncoder().Transform(dst[:need-2], []byte(s), true)
	if err != nil {
		return 0, fmt.Errorf("wstr: encode: %w", err)
	}
	dst[n] = 0
	dst[n+1] = 0
	return n + 2, nil
}

// Alloc encodes s into a new region of frame f.
func Alloc(st memlifo.Stack, f memlifo.Frame, s string) ([]byte, error) {
	buf, err := st.AllocAligned(f, EncodedLen(s), 2)
	if err != nil {
		return nil, err
	}
	n, err := Encode(buf, s)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// EncodeMulti writes ss as a list of NUL-terminated strings followed by an
// empty string, the layout of REG_MULTI_SZ values and profile sections.
// The return values follow Encode.
func EncodeMulti(dst []byte, ss []string) (int, error) {
	need := MultiLen(ss)
	if len(dst) < need {
		return need, io.ErrShortBuffer
	}
	off := 0
	for _, s := range ss {
		n, err := Encode(dst[off:], s)
		if err != nil {
			return 0, err
		}
		off += n
	}
	dst[off] = 0
	dst[off+1] = 0
	return off + 2, nil
}

// MultiLen returns the number of bytes EncodeMulti writes for ss.
func MultiLen(ss []string) int {
	n := 2
	for _, s := range ss {
		n += EncodedLen(s)
	}
	return n
}

// Decode returns the string stored at the start of buf, up to the first NUL
// code unit or the end of buf.
func Decode(buf []byte) (string, error) {
	if len(buf)%2 != 0 {
		return "", ErrOddLength
	}
	s, _, err := decodeUnit(buf)
	return s, err
}

// DecodeMulti decodes a list of NUL-terminated strings ending with an empty
// string. A missing final terminator is tolerated at the end of buf.
func DecodeMulti(buf []byte) ([]string, error) {
	if len(buf)%2 != 0 {
		return nil, ErrOddLength
	}
	var out []string
	for len(buf) > 0 {
		s, n, err := decodeUnit(buf)
		if err != nil {
			return nil, err
		}
		if s == "" {
			break
		}
		out = append(out, s)
		buf = buf[n:]
	}
	return out, nil
}

// decodeUnit decodes up to the first NUL and returns the bytes consumed,
// terminator included.
func decodeUnit(buf []byte) (string, int, error) {
	end := len(buf)
	consumed := len(buf)
	for i := 0; i+1 < len(buf); i += 2 {
		if buf[i] == 0 && buf[i+1] == 0 {
			end = i
			consumed = i + 2
			break
		}
	}
	if end == 0 {
		return "", consumed, nil
	}
	b, _, err := transform.Bytes(utf16le.NewDecoder(), buf[:end])
	if err != nil {
		return "", 0, fmt.Errorf("wstr: decode: %w", err)
	}
	return string(b), consumed, nil
}
