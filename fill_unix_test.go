// SPDX-License-Identifier: Apache-2.0

//go:build linux || darwin

package memlifo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestFillRetriesOnERANGE(t *testing.T) {
	s := New()
	var sizes []int
	produce := func(buf []byte) (int, error) {
		sizes = append(sizes, len(buf))
		if len(buf) < 40 {
			return 0, fmt.Errorf("getxattr: %w", unix.ERANGE)
		}
		return 40, nil
	}

	_, err := Fill(s, 16, produce, copyString)
	require.NoError(t, err)
	require.Equal(t, []int{16, 32, 64}, sizes)
}

func TestFillGetcwd(t *testing.T) {
	s := New()
	dir, err := Fill(s, 1, func(buf []byte) (int, error) {
		return unix.Getcwd(buf)
	}, func(buf []byte) (string, error) {
		if len(buf) > 0 && buf[len(buf)-1] == 0 {
			buf = buf[:len(buf)-1]
		}
		return string(buf), nil
	}, WithMaxAttempts(16))
	require.NoError(t, err)
	require.NotEmpty(t, dir)
	require.Equal(t, 0, s.Depth())
}
