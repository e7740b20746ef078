// SPDX-License-Identifier: Apache-2.0

//go:build windows

package memlifo

import (
	"errors"

	"golang.org/x/sys/windows"
)

// isOSShortBuffer reports whether err is one of the Win32 errors returned
// when a variable-length result does not fit the supplied buffer.
func isOSShortBuffer(err error) bool {
	return errors.Is(err, windows.ERROR_INSUFFICIENT_BUFFER) ||
		errors.Is(err, windows.ERROR_MORE_DATA)
}
