// SPDX-License-Identifier: Apache-2.0

//go:build unix

package memlifo

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isOSShortBuffer reports whether err is the errno unix calls such as
// getcwd, readlink or getxattr return when the result does not fit.
func isOSShortBuffer(err error) bool {
	return errors.Is(err, unix.ERANGE)
}
