// SPDX-License-Identifier: Apache-2.0

//go:build !unix && !windows

package memlifo

func isOSShortBuffer(error) bool {
	return false
}
