// SPDX-License-Identifier: Apache-2.0

//go:build !unix && !windows

package sysmem

import "fmt"

// Kind names the mechanism used by Map on this platform.
const Kind = "heap"

const fallbackPageSize = 4096

// PageSize returns the granularity Map rounds to.
func PageSize() int {
	return fallbackPageSize
}

// Map allocates from the Go heap when the platform has no usable mapping call.
func Map(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sysmem: invalid size %d", n)
	}
	return make([]byte, roundUp(n, fallbackPageSize)), nil
}

// Unmap is a no-op; the garbage collector reclaims the memory.
func Unmap(b []byte) error {
	return nil
}
