// SPDX-License-Identifier: Apache-2.0

//go:build unix

package sysmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Kind names the mechanism used by Map on this platform.
const Kind = "mmap"

// PageSize returns the granularity Map rounds to.
func PageSize() int {
	return unix.Getpagesize()
}

// Map returns at least n bytes of zeroed, private, anonymous memory.
// The returned slice must be handed back to Unmap unchanged.
func Map(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sysmem: invalid size %d", n)
	}
	b, err := unix.Mmap(-1, 0, roundUp(n, PageSize()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("sysmem: mmap %d bytes: %w", n, err)
	}
	return b, nil
}

// Unmap returns memory obtained from Map to the system.
func Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("sysmem: munmap: %w", err)
	}
	return nil
}
