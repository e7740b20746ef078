// SPDX-License-Identifier: Apache-2.0

//go:build windows

package sysmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Kind names the mechanism used by Map on this platform.
const Kind = "virtualalloc"

// PageSize returns the granularity Map rounds to.
func PageSize() int {
	return windows.Getpagesize()
}

// Map returns at least n bytes of zeroed, committed read/write memory.
// The returned slice must be handed back to Unmap unchanged.
func Map(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sysmem: invalid size %d", n)
	}
	size := roundUp(n, PageSize())
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("sysmem: VirtualAlloc %d bytes: %w", n, err)
	}
	if addr == 0 {
		return nil, fmt.Errorf("sysmem: VirtualAlloc %d bytes returned nil", n)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

// Unmap returns memory obtained from Map to the system.
func Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	// dwSize must be 0 with MEM_RELEASE; the whole reservation is freed.
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil {
		return fmt.Errorf("sysmem: VirtualFree: %w", err)
	}
	return nil
}
