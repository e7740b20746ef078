// SPDX-License-Identifier: Apache-2.0

package memlifo

import (
	"fmt"

	"github.com/wundergraph/go-memlifo/internal/sysmem"
)

// Provider is the source of raw chunk memory for a Stack.
type Provider interface {
	// Alloc returns at least n zeroed bytes. The provider may return more.
	Alloc(n int) ([]byte, error)

	// Free returns memory obtained from Alloc. b is exactly the slice Alloc returned.
	Free(b []byte) error

	// Name identifies the provider in logs and configuration.
	Name() string
}

const (
	providerHeap   = "heap"
	providerSystem = "system"
)

type heapProvider struct{}

// HeapProvider returns a Provider backed by the Go heap. Freed chunks are
// reclaimed by the garbage collector.
func HeapProvider() Provider {
	return heapProvider{}
}

func (heapProvider) Alloc(n int) (b []byte, err error) {
	defer func() {
		// make panics on sizes the runtime cannot address.
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("heap cannot allocate %d bytes: %v", n, r)
		}
	}()
	return make([]byte, n), nil
}

func (heapProvider) Free([]byte) error {
	return nil
}

func (heapProvider) Name() string {
	return providerHeap
}

type systemProvider struct{}

// SystemProvider returns a Provider that maps memory directly from the
// operating system (mmap on unix, VirtualAlloc on windows). Chunks are
// returned to the system as soon as the stack releases them, so a Stack
// using it must be released explicitly.
func SystemProvider() Provider {
	return systemProvider{}
}

func (systemProvider) Alloc(n int) ([]byte, error) {
	return sysmem.Map(n)
}

func (systemProvider) Free(b []byte) error {
	return sysmem.Unmap(b)
}

func (systemProvider) Name() string {
	return providerSystem + "/" + sysmem.Kind
}
