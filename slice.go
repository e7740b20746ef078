// SPDX-License-Identifier: Apache-2.0

package memlifo

import (
	"unsafe"
)

const growThreshold = 256

// AllocateSlice creates a slice of type T with a given length and capacity
// inside frame f. If s is nil it falls back to Go's built-in make.
// T must not contain pointers.
func AllocateSlice[T any](s Stack, f Frame, len, cap int) ([]T, error) {
	if s == nil {
		return make([]T, len, cap), nil
	}
	if len < 0 || len > cap {
		return nil, ErrInvalidRequest
	}
	var x T
	elem := int(unsafe.Sizeof(x))
	if cap == 0 || elem == 0 {
		return make([]T, len, cap), nil
	}
	if cap > maxRequest/elem {
		return nil, ErrInvalidRequest
	}
	b, err := s.AllocAligned(f, elem*cap, int(unsafe.Alignof(x)))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), cap)[:len], nil
}

// SliceAppend appends elements to a slice of type T, moving it into a larger
// region of frame f when it runs out of capacity. The old region is left in
// place until f is popped.
func SliceAppend[T any](s Stack, f Frame, sl []T, data ...T) ([]T, error) {
	if s == nil {
		return append(sl, data...), nil
	}
	sl, err := growSlice(s, f, sl, len(data))
	if err != nil {
		return sl, err
	}
	return append(sl, data...), nil
}

func growSlice[T any](s Stack, f Frame, sl []T, dataLen int) ([]T, error) {
	newLen := len(sl) + dataLen
	newCap := cap(sl)

	if newCap > 0 {
		for newLen > newCap {
			if newCap < growThreshold {
				newCap *= 2
			} else {
				newCap += newCap / 4
			}
		}
	} else {
		newCap = dataLen
	}
	if newCap == cap(sl) {
		return sl, nil
	}
	s2, err := AllocateSlice[T](s, f, len(sl), newCap)
	if err != nil {
		return sl, err
	}
	copy(s2, sl)
	return s2, nil
}
