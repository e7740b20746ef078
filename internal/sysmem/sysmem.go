// SPDX-License-Identifier: Apache-2.0

// Package sysmem obtains chunks of memory directly from the operating system,
// bypassing the Go heap.
package sysmem

// roundUp rounds n up to a multiple of the page size.
func roundUp(n, page int) int {
	if page <= 0 {
		return n
	}
	return (n + page - 1) / page * page
}
