// SPDX-License-Identifier: Apache-2.0

package memlifo

import (
	"go.uber.org/zap"
)

const (
	// DefaultMinChunkSize is the size of the base chunk and the minimum size
	// of every chunk acquired later.
	DefaultMinChunkSize = 1024 * 32 // 32KB

	// alignment is the alignment of every region returned by Push, Alloc and Grow.
	alignment = 8
)

type options struct {
	minChunkSize int
	maxBytes     int
	provider     Provider
	logger       *zap.Logger
	zero         bool
}

func defaultOptions() options {
	return options{
		minChunkSize: DefaultMinChunkSize,
		provider:     HeapProvider(),
		logger:       zap.NewNop(),
		zero:         true,
	}
}

// Option configures a Stack.
type Option func(*options)

// WithMinChunkSize sets the minimum size of chunks acquired by the stack.
// Larger requests get a chunk of their own size.
func WithMinChunkSize(size int) Option {
	return func(o *options) {
		o.minChunkSize = size
	}
}

// WithMaxBytes limits the total size of chunks the stack may hold at once.
// Acquisitions beyond the limit fail with ErrOutOfMemory. Zero means no limit.
func WithMaxBytes(n int) Option {
	return func(o *options) {
		o.maxBytes = n
	}
}

// WithProvider sets the source of chunk memory. The default is HeapProvider.
func WithProvider(p Provider) Option {
	return func(o *options) {
		if p != nil {
			o.provider = p
		}
	}
}

// WithLogger sets the logger used for chunk and misuse diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithZeroing controls whether regions are cleared before they are handed out.
// It is enabled by default.
func WithZeroing(zero bool) Option {
	return func(o *options) {
		o.zero = zero
	}
}
