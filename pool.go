package memlifo

import (
	"fmt"
	"runtime"
	"sync"
	"weak"

	"go.uber.org/zap"
)

// Pool provides a thread-safe pool of Stack instances, one per work context.
// It uses weak pointers to allow garbage collection of unused stacks while maintaining
// a pool of reusable stacks for high-frequency call patterns.
//
// by storing PoolItem as weak pointers, the GC can collect them at any time
// before using a PoolItem, we try to get a strong pointer while removing it from the pool
// once we call Release, we turn the item back to the pool and make it a weak pointer again
// when the GC claims an idle item, a cleanup releases the chunks of its stack,
// so stacks using SystemProvider do not leak mapped memory
type Pool struct {
	// pool is a slice of weak pointers to the struct holding the Stack
	pool   []weak.Pointer[PoolItem]
	sizes  map[uint64]*poolItemSize
	opts   []Option
	logger *zap.Logger
	mu     sync.Mutex
}

// poolItemSize is used to track the required memory across the last 50 stacks of a key
type poolItemSize struct {
	count      int
	totalBytes int
}

// PoolItem wraps a Stack for use in the pool
type PoolItem struct {
	Stack Stack
	Key   uint64

	pooled bool // held by the pool, not by a caller
}

const defaultPoolChunkSize = 1024 * 1024 // 1MB

// NewPool creates a new Pool. opts are applied to every stack it creates;
// the minimum chunk size is chosen by the pool from recorded peaks.
func NewPool(opts ...Option) *Pool {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Pool{
		sizes:  make(map[uint64]*poolItemSize),
		opts:   opts,
		logger: o.logger,
	}
}

// Acquire gets an idle stack from the pool or creates a new one if none are available.
// The key identifies the use case; it is used to size new stacks.
func (p *Pool) Acquire(key uint64) *PoolItem {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.pool) > 0 {
		lastIdx := len(p.pool) - 1
		wp := p.pool[lastIdx]
		p.pool = p.pool[:lastIdx]

		if v := wp.Value(); v != nil {
			v.Key = key
			v.pooled = false
			return v
		}
		// collected by the GC, its cleanup released the chunks
	}

	opts := append([]Option{}, p.opts...)
	opts = append(opts, WithMinChunkSize(p.stackSize(key)))
	item := &PoolItem{
		Stack: New(opts...),
		Key:   key,
	}
	runtime.AddCleanup(item, releaseCollected, item.Stack)
	return item
}

func releaseCollected(s Stack) {
	_ = s.Release()
}

// Release returns a stack to the pool for reuse.
// The peak memory usage is recorded to size future stacks for the item's key.
// A stack with open frames is released instead of pooled and ErrFramesOpen is returned.
// Releasing an item the pool already holds returns ErrPooled.
func (p *Pool) Release(item *PoolItem) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.release(item)
}

// ReleaseMany returns several stacks to the pool. It reports the first error.
func (p *Pool) ReleaseMany(items []*PoolItem) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var first error
	for _, item := range items {
		if err := p.release(item); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (p *Pool) release(item *PoolItem) error {
	if item.pooled {
		return fmt.Errorf("%w: key %d", ErrPooled, item.Key)
	}
	if item.Stack.Stats().Released {
		return ErrReleased
	}
	if depth := item.Stack.Depth(); depth > 0 {
		p.logger.Warn("stack returned to pool with open frames",
			zap.Uint64("key", item.Key),
			zap.Int("depth", depth),
		)
		if err := item.Stack.Release(); err != nil {
			return fmt.Errorf("%w: depth %d: %w", ErrFramesOpen, depth, err)
		}
		return fmt.Errorf("%w: depth %d", ErrFramesOpen, depth)
	}

	peak := item.Stack.Peak()
	if size, ok := p.sizes[item.Key]; ok {
		if size.count == 50 {
			size.count = 1
			size.totalBytes = size.totalBytes / 50
		}
		size.count++
		size.totalBytes += peak
	} else {
		p.sizes[item.Key] = &poolItemSize{
			count:      1,
			totalBytes: peak,
		}
	}

	item.Key = 0
	item.pooled = true
	p.pool = append(p.pool, weak.Make(item))
	return nil
}

// stackSize returns the chunk size for new stacks of a key.
// If no size is recorded, it defaults to 1MB.
func (p *Pool) stackSize(key uint64) int {
	if size, ok := p.sizes[key]; ok && size.totalBytes > 0 {
		return size.totalBytes / size.count
	}
	return defaultPoolChunkSize
}
