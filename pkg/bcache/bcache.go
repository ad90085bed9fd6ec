// Package bcache implements a fixed-capacity cache of device blocks. Each
// cached block carries its own mutex; callers reach the bytes only through
// the Read and Modify closures, which run under that mutex.
//
// A closure may reach other blocks through the cache, so a block mutex can
// be held while the cache mutex is taken. The reverse happens only in
// eviction, which locks unpinned blocks. A block running a closure is
// always pinned, and SyncAll never takes the cache mutex while holding a
// block mutex, so the two orders cannot meet.
package bcache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/example/easyfs/pkg/blockdev"
)

// DefaultCapacity is the number of blocks a cache holds when none is given.
const DefaultCapacity = 16

// MinCapacity is the smallest cache a filesystem can be served from: growing
// a file through its doubly indirect block pins the inode block, the doubly
// indirect block and one index block at once.
const MinCapacity = 4

// ErrCacheFull is returned by Get when every cached block is pinned.
var ErrCacheFull = errors.New("block cache: all blocks in use")

// Block is one cached device block.
type Block struct {
	mu    sync.Mutex
	id    uint32
	data  [blockdev.BlockSize]byte
	dirty bool

	// pins is guarded by the owning cache's mutex
	pins  int
	cache *Cache
}

// ID returns the block id.
func (b *Block) ID() uint32 {
	return b.id
}

// Read runs fn over n bytes of the block starting at offset.
func (b *Block) Read(offset, n int, fn func(p []byte)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.data[offset : offset+n])
}

// Modify runs fn over n bytes of the block starting at offset and marks the
// block dirty.
func (b *Block) Modify(offset, n int, fn func(p []byte)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dirty = true
	fn(b.data[offset : offset+n])
}

// Release unpins the block, making it a candidate for eviction again.
func (b *Block) Release() {
	b.cache.mu.Lock()
	b.pins--
	b.cache.mu.Unlock()
}

// sync writes the block back if it is dirty. Caller holds b.mu.
func (b *Block) sync(dev blockdev.Device) error {
	if !b.dirty {
		return nil
	}
	if err := dev.WriteBlock(b.id, b.data[:]); err != nil {
		return err
	}
	b.dirty = false
	return nil
}

// Cache caches blocks of a single device.
type Cache struct {
	dev      blockdev.Device
	capacity int

	mu     sync.Mutex
	blocks map[uint32]*Block
	queue  []*Block // load order, oldest first
}

// New creates a cache of capacity blocks over dev. A capacity below 1 selects
// DefaultCapacity.
func New(dev blockdev.Device, capacity int) *Cache {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Cache{
		dev:      dev,
		capacity: capacity,
		blocks:   make(map[uint32]*Block, capacity),
	}
}

// Device returns the device behind the cache.
func (c *Cache) Device() blockdev.Device {
	return c.dev
}

// Get returns block id pinned in the cache, loading it from the device when
// needed. The caller must Release the block when done with it.
func (c *Cache) Get(id uint32) (*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.blocks[id]; ok {
		b.pins++
		return b, nil
	}

	if len(c.queue) >= c.capacity {
		if err := c.evict(); err != nil {
			return nil, err
		}
	}

	b := &Block{id: id, cache: c, pins: 1}
	if err := c.dev.ReadBlock(id, b.data[:]); err != nil {
		return nil, err
	}
	c.blocks[id] = b
	c.queue = append(c.queue, b)
	return b, nil
}

// evict drops the oldest unpinned block, writing it back first if dirty.
// Caller holds c.mu.
func (c *Cache) evict() error {
	for i, b := range c.queue {
		if b.pins != 0 {
			continue
		}
		b.mu.Lock()
		err := b.sync(c.dev)
		b.mu.Unlock()
		if err != nil {
			return fmt.Errorf("evict block %d: %w", b.id, err)
		}
		c.queue = append(c.queue[:i], c.queue[i+1:]...)
		delete(c.blocks, b.id)
		return nil
	}
	return ErrCacheFull
}

// Read pins block id, runs fn over n bytes at offset and unpins it.
func (c *Cache) Read(id uint32, offset, n int, fn func(p []byte)) error {
	b, err := c.Get(id)
	if err != nil {
		return err
	}
	defer b.Release()
	b.Read(offset, n, fn)
	return nil
}

// Modify pins block id, runs fn over n bytes at offset and unpins it.
func (c *Cache) Modify(id uint32, offset, n int, fn func(p []byte)) error {
	b, err := c.Get(id)
	if err != nil {
		return err
	}
	defer b.Release()
	b.Modify(offset, n, fn)
	return nil
}

// SyncAll writes every dirty cached block back to the device.
func (c *Cache) SyncAll() error {
	c.mu.Lock()
	snapshot := make([]*Block, len(c.queue))
	copy(snapshot, c.queue)
	c.mu.Unlock()

	var errs []error
	for _, b := range snapshot {
		b.mu.Lock()
		if err := b.sync(c.dev); err != nil {
			errs = append(errs, fmt.Errorf("sync block %d: %w", b.id, err))
		}
		b.mu.Unlock()
	}
	return errors.Join(errs...)
}

// Len returns the number of blocks currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
