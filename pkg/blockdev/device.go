// Package blockdev provides the block-addressed storage devices a filesystem
// image lives on.
package blockdev

import (
	"errors"
	"fmt"
	"sync"
)

// BlockSize is the size in bytes of every block on a device.
const BlockSize = 512

var (
	// ErrOutOfRange is returned when a block id lies beyond the device.
	ErrOutOfRange = errors.New("block out of range")
	// ErrBadBuffer is returned when the caller's buffer is not one block long.
	ErrBadBuffer = errors.New("buffer is not one block long")
)

// Device is a block-addressed storage device. Implementations must be safe
// for concurrent use.
type Device interface {
	// ReadBlock fills buf, which must be BlockSize bytes, with block id.
	ReadBlock(id uint32, buf []byte) error

	// WriteBlock stores buf, which must be BlockSize bytes, as block id.
	WriteBlock(id uint32, buf []byte) error
}

// MemDevice is a Device backed by memory. The zero value is unusable; use
// NewMemDevice.
type MemDevice struct {
	mu     sync.RWMutex
	blocks [][BlockSize]byte
}

var _ Device = (*MemDevice)(nil)

// NewMemDevice creates a zeroed in-memory device holding n blocks.
func NewMemDevice(n uint32) *MemDevice {
	return &MemDevice{blocks: make([][BlockSize]byte, n)}
}

// NumBlocks returns the number of blocks on the device.
func (d *MemDevice) NumBlocks() uint32 {
	return uint32(len(d.blocks))
}

// ReadBlock implements Device.
func (d *MemDevice) ReadBlock(id uint32, buf []byte) error {
	if len(buf) != BlockSize {
		return ErrBadBuffer
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int(id) >= len(d.blocks) {
		return fmt.Errorf("read block %d: %w", id, ErrOutOfRange)
	}
	copy(buf, d.blocks[id][:])
	return nil
}

// WriteBlock implements Device.
func (d *MemDevice) WriteBlock(id uint32, buf []byte) error {
	if len(buf) != BlockSize {
		return ErrBadBuffer
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(id) >= len(d.blocks) {
		return fmt.Errorf("write block %d: %w", id, ErrOutOfRange)
	}
	copy(d.blocks[id][:], buf)
	return nil
}
