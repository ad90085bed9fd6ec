package blockdev

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// FileDevice is a Device backed by a disk image file. The image is held
// under an exclusive advisory lock for as long as the device is open.
type FileDevice struct {
	file      *os.File
	numBlocks uint32
}

var _ Device = (*FileDevice)(nil)

// CreateFile creates (or truncates) an image of n zeroed blocks and opens it.
func CreateFile(path string, n uint32) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	if err := f.Truncate(int64(n) * BlockSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("size image: %w", err)
	}
	return newFileDevice(f)
}

// OpenFile opens an existing image read-write.
func OpenFile(path string) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return newFileDevice(f)
}

func newFileDevice(f *os.File) (*FileDevice, error) {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock image %s: %w", f.Name(), err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileDevice{
		file:      f,
		numBlocks: uint32(fi.Size() / BlockSize),
	}, nil
}

// NumBlocks returns the number of whole blocks in the image.
func (d *FileDevice) NumBlocks() uint32 {
	return d.numBlocks
}

// ReadBlock implements Device.
func (d *FileDevice) ReadBlock(id uint32, buf []byte) error {
	if len(buf) != BlockSize {
		return ErrBadBuffer
	}
	if id >= d.numBlocks {
		return fmt.Errorf("read block %d: %w", id, ErrOutOfRange)
	}
	if _, err := d.file.ReadAt(buf, int64(id)*BlockSize); err != nil && err != io.EOF {
		return fmt.Errorf("read block %d: %w", id, err)
	}
	return nil
}

// WriteBlock implements Device.
func (d *FileDevice) WriteBlock(id uint32, buf []byte) error {
	if len(buf) != BlockSize {
		return ErrBadBuffer
	}
	if id >= d.numBlocks {
		return fmt.Errorf("write block %d: %w", id, ErrOutOfRange)
	}
	if _, err := d.file.WriteAt(buf, int64(id)*BlockSize); err != nil {
		return fmt.Errorf("write block %d: %w", id, err)
	}
	return nil
}

// Sync commits written blocks to stable storage.
func (d *FileDevice) Sync() error {
	return unix.Fdatasync(int(d.file.Fd()))
}

// Close releases the image lock and closes the file.
func (d *FileDevice) Close() error {
	unix.Flock(int(d.file.Fd()), unix.LOCK_UN)
	return d.file.Close()
}
