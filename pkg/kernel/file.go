// Package kernel is the syscall-facing layer over the root directory of an
// easy-fs image: open files with private cursors, the resolver that turns
// names into open files, and a per-process descriptor table.
package kernel

import (
	"fmt"
	"io"
	"sync"

	"github.com/example/easyfs/pkg/blockdev"
	"github.com/example/easyfs/pkg/fs"
	"github.com/example/easyfs/pkg/vfs"
)

// OSInode is an open file. The cursor is private to this open; two opens of
// the same inode move independently.
type OSInode struct {
	readable bool
	writable bool

	mu     sync.Mutex
	offset int
	inode  *vfs.Inode
}

var _ fs.File = (*OSInode)(nil)

// NewOSInode wraps inode with the given access rights and a cursor at 0.
func NewOSInode(readable, writable bool, inode *vfs.Inode) *OSInode {
	return &OSInode{
		readable: readable,
		writable: writable,
		inode:    inode,
	}
}

// Readable reports whether the file was opened for reading.
func (f *OSInode) Readable() bool {
	return f.readable
}

// Writable reports whether the file was opened for writing.
func (f *OSInode) Writable() bool {
	return f.writable
}

// Inode returns the handle behind the file.
func (f *OSInode) Inode() *vfs.Inode {
	return f.inode
}

// Read fills each slice of buf in turn from the cursor, stopping at the
// first slice that gets nothing.
func (f *OSInode) Read(buf fs.Buffers) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, p := range buf {
		n, err := f.inode.ReadAt(f.offset, p)
		f.offset += n
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// Write writes each slice of buf at the cursor. The inode grows to fit, so
// a short write means the image is broken.
func (f *OSInode) Write(buf fs.Buffers) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, p := range buf {
		n, err := f.inode.WriteAt(f.offset, p)
		if err != nil {
			return total, err
		}
		if n != len(p) {
			panic(fmt.Sprintf("kernel: wrote %d of %d bytes to inode %d", n, len(p), f.inode.InodeID()))
		}
		f.offset += n
		total += n
	}
	return total, nil
}

// ReadAll reads from the cursor to the end of the file in block-sized chunks.
func (f *OSInode) ReadAll() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var (
		chunk [blockdev.BlockSize]byte
		out   []byte
	)
	for {
		n, err := f.inode.ReadAt(f.offset, chunk[:])
		if err != nil {
			return out, err
		}
		if n == 0 {
			return out, nil
		}
		f.offset += n
		out = append(out, chunk[:n]...)
	}
}

// Seek moves the cursor. Seeking past the end is allowed; the next write
// grows the file.
func (f *OSInode) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(f.offset)
	case io.SeekEnd:
		size, err := f.inode.Size()
		if err != nil {
			return 0, err
		}
		base = int64(size)
	default:
		return 0, fs.NewError("seek", "", fs.ErrInvalid)
	}
	pos := base + offset
	if pos < 0 {
		return 0, fs.NewError("seek", "", fs.ErrInvalid)
	}
	f.offset = int(pos)
	return pos, nil
}

// InodeID returns the id of the inode behind the file.
func (f *OSInode) InodeID() uint32 {
	return f.inode.InodeID()
}

// Mode reports whether the inode is a file or a directory. ModeNull means
// the record could not be read.
func (f *OSInode) Mode() fs.StatMode {
	if dir, err := f.inode.IsDir(); err == nil && dir {
		return fs.ModeDir
	}
	if file, err := f.inode.IsFile(); err == nil && file {
		return fs.ModeFile
	}
	return fs.ModeNull
}

// Stream adapts the file to io.ReadWriteSeeker. Reads report io.EOF at the
// end of the file.
func (f *OSInode) Stream() io.ReadWriteSeeker {
	return stream{f}
}

type stream struct {
	f *OSInode
}

func (s stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := s.f.Read(fs.Buffers{p})
	if err == nil && n == 0 {
		return 0, io.EOF
	}
	return n, err
}

func (s stream) Write(p []byte) (int, error) {
	return s.f.Write(fs.Buffers{p})
}

func (s stream) Seek(offset int64, whence int) (int64, error) {
	return s.f.Seek(offset, whence)
}
