// Package fuse mounts the root directory of an easy-fs image on the host.
package fuse

import (
	"context"
	"errors"
	"log"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/example/easyfs/pkg/fs"
	"github.com/example/easyfs/pkg/kernel"
)

// EFS implements the FUSE filesystem interface over a resolver
type EFS struct {
	r    *kernel.Resolver
	proc *kernel.Process
}

var (
	_ fusefs.FS         = (*EFS)(nil)
	_ fusefs.FSStatfser = (*EFS)(nil)
)

// NewEFS creates a FUSE filesystem serving r's root directory
func NewEFS(r *kernel.Resolver) *EFS {
	return &EFS{r: r, proc: kernel.NewProcess(r)}
}

// Root returns the root directory of the filesystem
func (e *EFS) Root() (fusefs.Node, error) {
	return &Dir{fs: e}, nil
}

// Statfs reports usage of the image
func (e *EFS) Statfs(ctx context.Context, req *fuse.StatfsRequest, resp *fuse.StatfsResponse) error {
	st, err := e.r.StatFS()
	if err != nil {
		return toErrno(err)
	}
	resp.Blocks = st.DataBlocks
	resp.Bfree = st.FreeBlocks
	resp.Bavail = st.FreeBlocks
	resp.Files = st.TotalFiles
	resp.Ffree = st.FreeFiles
	resp.Bsize = st.BlockSize
	resp.Frsize = st.BlockSize
	resp.Namelen = st.NameMaxLength
	return nil
}

// fuseInode maps an easy-fs inode id to a FUSE node id. FUSE reserves 1
// for the root, which is easy-fs inode 0.
func fuseInode(id uint32) uint64 {
	return uint64(id) + 1
}

// toErrno converts an error to the errno the kernel expects
func toErrno(err error) error {
	if err == nil {
		return nil
	}

	var errno syscall.Errno
	switch {
	case errors.Is(err, fs.ErrNotExist):
		errno = syscall.ENOENT
	case errors.Is(err, fs.ErrExist):
		errno = syscall.EEXIST
	case errors.Is(err, fs.ErrPermission):
		errno = syscall.EACCES
	case errors.Is(err, fs.ErrNameTooLong):
		errno = syscall.ENAMETOOLONG
	case errors.Is(err, fs.ErrInvalid), errors.Is(err, fs.ErrInvalidName):
		errno = syscall.EINVAL
	case errors.Is(err, fs.ErrNoSpace):
		errno = syscall.ENOSPC
	case errors.Is(err, fs.ErrFileTooLarge):
		errno = syscall.EFBIG
	case errors.Is(err, fs.ErrNotDir):
		errno = syscall.ENOTDIR
	case errors.Is(err, fs.ErrIsDir):
		errno = syscall.EISDIR
	case errors.Is(err, fs.ErrBadFD):
		errno = syscall.EBADF
	case errors.Is(err, fs.ErrNotSupported):
		errno = syscall.ENOTSUP
	case errors.Is(err, fs.ErrIO):
		errno = syscall.EIO
	default:
		log.Printf("fuse: unexpected error: %v", err)
		errno = syscall.EIO
	}
	return fuse.Errno(errno)
}
