package fuse

import (
	"context"
	"io"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/example/easyfs/pkg/fs"
	"github.com/example/easyfs/pkg/kernel"
	"github.com/example/easyfs/pkg/vfs"
)

// File represents a file in the root directory
type File struct {
	fs    *EFS
	inode *vfs.Inode
}

var (
	_ fusefs.Node          = (*File)(nil)
	_ fusefs.NodeOpener    = (*File)(nil)
	_ fusefs.NodeSetattrer = (*File)(nil)
	_ fusefs.NodeFsyncer   = (*File)(nil)
)

// Attr sets the attributes of the file
func (f *File) Attr(ctx context.Context, attr *fuse.Attr) error {
	size, err := f.inode.Size()
	if err != nil {
		return toErrno(err)
	}
	id := f.inode.InodeID()
	attr.Inode = fuseInode(id)
	attr.Mode = 0644
	attr.Size = uint64(size)
	attr.Blocks = (uint64(size) + 511) / 512
	attr.Nlink = f.fs.r.Nlink(id)
	return nil
}

// openFlags converts the access mode of a FUSE open
func openFlags(flags fuse.OpenFlags) fs.OpenFlags {
	switch {
	case flags.IsWriteOnly():
		return fs.WRONLY
	case flags.IsReadWrite():
		return fs.RDWR
	default:
		return fs.RDONLY
	}
}

// Open opens the file with its own cursor
func (f *File) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	if req.Flags&fuse.OpenTruncate != 0 {
		if err := f.inode.Clear(); err != nil {
			return nil, toErrno(err)
		}
	}
	readable, writable := openFlags(req.Flags).ReadWrite()
	return &FileHandle{f: kernel.NewOSInode(readable, writable, f.inode)}, nil
}

// Setattr supports truncation to zero only
func (f *File) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	if req.Valid.Size() {
		if req.Size != 0 {
			return toErrno(fs.ErrNotSupported)
		}
		if err := f.inode.Clear(); err != nil {
			return toErrno(err)
		}
	}
	return f.Attr(ctx, &resp.Attr)
}

// Fsync writes every cached block back to the image
func (f *File) Fsync(ctx context.Context, req *fuse.FsyncRequest) error {
	return toErrno(f.fs.r.FileSystem().Cache().SyncAll())
}

// FileHandle is an open file
type FileHandle struct {
	f *kernel.OSInode
}

var (
	_ fusefs.HandleReader = (*FileHandle)(nil)
	_ fusefs.HandleWriter = (*FileHandle)(nil)
)

// Read reads at the requested offset
func (h *FileHandle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	if !h.f.Readable() {
		return toErrno(fs.ErrPermission)
	}
	if _, err := h.f.Seek(req.Offset, io.SeekStart); err != nil {
		return toErrno(err)
	}
	buf := make([]byte, req.Size)
	n, err := h.f.Read(fs.Buffers{buf})
	if err != nil {
		return toErrno(err)
	}
	resp.Data = buf[:n]
	return nil
}

// Write writes at the requested offset
func (h *FileHandle) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	if !h.f.Writable() {
		return toErrno(fs.ErrPermission)
	}
	if _, err := h.f.Seek(req.Offset, io.SeekStart); err != nil {
		return toErrno(err)
	}
	n, err := h.f.Write(fs.Buffers{req.Data})
	if err != nil {
		return toErrno(err)
	}
	resp.Size = n
	return nil
}
