package fuse

import (
	"context"
	"os"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/example/easyfs/pkg/efs"
	"github.com/example/easyfs/pkg/fs"
)

// Dir represents the root directory
type Dir struct {
	fs *EFS
}

var (
	_ fusefs.Node               = (*Dir)(nil)
	_ fusefs.NodeStringLookuper = (*Dir)(nil)
	_ fusefs.HandleReadDirAller = (*Dir)(nil)
	_ fusefs.NodeCreater        = (*Dir)(nil)
	_ fusefs.NodeRemover        = (*Dir)(nil)
	_ fusefs.NodeLinker         = (*Dir)(nil)
)

// Attr sets the attributes of the directory
func (d *Dir) Attr(ctx context.Context, attr *fuse.Attr) error {
	attr.Inode = fuseInode(efs.RootInodeID)
	attr.Mode = os.ModeDir | 0755
	size, err := d.fs.r.Root().Size()
	if err != nil {
		return toErrno(err)
	}
	attr.Size = uint64(size)
	return nil
}

// Lookup looks up a specific entry in the directory
func (d *Dir) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	inode, err := d.fs.r.FindInode(name)
	if err != nil {
		return nil, toErrno(err)
	}
	return &File{fs: d.fs, inode: inode}, nil
}

// ReadDirAll returns all entries in the directory. Deleted slots are
// skipped here; the kernel cannot list an empty name.
func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	names, err := d.fs.r.List()
	if err != nil {
		return nil, toErrno(err)
	}

	dirents := make([]fuse.Dirent, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		inode, err := d.fs.r.FindInode(name)
		if err != nil {
			// unlinked between List and Find
			continue
		}
		dirents = append(dirents, fuse.Dirent{
			Inode: fuseInode(inode.InodeID()),
			Name:  name,
			Type:  fuse.DT_File,
		})
	}
	return dirents, nil
}

// Create creates a file, truncating it if it exists
func (d *Dir) Create(ctx context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (fusefs.Node, fusefs.Handle, error) {
	f, err := d.fs.r.OpenFile(req.Name, fs.CREATE|openFlags(req.Flags))
	if err != nil {
		return nil, nil, toErrno(err)
	}
	return &File{fs: d.fs, inode: f.Inode()}, &FileHandle{f: f}, nil
}

// Remove unlinks a name; the data goes when its last link does
func (d *Dir) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	if req.Dir {
		return toErrno(fs.ErrNotDir)
	}
	return toErrno(d.fs.proc.Unlinkat(req.Name))
}

// Link adds a hard link to old
func (d *Dir) Link(ctx context.Context, req *fuse.LinkRequest, old fusefs.Node) (fusefs.Node, error) {
	file, ok := old.(*File)
	if !ok {
		return nil, toErrno(fs.ErrNotSupported)
	}
	if _, err := d.fs.r.FindInode(req.NewName); err == nil {
		return nil, toErrno(fs.ErrExist)
	}
	if err := d.fs.r.Link(req.NewName, file.inode.InodeID()); err != nil {
		return nil, toErrno(err)
	}
	return &File{fs: d.fs, inode: file.inode}, nil
}
