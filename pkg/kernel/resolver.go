package kernel

import (
	"log"
	"sort"

	"github.com/example/easyfs/pkg/efs"
	"github.com/example/easyfs/pkg/fs"
	"github.com/example/easyfs/pkg/vfs"
)

// Resolver opens names in the root directory of one image. It owns the root
// handle and the hard-link table; build one per image at startup and pass
// it to whatever needs file access.
type Resolver struct {
	fsys  *efs.FileSystem
	root  *vfs.Inode
	links *vfs.LinkTable
}

var _ fs.FileSystem = (*Resolver)(nil)

// NewResolver returns a resolver over the root directory of fsys.
func NewResolver(fsys *efs.FileSystem) *Resolver {
	return &Resolver{
		fsys:  fsys,
		root:  vfs.Root(fsys),
		links: vfs.NewLinkTable(),
	}
}

// Root returns the root directory handle.
func (r *Resolver) Root() *vfs.Inode {
	return r.root
}

// FileSystem returns the image the resolver works on.
func (r *Resolver) FileSystem() *efs.FileSystem {
	return r.fsys
}

// OpenFile resolves name according to flags. With CREATE an existing file
// is truncated and a missing one is created. Without it the name must exist,
// and TRUNC truncates it.
func (r *Resolver) OpenFile(name string, flags fs.OpenFlags) (*OSInode, error) {
	readable, writable := flags.ReadWrite()

	inode, err := r.root.Find(name)
	switch {
	case err == nil:
		if flags.Has(fs.CREATE) || flags.Has(fs.TRUNC) {
			if err := inode.Clear(); err != nil {
				return nil, err
			}
		}
	case flags.Has(fs.CREATE):
		log.Printf("[open] create file: %s", name)
		inode, err = r.root.Create(name)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return NewOSInode(readable, writable, inode), nil
}

// Open is OpenFile behind the fs.File interface.
func (r *Resolver) Open(name string, flags fs.OpenFlags) (fs.File, error) {
	f, err := r.OpenFile(name, flags)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// FindInode looks name up in the root directory.
func (r *Resolver) FindInode(name string) (*vfs.Inode, error) {
	return r.root.Find(name)
}

// Link adds newName as another entry for oldInodeID.
func (r *Resolver) Link(newName string, oldInodeID uint32) error {
	return r.root.HardLink(newName, oldInodeID, r.links)
}

// Unlink tombstones the first entry called name.
func (r *Resolver) Unlink(name string) error {
	return r.root.Unlink(name, r.links)
}

// Remove tombstones the first entry called name and returns the inode it
// named with the link count left after the removal.
func (r *Resolver) Remove(name string) (*vfs.Inode, uint32, error) {
	return r.root.Remove(name, r.links)
}

// Nlink returns the link count of inodeID.
func (r *Resolver) Nlink(inodeID uint32) uint32 {
	return r.links.Nlink(inodeID)
}

// List returns every root directory slot name, deleted slots included.
func (r *Resolver) List() ([]string, error) {
	return r.root.Ls()
}

// StatFS reports usage of the image.
func (r *Resolver) StatFS() (fs.FSStat, error) {
	r.fsys.Lock()
	defer r.fsys.Unlock()
	return r.fsys.StatFS()
}

// Stat describes an open file.
func (r *Resolver) Stat(f fs.File) fs.Stat {
	id := f.InodeID()
	return fs.Stat{
		Dev:   0,
		Ino:   uint64(id),
		Mode:  f.Mode(),
		Nlink: r.Nlink(id),
	}
}

// HardLink is one row of the hard-link table.
type HardLink struct {
	InodeID uint32
	Count   uint32
}

// HardLinks dumps the hard-link table ordered by inode id.
func (r *Resolver) HardLinks() []HardLink {
	snap := r.links.Snapshot()
	out := make([]HardLink, 0, len(snap))
	for id, n := range snap {
		out = append(out, HardLink{InodeID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InodeID < out[j].InodeID })
	return out
}
