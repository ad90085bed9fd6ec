// Package vfs exposes directory and file operations over the inodes of an
// easy-fs image.
//
// An Inode is a locator: the block and offset of a disk inode plus shared
// references to the filesystem and its block cache. Handles are cheap to
// copy and several may name the same record; every access goes through the
// block cache under the filesystem lock, so aliases see one serialized view.
package vfs

import (
	"fmt"

	"github.com/example/easyfs/pkg/bcache"
	"github.com/example/easyfs/pkg/efs"
	"github.com/example/easyfs/pkg/fs"
	"github.com/example/easyfs/pkg/layout"
)

// Inode is a handle on one on-disk inode record.
type Inode struct {
	blockID     uint32
	blockOffset int
	fs          *efs.FileSystem
	cache       *bcache.Cache
}

// NewInode returns a handle on the record at blockID/blockOffset.
func NewInode(blockID uint32, blockOffset int, fsys *efs.FileSystem) *Inode {
	return &Inode{
		blockID:     blockID,
		blockOffset: blockOffset,
		fs:          fsys,
		cache:       fsys.Cache(),
	}
}

// Root returns a handle on the root directory of fsys.
func Root(fsys *efs.FileSystem) *Inode {
	blockID, offset := fsys.RootInodePos()
	return NewInode(blockID, offset, fsys)
}

func (i *Inode) readDiskInode(fn func(di *layout.DiskInode) error) error {
	b, err := i.cache.Get(i.blockID)
	if err != nil {
		return err
	}
	defer b.Release()

	var ferr error
	b.Read(i.blockOffset, layout.DiskInodeSize, func(p []byte) {
		var di layout.DiskInode
		di.Decode(p)
		ferr = fn(&di)
	})
	return ferr
}

func (i *Inode) modifyDiskInode(fn func(di *layout.DiskInode) error) error {
	b, err := i.cache.Get(i.blockID)
	if err != nil {
		return err
	}
	defer b.Release()

	var ferr error
	b.Modify(i.blockOffset, layout.DiskInodeSize, func(p []byte) {
		var di layout.DiskInode
		di.Decode(p)
		ferr = fn(&di)
		di.Encode(p)
	})
	return ferr
}

// readDirent reads slot k of directory di. A short read means the
// directory is corrupt.
func (i *Inode) readDirent(di *layout.DiskInode, k uint32) (layout.DirEntry, error) {
	buf := make([]byte, layout.DirentSize)
	n, err := di.ReadAt(int(k)*layout.DirentSize, buf, i.cache)
	if err != nil {
		return layout.DirEntry{}, err
	}
	if n != layout.DirentSize {
		panic(fmt.Sprintf("vfs: directory entry %d is %d bytes", k, n))
	}
	var d layout.DirEntry
	d.SetBytes(buf)
	return d, nil
}

// findInodeID scans directory di for name. Tombstones are returned like any
// other entry unless skipDeleted is set.
func (i *Inode) findInodeID(name string, di *layout.DiskInode, skipDeleted bool) (uint32, bool, error) {
	if !di.IsDir() {
		return 0, false, fs.ErrNotDir
	}
	count := di.Size / layout.DirentSize
	for k := uint32(0); k < count; k++ {
		d, err := i.readDirent(di, k)
		if err != nil {
			return 0, false, err
		}
		if d.Name() != name {
			continue
		}
		if skipDeleted && d.Deleted() {
			continue
		}
		return d.InodeID(), true, nil
	}
	return 0, false, nil
}

func validName(name string) error {
	if name == "" {
		return fs.ErrInvalidName
	}
	if len(name) > layout.NameLengthLimit {
		return fs.ErrNameTooLong
	}
	return nil
}

// Find looks name up in this directory.
func (i *Inode) Find(name string) (*Inode, error) {
	i.fs.Lock()
	defer i.fs.Unlock()

	var (
		id    uint32
		found bool
	)
	err := i.readDiskInode(func(di *layout.DiskInode) error {
		var err error
		id, found, err = i.findInodeID(name, di, true)
		return err
	})
	if err != nil {
		return nil, fs.NewError("find", name, err)
	}
	if !found {
		return nil, fs.NewError("find", name, fs.ErrNotExist)
	}
	blockID, offset := i.fs.DiskInodePos(id)
	return NewInode(blockID, offset, i.fs), nil
}

// increaseSize grows di to newSize, allocating the blocks it needs one at a
// time. If the allocator runs dry part way, the blocks already taken are not
// given back. Caller holds the filesystem lock.
func (i *Inode) increaseSize(newSize uint32, di *layout.DiskInode) error {
	if newSize <= di.Size {
		return nil
	}
	if newSize > layout.MaxFileSize {
		return fs.ErrFileTooLarge
	}
	needed := di.BlocksNumNeeded(newSize)
	blocks := make([]uint32, 0, needed)
	for k := uint32(0); k < needed; k++ {
		id, err := i.fs.AllocData()
		if err != nil {
			return err
		}
		blocks = append(blocks, id)
	}
	return di.IncreaseSize(newSize, blocks, i.cache)
}

// appendDirent grows directory di by one slot and writes d into it.
// Caller holds the filesystem lock.
func (i *Inode) appendDirent(di *layout.DiskInode, d layout.DirEntry) error {
	if !di.IsDir() {
		return fs.ErrNotDir
	}
	count := di.Size / layout.DirentSize
	if err := i.increaseSize((count+1)*layout.DirentSize, di); err != nil {
		return err
	}
	_, err := di.WriteAt(int(count)*layout.DirentSize, d.Bytes(), i.cache)
	return err
}

// Create adds an empty file called name to this directory. It fails with
// ErrExist when any slot already carries the name, deleted or not.
func (i *Inode) Create(name string) (*Inode, error) {
	if err := validName(name); err != nil {
		return nil, fs.NewError("create", name, err)
	}

	i.fs.Lock()
	defer i.fs.Unlock()

	var exists bool
	err := i.readDiskInode(func(di *layout.DiskInode) error {
		var err error
		_, exists, err = i.findInodeID(name, di, false)
		return err
	})
	if err != nil {
		return nil, fs.NewError("create", name, err)
	}
	if exists {
		return nil, fs.NewError("create", name, fs.ErrExist)
	}

	newID, err := i.fs.AllocInode()
	if err != nil {
		return nil, fs.NewError("create", name, err)
	}
	blockID, offset := i.fs.DiskInodePos(newID)
	err = i.cache.Modify(blockID, offset, layout.DiskInodeSize, func(p []byte) {
		var di layout.DiskInode
		di.Initialize(layout.TypeFile)
		di.Encode(p)
	})
	if err != nil {
		return nil, fs.NewError("create", name, err)
	}

	err = i.modifyDiskInode(func(di *layout.DiskInode) error {
		return i.appendDirent(di, layout.NewDirEntry(name, newID))
	})
	if err != nil {
		return nil, fs.NewError("create", name, err)
	}

	if err := i.cache.SyncAll(); err != nil {
		return nil, fs.NewError("create", name, err)
	}
	return NewInode(blockID, offset, i.fs), nil
}

// HardLink adds newName to this directory as another entry for inode
// targetID and records the extra link in links.
func (i *Inode) HardLink(newName string, targetID uint32, links *LinkTable) error {
	if err := validName(newName); err != nil {
		return fs.NewError("link", newName, err)
	}

	i.fs.Lock()
	defer i.fs.Unlock()

	err := i.modifyDiskInode(func(di *layout.DiskInode) error {
		return i.appendDirent(di, layout.NewDirEntry(newName, targetID))
	})
	if err != nil {
		return fs.NewError("link", newName, err)
	}
	links.link(targetID)

	if err := i.cache.SyncAll(); err != nil {
		return fs.NewError("link", newName, err)
	}
	return nil
}

// Unlink overwrites the first slot called name with a tombstone and records
// the lost link in links. The slot itself stays in the directory.
func (i *Inode) Unlink(name string, links *LinkTable) error {
	_, _, err := i.Remove(name, links)
	return err
}

// Remove is Unlink that also returns a handle on the inode the removed slot
// named and its link count afterwards, both taken under the same lock hold
// as the removal.
func (i *Inode) Remove(name string, links *LinkTable) (*Inode, uint32, error) {
	if err := validName(name); err != nil {
		return nil, 0, fs.NewError("unlink", name, err)
	}

	i.fs.Lock()
	defer i.fs.Unlock()

	var (
		id    uint32
		found bool
	)
	err := i.modifyDiskInode(func(di *layout.DiskInode) error {
		if !di.IsDir() {
			return fs.ErrNotDir
		}
		count := di.Size / layout.DirentSize
		for k := uint32(0); k < count; k++ {
			d, err := i.readDirent(di, k)
			if err != nil {
				return err
			}
			if d.Name() != name {
				continue
			}
			ts := layout.Tombstone()
			if _, err := di.WriteAt(int(k)*layout.DirentSize, ts.Bytes(), i.cache); err != nil {
				return err
			}
			id, found = d.InodeID(), true
			return nil
		}
		return nil
	})
	if found {
		links.unlink(id)
	}

	if serr := i.cache.SyncAll(); err == nil {
		err = serr
	}
	if err != nil {
		return nil, 0, fs.NewError("unlink", name, err)
	}
	if !found {
		return nil, 0, fs.NewError("unlink", name, fs.ErrNotExist)
	}
	blockID, offset := i.fs.DiskInodePos(id)
	return NewInode(blockID, offset, i.fs), links.Nlink(id), nil
}

// Ls returns the name of every slot in directory order. Deleted slots are
// listed too, as empty names.
func (i *Inode) Ls() ([]string, error) {
	i.fs.Lock()
	defer i.fs.Unlock()

	var names []string
	err := i.readDiskInode(func(di *layout.DiskInode) error {
		if !di.IsDir() {
			return fs.ErrNotDir
		}
		count := di.Size / layout.DirentSize
		names = make([]string, 0, count)
		for k := uint32(0); k < count; k++ {
			d, err := i.readDirent(di, k)
			if err != nil {
				return err
			}
			names = append(names, d.Name())
		}
		return nil
	})
	if err != nil {
		return nil, fs.NewError("ls", "", err)
	}
	return names, nil
}

// ReadAt reads up to len(buf) bytes starting at offset. It returns 0 at or
// past the end of the file.
func (i *Inode) ReadAt(offset int, buf []byte) (int, error) {
	i.fs.Lock()
	defer i.fs.Unlock()

	var n int
	err := i.readDiskInode(func(di *layout.DiskInode) error {
		var err error
		n, err = di.ReadAt(offset, buf, i.cache)
		return err
	})
	return n, err
}

// WriteAt writes buf at offset, growing the file first so the whole buffer
// fits. Bytes between the old end and offset are not defined.
func (i *Inode) WriteAt(offset int, buf []byte) (int, error) {
	end := int64(offset) + int64(len(buf))
	if offset < 0 || end > layout.MaxFileSize {
		return 0, fs.ErrFileTooLarge
	}

	i.fs.Lock()
	defer i.fs.Unlock()

	var n int
	err := i.modifyDiskInode(func(di *layout.DiskInode) error {
		if err := i.increaseSize(uint32(end), di); err != nil {
			return err
		}
		var err error
		n, err = di.WriteAt(offset, buf, i.cache)
		return err
	})
	if serr := i.cache.SyncAll(); err == nil {
		err = serr
	}
	return n, err
}

// Clear truncates the file to zero and returns its blocks to the allocator.
// The inode record itself stays allocated.
func (i *Inode) Clear() error {
	i.fs.Lock()
	defer i.fs.Unlock()

	err := i.modifyDiskInode(func(di *layout.DiskInode) error {
		size := di.Size
		freed, err := di.ClearSize(i.cache)
		if err != nil {
			return err
		}
		if want := layout.TotalBlocks(size); uint32(len(freed)) != want {
			panic(fmt.Sprintf("vfs: freed %d blocks of a %d byte file, want %d", len(freed), size, want))
		}
		for _, id := range freed {
			if err := i.fs.DeallocData(id); err != nil {
				return err
			}
		}
		return nil
	})
	if serr := i.cache.SyncAll(); err == nil {
		err = serr
	}
	if err != nil {
		return fs.NewError("clear", "", err)
	}
	return nil
}

// InodeID returns the id of the inode this handle names.
func (i *Inode) InodeID() uint32 {
	return i.fs.InodeID(i.blockID, i.blockOffset)
}

// IsDir reports whether the inode is a directory.
func (i *Inode) IsDir() (bool, error) {
	i.fs.Lock()
	defer i.fs.Unlock()

	var dir bool
	err := i.readDiskInode(func(di *layout.DiskInode) error {
		dir = di.IsDir()
		return nil
	})
	return dir, err
}

// IsFile reports whether the inode is an ordinary file.
func (i *Inode) IsFile() (bool, error) {
	i.fs.Lock()
	defer i.fs.Unlock()

	var file bool
	err := i.readDiskInode(func(di *layout.DiskInode) error {
		file = di.IsFile()
		return nil
	})
	return file, err
}

// Size returns the file size in bytes.
func (i *Inode) Size() (uint32, error) {
	i.fs.Lock()
	defer i.fs.Unlock()

	var size uint32
	err := i.readDiskInode(func(di *layout.DiskInode) error {
		size = di.Size
		return nil
	})
	return size, err
}
