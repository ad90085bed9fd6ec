// Package efs manages an easy-fs image: formatting, opening, and the
// allocation of inodes and data blocks.
//
// A FileSystem carries one mutex. It serializes every allocation and every
// inode operation above it; methods documented as requiring the lock must
// only be called between Lock and Unlock.
package efs

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/example/easyfs/pkg/bcache"
	"github.com/example/easyfs/pkg/blockdev"
	"github.com/example/easyfs/pkg/fs"
	"github.com/example/easyfs/pkg/layout"
)

// RootInodeID is the inode id of the root directory.
const RootInodeID = 0

var (
	// ErrBadMagic is returned by Open when block 0 is not an easy-fs super block.
	ErrBadMagic = errors.New("efs: bad super block magic")
	// ErrTooSmall is returned by Create when the geometry leaves no data area.
	ErrTooSmall = errors.New("efs: image too small")
)

// FileSystem is an open easy-fs image.
type FileSystem struct {
	mu sync.Mutex

	cache       *bcache.Cache
	super       layout.SuperBlock
	inodeBitmap bitmap
	dataBitmap  bitmap

	inodeAreaStart uint32
	dataAreaStart  uint32
}

func newFileSystem(cache *bcache.Cache, sb layout.SuperBlock) *FileSystem {
	inodeTotal := sb.InodeBitmapBlocks + sb.InodeAreaBlocks
	return &FileSystem{
		cache:          cache,
		super:          sb,
		inodeBitmap:    bitmap{startBlock: 1, blocks: sb.InodeBitmapBlocks},
		dataBitmap:     bitmap{startBlock: 1 + inodeTotal, blocks: sb.DataBitmapBlocks},
		inodeAreaStart: 1 + sb.InodeBitmapBlocks,
		dataAreaStart:  1 + inodeTotal + sb.DataBitmapBlocks,
	}
}

// Create formats the device behind cache as an image of totalBlocks blocks
// with inodeBitmapBlocks blocks of inode bitmap, and creates the root
// directory.
func Create(cache *bcache.Cache, totalBlocks, inodeBitmapBlocks uint32) (*FileSystem, error) {
	inodeBits := bitmap{blocks: inodeBitmapBlocks}.maximum()
	inodeAreaBlocks := (inodeBits*layout.DiskInodeSize + blockdev.BlockSize - 1) / blockdev.BlockSize
	inodeTotal := inodeBitmapBlocks + inodeAreaBlocks
	if inodeBitmapBlocks == 0 || totalBlocks <= 1+inodeTotal+1 {
		return nil, fmt.Errorf("%w: %d blocks cannot hold %d inode blocks", ErrTooSmall, totalBlocks, inodeTotal)
	}
	dataTotal := totalBlocks - 1 - inodeTotal
	dataBitmapBlocks := (dataTotal + layout.BlockBits) / (layout.BlockBits + 1)

	sb := layout.SuperBlock{
		Magic:             layout.Magic,
		TotalBlocks:       totalBlocks,
		InodeBitmapBlocks: inodeBitmapBlocks,
		InodeAreaBlocks:   inodeAreaBlocks,
		DataBitmapBlocks:  dataBitmapBlocks,
		DataAreaBlocks:    dataTotal - dataBitmapBlocks,
	}
	efs := newFileSystem(cache, sb)

	// clear all blocks
	for i := uint32(0); i < totalBlocks; i++ {
		err := cache.Modify(i, 0, blockdev.BlockSize, func(p []byte) {
			clear(p)
		})
		if err != nil {
			return nil, err
		}
	}

	err := cache.Modify(0, 0, layout.SuperBlockSize, func(p []byte) {
		sb.Encode(p)
	})
	if err != nil {
		return nil, err
	}

	efs.Lock()
	root, err := efs.AllocInode()
	efs.Unlock()
	if err != nil {
		return nil, err
	}
	if root != RootInodeID {
		panic(fmt.Sprintf("efs: root allocated as inode %d", root))
	}
	blockID, offset := efs.DiskInodePos(root)
	err = cache.Modify(blockID, offset, layout.DiskInodeSize, func(p []byte) {
		var di layout.DiskInode
		di.Initialize(layout.TypeDirectory)
		di.Encode(p)
	})
	if err != nil {
		return nil, err
	}

	if err := cache.SyncAll(); err != nil {
		return nil, err
	}
	log.Printf("efs: formatted %d blocks (%d inodes, %d data blocks)",
		totalBlocks, inodeBits, sb.DataAreaBlocks)
	return efs, nil
}

// Open reads the super block from the device behind cache.
func Open(cache *bcache.Cache) (*FileSystem, error) {
	var sb layout.SuperBlock
	err := cache.Read(0, 0, layout.SuperBlockSize, func(p []byte) {
		sb.Decode(p)
	})
	if err != nil {
		return nil, fmt.Errorf("read super block: %w", err)
	}
	if !sb.Valid() {
		return nil, ErrBadMagic
	}
	return newFileSystem(cache, sb), nil
}

// Cache returns the block cache the filesystem reads through.
func (efs *FileSystem) Cache() *bcache.Cache {
	return efs.cache
}

// SuperBlock returns a copy of the image geometry.
func (efs *FileSystem) SuperBlock() layout.SuperBlock {
	return efs.super
}

// Lock acquires the filesystem-wide mutex.
func (efs *FileSystem) Lock() {
	efs.mu.Lock()
}

// Unlock releases the filesystem-wide mutex.
func (efs *FileSystem) Unlock() {
	efs.mu.Unlock()
}

// DiskInodePos returns the block and byte offset of inode id's record.
func (efs *FileSystem) DiskInodePos(id uint32) (uint32, int) {
	return efs.inodeAreaStart + id/layout.InodesPerBlock,
		int(id%layout.InodesPerBlock) * layout.DiskInodeSize
}

// InodeID is the inverse of DiskInodePos.
func (efs *FileSystem) InodeID(blockID uint32, offset int) uint32 {
	return (blockID-efs.inodeAreaStart)*layout.InodesPerBlock + uint32(offset/layout.DiskInodeSize)
}

// RootInodePos returns the location of the root directory's record.
func (efs *FileSystem) RootInodePos() (uint32, int) {
	return efs.DiskInodePos(RootInodeID)
}

// AllocInode reserves an inode id. Requires the lock.
func (efs *FileSystem) AllocInode() (uint32, error) {
	id, err := efs.inodeBitmap.alloc(efs.cache)
	if err != nil {
		return 0, err
	}
	if id == noBit {
		log.Printf("efs: out of inodes")
		return 0, fs.ErrNoSpace
	}
	return id, nil
}

// DeallocInode returns inode id to the free pool. Requires the lock.
func (efs *FileSystem) DeallocInode(id uint32) error {
	return efs.inodeBitmap.dealloc(efs.cache, id)
}

// AllocData reserves a data block and returns its device block id.
// Requires the lock.
func (efs *FileSystem) AllocData() (uint32, error) {
	bit, err := efs.dataBitmap.alloc(efs.cache)
	if err != nil {
		return 0, err
	}
	if bit != noBit && bit >= efs.super.DataAreaBlocks {
		// the bitmap tracks a few more bits than the area has blocks
		if err := efs.dataBitmap.dealloc(efs.cache, bit); err != nil {
			return 0, err
		}
		bit = noBit
	}
	if bit == noBit {
		log.Printf("efs: out of data blocks")
		return 0, fs.ErrNoSpace
	}
	return efs.dataAreaStart + bit, nil
}

// DeallocData zeroes data block blockID and returns it to the free pool.
// Requires the lock.
func (efs *FileSystem) DeallocData(blockID uint32) error {
	err := efs.cache.Modify(blockID, 0, blockdev.BlockSize, func(p []byte) {
		clear(p)
	})
	if err != nil {
		return err
	}
	return efs.dataBitmap.dealloc(efs.cache, blockID-efs.dataAreaStart)
}

// StatFS reports usage of the inode and data areas. Requires the lock.
func (efs *FileSystem) StatFS() (fs.FSStat, error) {
	usedInodes, err := efs.inodeBitmap.count(efs.cache)
	if err != nil {
		return fs.FSStat{}, err
	}
	usedData, err := efs.dataBitmap.count(efs.cache)
	if err != nil {
		return fs.FSStat{}, err
	}
	totalInodes := efs.inodeBitmap.maximum()
	return fs.FSStat{
		BlockSize:     blockdev.BlockSize,
		TotalBlocks:   uint64(efs.super.TotalBlocks),
		DataBlocks:    uint64(efs.super.DataAreaBlocks),
		FreeBlocks:    uint64(efs.super.DataAreaBlocks - usedData),
		TotalFiles:    uint64(totalInodes),
		FreeFiles:     uint64(totalInodes - usedInodes),
		NameMaxLength: layout.NameLengthLimit,
	}, nil
}
