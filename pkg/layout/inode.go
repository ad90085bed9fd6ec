package layout

import (
	"encoding/binary"
	"fmt"

	"github.com/example/easyfs/pkg/bcache"
	"github.com/example/easyfs/pkg/blockdev"
)

const (
	// DiskInodeSize is the encoded size of a DiskInode.
	DiskInodeSize = 128

	// InodesPerBlock is the number of disk inodes packed into one block.
	InodesPerBlock = blockdev.BlockSize / DiskInodeSize

	// DirectCount is the number of direct block pointers in an inode.
	DirectCount = 28

	// Indirect1Count is the number of pointers in one index block.
	Indirect1Count = blockdev.BlockSize / 4

	// Indirect2Count is the number of data blocks reachable through the
	// doubly indirect pointer.
	Indirect2Count = Indirect1Count * Indirect1Count

	direct1Bound = DirectCount + Indirect1Count
	direct2Bound = direct1Bound + Indirect2Count
)

// MaxFileSize is the largest size an inode can address.
const MaxFileSize = direct2Bound * blockdev.BlockSize

// InodeType tags a disk inode as a file or a directory.
type InodeType uint32

const (
	// TypeFile is an ordinary file
	TypeFile InodeType = iota
	// TypeDirectory is a directory of DirEntry slots
	TypeDirectory
)

// DiskInode is the fixed-location record describing one file or directory.
// Size always equals the number of bytes backed by allocated blocks.
type DiskInode struct {
	Size      uint32
	Direct    [DirectCount]uint32
	Indirect1 uint32
	Indirect2 uint32
	Type      InodeType
}

// Decode fills d from p, which holds DiskInodeSize bytes.
func (d *DiskInode) Decode(p []byte) {
	le := binary.LittleEndian
	d.Size = le.Uint32(p[0:])
	for i := range d.Direct {
		d.Direct[i] = le.Uint32(p[4+4*i:])
	}
	d.Indirect1 = le.Uint32(p[116:])
	d.Indirect2 = le.Uint32(p[120:])
	d.Type = InodeType(le.Uint32(p[124:]))
}

// Encode writes d into p, which holds DiskInodeSize bytes.
func (d *DiskInode) Encode(p []byte) {
	le := binary.LittleEndian
	le.PutUint32(p[0:], d.Size)
	for i, b := range d.Direct {
		le.PutUint32(p[4+4*i:], b)
	}
	le.PutUint32(p[116:], d.Indirect1)
	le.PutUint32(p[120:], d.Indirect2)
	le.PutUint32(p[124:], uint32(d.Type))
}

// Initialize resets d to an empty inode of type t.
func (d *DiskInode) Initialize(t InodeType) {
	*d = DiskInode{Type: t}
}

// IsDir reports whether d is a directory.
func (d *DiskInode) IsDir() bool {
	return d.Type == TypeDirectory
}

// IsFile reports whether d is an ordinary file.
func (d *DiskInode) IsFile() bool {
	return d.Type == TypeFile
}

// DataBlocks returns the number of data blocks needed to hold size bytes.
func DataBlocks(size uint32) uint32 {
	return (size + blockdev.BlockSize - 1) / blockdev.BlockSize
}

// TotalBlocks returns the number of data and index blocks needed to hold
// size bytes.
func TotalBlocks(size uint32) uint32 {
	data := DataBlocks(size)
	total := data
	if data > DirectCount {
		total++
	}
	if data > direct1Bound {
		total++
		total += (data - direct1Bound + Indirect1Count - 1) / Indirect1Count
	}
	return total
}

// BlocksNumNeeded returns how many more blocks d needs to grow to newSize.
func (d *DiskInode) BlocksNumNeeded(newSize uint32) uint32 {
	if newSize < d.Size {
		panic(fmt.Sprintf("layout: BlocksNumNeeded shrinking %d -> %d", d.Size, newSize))
	}
	return TotalBlocks(newSize) - TotalBlocks(d.Size)
}

func indirect(p []byte, i uint32) uint32 {
	return binary.LittleEndian.Uint32(p[4*i:])
}

func setIndirect(p []byte, i uint32, v uint32) {
	binary.LittleEndian.PutUint32(p[4*i:], v)
}

// BlockID maps the inner'th data block of the file to a device block.
func (d *DiskInode) BlockID(inner uint32, cache *bcache.Cache) (uint32, error) {
	switch {
	case inner < DirectCount:
		return d.Direct[inner], nil
	case inner < direct1Bound:
		var id uint32
		err := cache.Read(d.Indirect1, 0, blockdev.BlockSize, func(p []byte) {
			id = indirect(p, inner-DirectCount)
		})
		return id, err
	case inner < direct2Bound:
		last := inner - direct1Bound
		var ind1 uint32
		err := cache.Read(d.Indirect2, 0, blockdev.BlockSize, func(p []byte) {
			ind1 = indirect(p, last/Indirect1Count)
		})
		if err != nil {
			return 0, err
		}
		var id uint32
		err = cache.Read(ind1, 0, blockdev.BlockSize, func(p []byte) {
			id = indirect(p, last%Indirect1Count)
		})
		return id, err
	default:
		panic(fmt.Sprintf("layout: data block %d beyond the largest file", inner))
	}
}

// IncreaseSize grows d to newSize, threading newBlocks into the direct,
// indirect and doubly indirect pointers in that order. newBlocks must hold
// exactly BlocksNumNeeded(newSize) block ids. On error d is left as it was;
// index entries already written past the old end are unreachable.
func (d *DiskInode) IncreaseSize(newSize uint32, newBlocks []uint32, cache *bcache.Cache) error {
	grown := *d
	if err := grown.threadBlocks(newSize, newBlocks, cache); err != nil {
		return err
	}
	grown.Size = newSize
	*d = grown
	return nil
}

func (d *DiskInode) threadBlocks(newSize uint32, newBlocks []uint32, cache *bcache.Cache) error {
	current := DataBlocks(d.Size)
	total := DataBlocks(newSize)
	next := func() uint32 {
		id := newBlocks[0]
		newBlocks = newBlocks[1:]
		return id
	}

	// fill direct
	for current < min(total, DirectCount) {
		d.Direct[current] = next()
		current++
	}

	// alloc indirect1
	if total <= DirectCount {
		return nil
	}
	if current == DirectCount {
		d.Indirect1 = next()
	}
	current -= DirectCount
	total -= DirectCount

	// fill indirect1
	err := cache.Modify(d.Indirect1, 0, blockdev.BlockSize, func(p []byte) {
		for current < min(total, Indirect1Count) {
			setIndirect(p, current, next())
			current++
		}
	})
	if err != nil {
		return err
	}

	// alloc indirect2
	if total <= Indirect1Count {
		return nil
	}
	if current == Indirect1Count {
		d.Indirect2 = next()
	}
	current -= Indirect1Count
	total -= Indirect1Count

	// fill indirect2 from (a0, b0) up to (a1, b1)
	a0, b0 := current/Indirect1Count, current%Indirect1Count
	a1, b1 := total/Indirect1Count, total%Indirect1Count
	ind2, err := cache.Get(d.Indirect2)
	if err != nil {
		return err
	}
	defer ind2.Release()
	for a0 < a1 || (a0 == a1 && b0 < b1) {
		var ind1 uint32
		ind2.Modify(0, blockdev.BlockSize, func(p []byte) {
			if b0 == 0 {
				setIndirect(p, a0, next())
			}
			ind1 = indirect(p, a0)
		})
		err := cache.Modify(ind1, 0, blockdev.BlockSize, func(p []byte) {
			setIndirect(p, b0, next())
		})
		if err != nil {
			return err
		}
		b0++
		if b0 == Indirect1Count {
			b0 = 0
			a0++
		}
	}
	return nil
}

// ClearSize truncates d to zero and returns every data and index block it
// used. The blocks themselves are left untouched. On error d is left as it
// was.
func (d *DiskInode) ClearSize(cache *bcache.Cache) ([]uint32, error) {
	cleared := *d
	freed, err := cleared.collectBlocks(cache)
	if err != nil {
		return nil, err
	}
	*d = cleared
	return freed, nil
}

func (d *DiskInode) collectBlocks(cache *bcache.Cache) ([]uint32, error) {
	var freed []uint32
	data := DataBlocks(d.Size)
	d.Size = 0

	// direct
	var current uint32
	for current < min(data, DirectCount) {
		freed = append(freed, d.Direct[current])
		d.Direct[current] = 0
		current++
	}

	// indirect1 block
	if data <= DirectCount {
		return freed, nil
	}
	freed = append(freed, d.Indirect1)
	data -= DirectCount
	current = 0

	// indirect1
	err := cache.Read(d.Indirect1, 0, blockdev.BlockSize, func(p []byte) {
		for current < min(data, Indirect1Count) {
			freed = append(freed, indirect(p, current))
			current++
		}
	})
	if err != nil {
		return nil, err
	}
	d.Indirect1 = 0

	// indirect2 block
	if data <= Indirect1Count {
		return freed, nil
	}
	freed = append(freed, d.Indirect2)
	data -= Indirect1Count

	// indirect2
	if data > Indirect2Count {
		panic(fmt.Sprintf("layout: %d doubly indirect blocks exceed the index", data))
	}
	a1, b1 := data/Indirect1Count, data%Indirect1Count
	var ind1s []uint32
	err = cache.Read(d.Indirect2, 0, blockdev.BlockSize, func(p []byte) {
		for a := uint32(0); a < a1; a++ {
			ind1s = append(ind1s, indirect(p, a))
		}
		if b1 > 0 {
			ind1s = append(ind1s, indirect(p, a1))
		}
	})
	if err != nil {
		return nil, err
	}
	for i, ind1 := range ind1s {
		n := uint32(Indirect1Count)
		if uint32(i) == a1 {
			n = b1
		}
		freed = append(freed, ind1)
		err := cache.Read(ind1, 0, blockdev.BlockSize, func(p []byte) {
			for j := uint32(0); j < n; j++ {
				freed = append(freed, indirect(p, j))
			}
		})
		if err != nil {
			return nil, err
		}
	}
	d.Indirect2 = 0
	return freed, nil
}

// ReadAt copies file bytes starting at offset into buf. Reading stops at
// Size; the number of bytes copied is returned.
func (d *DiskInode) ReadAt(offset int, buf []byte, cache *bcache.Cache) (int, error) {
	start := offset
	end := min(offset+len(buf), int(d.Size))
	if start >= end {
		return 0, nil
	}
	n := 0
	for start < end {
		blockEnd := min((start/blockdev.BlockSize+1)*blockdev.BlockSize, end)
		size := blockEnd - start
		id, err := d.BlockID(uint32(start/blockdev.BlockSize), cache)
		if err != nil {
			return n, err
		}
		dst := buf[n : n+size]
		err = cache.Read(id, start%blockdev.BlockSize, size, func(p []byte) {
			copy(dst, p)
		})
		if err != nil {
			return n, err
		}
		n += size
		start = blockEnd
	}
	return n, nil
}

// WriteAt copies buf into the file starting at offset. The file never grows
// here: bytes past Size are not written, so callers size the inode first
// with IncreaseSize.
func (d *DiskInode) WriteAt(offset int, buf []byte, cache *bcache.Cache) (int, error) {
	start := offset
	end := min(offset+len(buf), int(d.Size))
	if start > end {
		panic(fmt.Sprintf("layout: write at %d past size %d", offset, d.Size))
	}
	n := 0
	for start < end {
		blockEnd := min((start/blockdev.BlockSize+1)*blockdev.BlockSize, end)
		size := blockEnd - start
		id, err := d.BlockID(uint32(start/blockdev.BlockSize), cache)
		if err != nil {
			return n, err
		}
		src := buf[n : n+size]
		err = cache.Modify(id, start%blockdev.BlockSize, size, func(p []byte) {
			copy(p, src)
		})
		if err != nil {
			return n, err
		}
		n += size
		start = blockEnd
	}
	return n, nil
}
