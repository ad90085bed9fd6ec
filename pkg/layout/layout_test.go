package layout

import (
	"bytes"
	"errors"
	"testing"

	"github.com/example/easyfs/pkg/bcache"
	"github.com/example/easyfs/pkg/blockdev"
)

func TestTotalBlocks(t *testing.T) {
	testCases := []struct {
		name string
		size uint32
		want uint32
	}{
		{"empty", 0, 0},
		{"one byte", 1, 1},
		{"one block", blockdev.BlockSize, 1},
		{"all direct", DirectCount * blockdev.BlockSize, DirectCount},
		{"first indirect", (DirectCount + 1) * blockdev.BlockSize, DirectCount + 2},
		{"indirect1 full", direct1Bound * blockdev.BlockSize, direct1Bound + 1},
		{"first doubly indirect", (direct1Bound + 1) * blockdev.BlockSize, direct1Bound + 1 + 3},
		{"two level-1 blocks", (direct1Bound + Indirect1Count + 1) * blockdev.BlockSize, direct1Bound + Indirect1Count + 1 + 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TotalBlocks(tc.size); got != tc.want {
				t.Errorf("TotalBlocks(%d): got %d, want %d", tc.size, got, tc.want)
			}
		})
	}
}

func TestDirEntry(t *testing.T) {
	d := NewDirEntry("hello", 7)
	raw := d.Bytes()
	if len(raw) != DirentSize {
		t.Fatalf("Encoded length: got %d, want %d", len(raw), DirentSize)
	}

	var back DirEntry
	back.SetBytes(raw)
	if back.Name() != "hello" || back.InodeID() != 7 {
		t.Errorf("Decoded entry: got (%q, %d), want (\"hello\", 7)", back.Name(), back.InodeID())
	}
	if back.Deleted() {
		t.Error("Live entry reported as deleted")
	}

	long := NewDirEntry("abcdefghijklmnopqrstuvwxyz0", 1)
	if long.Name() != "abcdefghijklmnopqrstuvwxyz0" {
		t.Errorf("Name at the length limit: got %q", long.Name())
	}

	ts := Tombstone()
	if ts.Name() != "" || !ts.Deleted() {
		t.Errorf("Tombstone: got (%q, %x)", ts.Name(), ts.InodeID())
	}
}

func TestSuperBlockEncoding(t *testing.T) {
	sb := SuperBlock{Magic: Magic, TotalBlocks: 4096, InodeBitmapBlocks: 1, InodeAreaBlocks: 1024, DataBitmapBlocks: 1, DataAreaBlocks: 3069}
	p := make([]byte, SuperBlockSize)
	sb.Encode(p)

	var back SuperBlock
	back.Decode(p)
	if back != sb || !back.Valid() {
		t.Errorf("Super block: got %+v, want %+v", back, sb)
	}
}

// blockSource hands out consecutive block ids, starting after the inode block.
type blockSource struct {
	next uint32
}

func (s *blockSource) take(n uint32) []uint32 {
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = s.next
		s.next++
	}
	return ids
}

func TestGrowWriteReadClear(t *testing.T) {
	cache := bcache.New(blockdev.NewMemDevice(512), 16)
	src := &blockSource{next: 1}

	var d DiskInode
	d.Initialize(TypeFile)

	sizes := []uint32{100, 3 * blockdev.BlockSize, (DirectCount + 5) * blockdev.BlockSize, (direct1Bound + 140) * blockdev.BlockSize}
	for _, size := range sizes {
		needed := d.BlocksNumNeeded(size)
		if err := d.IncreaseSize(size, src.take(needed), cache); err != nil {
			t.Fatalf("IncreaseSize(%d) failed: %v", size, err)
		}
		if d.Size != size {
			t.Fatalf("Size after IncreaseSize: got %d, want %d", d.Size, size)
		}
	}
	if src.next-1 != TotalBlocks(d.Size) {
		t.Errorf("Blocks handed out: got %d, want %d", src.next-1, TotalBlocks(d.Size))
	}

	data := make([]byte, d.Size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	n, err := d.WriteAt(0, data, cache)
	if err != nil || n != len(data) {
		t.Fatalf("WriteAt: got (%d, %v), want (%d, nil)", n, err, len(data))
	}

	got := make([]byte, len(data)+100)
	n, err = d.ReadAt(0, got, cache)
	if err != nil || n != len(data) {
		t.Fatalf("ReadAt: got (%d, %v), want (%d, nil)", n, err, len(data))
	}
	if !bytes.Equal(got[:n], data) {
		t.Error("Read back data differs from written data")
	}

	// Reads clamp at Size
	n, _ = d.ReadAt(int(d.Size)-10, got, cache)
	if n != 10 {
		t.Errorf("Read across the end: got %d bytes, want 10", n)
	}
	n, _ = d.ReadAt(int(d.Size)+1, got, cache)
	if n != 0 {
		t.Errorf("Read past the end: got %d bytes, want 0", n)
	}

	// Writes never grow the file
	n, _ = d.WriteAt(int(d.Size)-4, []byte("12345678"), cache)
	if n != 4 {
		t.Errorf("Write across the end: got %d bytes, want 4", n)
	}

	want := TotalBlocks(d.Size)
	freed, err := d.ClearSize(cache)
	if err != nil {
		t.Fatalf("ClearSize failed: %v", err)
	}
	if uint32(len(freed)) != want {
		t.Errorf("Freed blocks: got %d, want %d", len(freed), want)
	}
	seen := make(map[uint32]bool)
	for _, id := range freed {
		if id == 0 || id >= src.next || seen[id] {
			t.Fatalf("Unexpected freed block id %d", id)
		}
		seen[id] = true
	}
	if d.Size != 0 || d.Indirect1 != 0 || d.Indirect2 != 0 {
		t.Errorf("Inode not reset after ClearSize: %+v", d)
	}
}

func TestFailedResizeLeavesInode(t *testing.T) {
	// One cached block cannot hold the doubly indirect block and an index
	// block at the same time.
	cache := bcache.New(blockdev.NewMemDevice(512), 1)
	src := &blockSource{next: 1}

	var d DiskInode
	d.Initialize(TypeFile)
	before := d

	size := uint32(direct1Bound+1) * blockdev.BlockSize
	err := d.IncreaseSize(size, src.take(d.BlocksNumNeeded(size)), cache)
	if !errors.Is(err, bcache.ErrCacheFull) {
		t.Fatalf("IncreaseSize with a one block cache: expected ErrCacheFull, got %v", err)
	}
	if d != before {
		t.Errorf("Inode changed by a failed IncreaseSize: got %+v, want %+v", d, before)
	}

	// An index block beyond the device cannot be read
	d = DiskInode{Size: (DirectCount + 2) * blockdev.BlockSize, Indirect1: 9999}
	for i := range d.Direct {
		d.Direct[i] = uint32(i + 1)
	}
	before = d
	if _, err := d.ClearSize(cache); !errors.Is(err, blockdev.ErrOutOfRange) {
		t.Fatalf("ClearSize over a bad index block: expected ErrOutOfRange, got %v", err)
	}
	if d != before {
		t.Errorf("Inode changed by a failed ClearSize: got %+v, want %+v", d, before)
	}
}

func TestDiskInodeEncoding(t *testing.T) {
	var d DiskInode
	d.Initialize(TypeDirectory)
	d.Size = 64
	d.Direct[0] = 10
	d.Direct[DirectCount-1] = 11
	d.Indirect1 = 12
	d.Indirect2 = 13

	p := make([]byte, DiskInodeSize)
	d.Encode(p)
	var back DiskInode
	back.Decode(p)
	if back != d {
		t.Errorf("Disk inode: got %+v, want %+v", back, d)
	}
	if !back.IsDir() || back.IsFile() {
		t.Error("Type tag lost in encoding")
	}
}
