// Package layout defines the on-disk records of an easy-fs image and the
// index arithmetic that maps a file's byte range onto data blocks.
//
// An image is laid out as
//
//	| super block | inode bitmap | inode area | data bitmap | data area |
//
// and every multi-byte field is stored little endian.
package layout

import (
	"encoding/binary"

	"github.com/example/easyfs/pkg/blockdev"
)

// Magic identifies an easy-fs super block.
const Magic uint32 = 0x3b800001

// SuperBlockSize is the encoded size of a SuperBlock.
const SuperBlockSize = 24

// SuperBlock describes the geometry of an image. It lives at offset 0 of
// block 0.
type SuperBlock struct {
	Magic             uint32
	TotalBlocks       uint32
	InodeBitmapBlocks uint32
	InodeAreaBlocks   uint32
	DataBitmapBlocks  uint32
	DataAreaBlocks    uint32
}

// Valid reports whether the magic number matches.
func (s *SuperBlock) Valid() bool {
	return s.Magic == Magic
}

// Decode fills s from p, which holds at least SuperBlockSize bytes.
func (s *SuperBlock) Decode(p []byte) {
	le := binary.LittleEndian
	s.Magic = le.Uint32(p[0:])
	s.TotalBlocks = le.Uint32(p[4:])
	s.InodeBitmapBlocks = le.Uint32(p[8:])
	s.InodeAreaBlocks = le.Uint32(p[12:])
	s.DataBitmapBlocks = le.Uint32(p[16:])
	s.DataAreaBlocks = le.Uint32(p[20:])
}

// Encode writes s into p, which holds at least SuperBlockSize bytes.
func (s *SuperBlock) Encode(p []byte) {
	le := binary.LittleEndian
	le.PutUint32(p[0:], s.Magic)
	le.PutUint32(p[4:], s.TotalBlocks)
	le.PutUint32(p[8:], s.InodeBitmapBlocks)
	le.PutUint32(p[12:], s.InodeAreaBlocks)
	le.PutUint32(p[16:], s.DataBitmapBlocks)
	le.PutUint32(p[20:], s.DataAreaBlocks)
}

// BlockBits is the number of allocation bits held by one bitmap block.
const BlockBits = blockdev.BlockSize * 8
