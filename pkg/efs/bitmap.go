package efs

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/example/easyfs/pkg/bcache"
	"github.com/example/easyfs/pkg/blockdev"
	"github.com/example/easyfs/pkg/layout"
)

const wordsPerBlock = blockdev.BlockSize / 8

// noBit is returned by alloc when the bitmap is full.
const noBit = math.MaxUint32

// bitmap is a run of blocks whose bits mark allocated slots.
type bitmap struct {
	startBlock uint32
	blocks     uint32
}

// maximum returns the number of slots the bitmap can track.
func (b bitmap) maximum() uint32 {
	return b.blocks * layout.BlockBits
}

// alloc sets the first clear bit and returns its number, or noBit.
func (b bitmap) alloc(cache *bcache.Cache) (uint32, error) {
	for blk := uint32(0); blk < b.blocks; blk++ {
		bit := uint32(noBit)
		err := cache.Modify(b.startBlock+blk, 0, blockdev.BlockSize, func(p []byte) {
			for w := 0; w < wordsPerBlock; w++ {
				word := binary.LittleEndian.Uint64(p[8*w:])
				if word == math.MaxUint64 {
					continue
				}
				inner := bits.TrailingZeros64(^word)
				binary.LittleEndian.PutUint64(p[8*w:], word|1<<inner)
				bit = blk*layout.BlockBits + uint32(w*64+inner)
				return
			}
		})
		if err != nil {
			return noBit, err
		}
		if bit != noBit {
			return bit, nil
		}
	}
	return noBit, nil
}

// dealloc clears bit. Clearing a bit that is not set is a corruption.
func (b bitmap) dealloc(cache *bcache.Cache, bit uint32) error {
	blk, pos := bit/layout.BlockBits, bit%layout.BlockBits
	w, inner := int(pos/64), pos%64
	return cache.Modify(b.startBlock+blk, 0, blockdev.BlockSize, func(p []byte) {
		word := binary.LittleEndian.Uint64(p[8*w:])
		if word&(1<<inner) == 0 {
			panic("efs: freeing a slot that is not allocated")
		}
		binary.LittleEndian.PutUint64(p[8*w:], word&^(1<<inner))
	})
}

// count returns the number of set bits.
func (b bitmap) count(cache *bcache.Cache) (uint32, error) {
	var n uint32
	for blk := uint32(0); blk < b.blocks; blk++ {
		err := cache.Read(b.startBlock+blk, 0, blockdev.BlockSize, func(p []byte) {
			for w := 0; w < wordsPerBlock; w++ {
				n += uint32(bits.OnesCount64(binary.LittleEndian.Uint64(p[8*w:])))
			}
		})
		if err != nil {
			return 0, err
		}
	}
	return n, nil
}
