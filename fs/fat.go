package fs

import (
	"encoding/binary"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/ique-tools/aulon-go/wire"
)

func (f *FsImage) fatCell(block uint16) uint16 {
	return binary.BigEndian.Uint16(f.Block[int(block)*2:])
}

func (f *FsImage) setFatCell(block uint16, value uint16) {
	binary.BigEndian.PutUint16(f.Block[int(block)*2:], value)
}

// Chain walks the FAT linked list starting at start, returning every block
// number visited in order. A next-cell value of FATEnd or FATBad ends the
// chain without being included. It fails if the chain revisits a block or
// exceeds MaxChainLen hops, either of which means the FAT is corrupt.
func (f *FsImage) Chain(start uint16) ([]uint16, error) {
	blocks := make([]uint16, 0, 8)
	seen := make(map[uint16]bool, 8)
	cur := start
	for {
		if seen[cur] {
			return nil, fmt.Errorf("%w: chain revisits block 0x%04x", ErrCorruptFS, cur)
		}
		seen[cur] = true
		blocks = append(blocks, cur)
		if len(blocks) > wire.MaxChainLen {
			return nil, fmt.Errorf("%w: chain exceeds %d blocks", ErrCorruptFS, wire.MaxChainLen)
		}
		next := f.fatCell(cur)
		if next == wire.FATEnd || next == wire.FATBad {
			return blocks, nil
		}
		cur = next
	}
}

// freeBlockBitmap reports every block number whose FAT cell is FATFree.
func (f *FsImage) freeBlockBitmap() *bitset.BitSet {
	bs := bitset.New(wire.NumBlocks)
	for b := 0; b < wire.NumBlocks; b++ {
		if f.fatCell(uint16(b)) == wire.FATFree {
			bs.Set(uint(b))
		}
	}
	return bs
}

func (f *FsImage) freeBlockCount() uint32 {
	return uint32(f.freeBlockBitmap().Count())
}

// findNextFreeBlock returns the first free block number at or after start.
func (f *FsImage) findNextFreeBlock(start uint16) (uint16, bool) {
	idx, ok := f.freeBlockBitmap().NextSet(uint(start))
	if !ok {
		return 0, false
	}
	return uint16(idx), true
}

// allocateChain links numBlocks free blocks starting at startBlock into a
// terminated FAT chain and returns them in order.
func (f *FsImage) allocateChain(startBlock uint16, numBlocks uint32) ([]uint16, error) {
	blocks := make([]uint16, 0, numBlocks)
	cur := startBlock
	for remaining := numBlocks; remaining > 1; remaining-- {
		blocks = append(blocks, cur)
		next, ok := f.findNextFreeBlock(cur + 1)
		if !ok {
			return nil, fmt.Errorf("%w: ran out of free blocks while allocating a chain", ErrNoSpace)
		}
		f.setFatCell(cur, next)
		cur = next
	}
	blocks = append(blocks, cur)
	f.setFatCell(cur, wire.FATEnd)
	return blocks, nil
}

// freeChain walks the chain rooted at start and clears every cell in it.
func (f *FsImage) freeChain(start uint16) error {
	blocks, err := f.Chain(start)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		f.setFatCell(b, wire.FATFree)
	}
	return nil
}
