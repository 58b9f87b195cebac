package fs

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ique-tools/aulon-go/commands"
	"github.com/ique-tools/aulon-go/framing"
	"github.com/ique-tools/aulon-go/wire"
)

func bytesToBlocks(n uint32) uint32 {
	blocks := n / wire.BlockSize
	if n%wire.BlockSize != 0 {
		blocks++
	}
	return blocks
}

func checksumOf(data []byte) uint32 {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return sum
}

// ListFileBlocks returns the chain of block numbers making up filename.
func ListFileBlocks(f *FsImage, filename string) ([]uint16, error) {
	idx := f.findEntryIndex(filename)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, filename)
	}
	return f.Chain(entryStartBlock(f.entryBytes(idx)))
}

// ReadFile reads filename's full block-aligned contents off the console.
// Like the console's own read path, it returns whole blocks, including
// any padding past the file's recorded size in its last block.
func ReadFile(f *FsImage, t framing.Transport, log *logrus.Entry, filename string, timeout time.Duration) ([]byte, error) {
	if len(filename) > 12 {
		return nil, fmt.Errorf("%w: %q is too long for the iQue Player FS", ErrValidation, filename)
	}
	idx := f.findEntryIndex(filename)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, filename)
	}

	chain, err := f.Chain(entryStartBlock(f.entryBytes(idx)))
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, len(chain)*wire.BlockSize)
	block := make([]byte, wire.BlockSize)
	spare := make([]byte, wire.SpareSize)
	for _, b := range chain {
		if err := commands.ReadBlockSpare(t, log, block, spare, uint32(b), timeout); err != nil {
			return nil, fmt.Errorf("reading block 0x%04x of %q: %w", b, filename, err)
		}
		data = append(data, block...)
	}
	return data, nil
}

func writeFileBlocks(t framing.Transport, log *logrus.Entry, data []byte, chain []uint16, timeout time.Duration) error {
	spare := make([]byte, wire.SpareSize)
	for i := range spare {
		spare[i] = 0xFF
	}
	block := make([]byte, wire.BlockSize)
	for i, b := range chain {
		for j := range block {
			block[j] = 0
		}
		off := i * wire.BlockSize
		if off < len(data) {
			copy(block, data[off:])
		}
		if err := commands.WriteBlockSpare(t, log, block, spare, uint32(b), timeout); err != nil {
			return fmt.Errorf("writing block 0x%04x: %w", b, err)
		}
	}
	return nil
}

func (f *FsImage) deleteEntryAt(idx int) error {
	raw := f.entryBytes(idx)
	if err := f.freeChain(entryStartBlock(raw)); err != nil {
		return err
	}
	clearEntryBytes(raw)
	return nil
}

// Delete removes filename's directory entry and frees its FAT chain in
// memory, without persisting anything to the device. It reports whether a
// matching file was found.
func Delete(f *FsImage, filename string) (bool, error) {
	idx := f.findEntryIndex(filename)
	if idx < 0 {
		return false, nil
	}
	if err := f.deleteEntryAt(idx); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteAndUpdate deletes filename (if present) and persists the result
// with UpdateFS. It is a no-op, including no device write, if filename
// does not exist.
func DeleteAndUpdate(f *FsImage, t framing.Transport, log *logrus.Entry, filename string, timeout time.Duration) error {
	deleted, err := Delete(f, filename)
	if err != nil {
		return err
	}
	if !deleted {
		return nil
	}
	return f.UpdateFS(t, log, timeout)
}

// WriteFile writes data to the console under filename. Whether or not the
// write succeeds, the filesystem is always persisted with UpdateFS
// afterward, so the device stays as up to date as possible.
func WriteFile(f *FsImage, t framing.Transport, log *logrus.Entry, filename string, data []byte, timeout time.Duration) error {
	writeErr := f.writeFileLocked(t, log, filename, data, timeout)
	if updateErr := f.UpdateFS(t, log, timeout); updateErr != nil {
		if writeErr == nil {
			return updateErr
		}
		log.WithError(updateErr).Warn("filesystem update after file write also failed")
	}
	return writeErr
}

func (f *FsImage) writeFileLocked(t framing.Transport, log *logrus.Entry, filename string, data []byte, timeout time.Duration) error {
	stem, ext, err := splitFilename(filename)
	if err != nil {
		return err
	}

	blocksRequired := bytesToBlocks(uint32(len(data)))
	if blocksRequired > wire.MaxFileDataBlocks {
		return fmt.Errorf("%w: %q needs %d blocks, limit is %d", ErrFileTooLarge, filename, blocksRequired, uint32(wire.MaxFileDataBlocks))
	}
	checksum := checksumOf(data)
	sizeBytes := blocksRequired * wire.BlockSize

	existingIdx := f.findEntryIndex(filename)
	if existingIdx >= 0 {
		matches, err := commands.FileChecksumMatches(t, filename, checksum, sizeBytes, timeout)
		if err != nil {
			return err
		}
		if matches {
			return fmt.Errorf("%w: %q", ErrAlreadyExists, filename)
		}
	}

	var extraFree uint32
	if existingIdx >= 0 {
		existingChain, err := f.Chain(entryStartBlock(f.entryBytes(existingIdx)))
		if err != nil {
			return err
		}
		extraFree = uint32(len(existingChain))
	}
	if blocksRequired >= f.freeBlockCount()+extraFree {
		return fmt.Errorf("%w: %q needs %d blocks, %d are free", ErrNoSpace, filename, blocksRequired, f.freeBlockCount()+extraFree)
	}

	if existingIdx >= 0 {
		if err := f.deleteEntryAt(existingIdx); err != nil {
			return err
		}
	}

	startBlock, ok := f.findNextFreeBlock(wire.FileDataStart)
	if !ok {
		return fmt.Errorf("%w: no free block to start writing %q", ErrNoSpace, filename)
	}
	blankIdx := f.findBlankEntryIndex()
	if blankIdx < 0 {
		return fmt.Errorf("%w: writing %q", ErrNoFreeEntry, filename)
	}
	writeNewEntry(f.entryBytes(blankIdx), "temp", "tmp", startBlock, sizeBytes)

	chain, err := f.allocateChain(startBlock, blocksRequired)
	if err != nil {
		return err
	}
	if err := writeFileBlocks(t, log, data, chain, timeout); err != nil {
		return err
	}

	tempMatches, err := commands.FileChecksumMatches(t, "temp.tmp", checksum, sizeBytes, timeout)
	if err != nil {
		return err
	}
	if !tempMatches {
		return fmt.Errorf("%w: %q", ErrChecksumMismatch, filename)
	}

	return f.renameEntry("temp.tmp", stem, ext)
}
