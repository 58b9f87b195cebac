package fs

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ique-tools/aulon-go/wire"
)

// entryBytes returns the 20-byte directory entry slot for entry i.
func (f *FsImage) entryBytes(i int) []byte {
	off := wire.DirEntriesOffset + i*wire.DirEntrySize
	return f.Block[off : off+wire.DirEntrySize]
}

func trimNulls(b []byte) string {
	i := 0
	for i < len(b) && b[i] != 0 {
		i++
	}
	return string(b[:i])
}

func entryFilename(raw []byte) string {
	stem := trimNulls(raw[wire.DirEntryStemOffset : wire.DirEntryStemOffset+wire.DirEntryStemLen])
	ext := trimNulls(raw[wire.DirEntryExtOffset : wire.DirEntryExtOffset+wire.DirEntryExtLen])
	return stem + "." + ext
}

// entryValid matches the console's own validity test: a null first byte
// means the slot (and likely the whole entry) was never written, a zero
// valid flag means the file was explicitly marked deleted, and a start
// block of -1 means there is no chain to read.
func entryValid(raw []byte) bool {
	if raw[0] == 0 {
		return false
	}
	if raw[wire.DirEntryValidOffset] == 0 {
		return false
	}
	if int16(binary.BigEndian.Uint16(raw[wire.DirEntryStartBlkOffset:])) == -1 {
		return false
	}
	return true
}

func entryBlank(raw []byte) bool {
	for _, b := range raw {
		if b != 0 {
			return false
		}
	}
	return true
}

func entryStartBlock(raw []byte) uint16 {
	return binary.BigEndian.Uint16(raw[wire.DirEntryStartBlkOffset:])
}

func entrySize(raw []byte) uint32 {
	return binary.BigEndian.Uint32(raw[wire.DirEntrySizeOffset:])
}

// splitFilename validates filename against the directory entry's 8.3-style
// layout: exactly one dot, stem of at most 8 characters, extension of at
// most 3, and 12 characters overall.
func splitFilename(filename string) (stem, ext string, err error) {
	dot := strings.IndexByte(filename, '.')
	if dot < 0 || strings.IndexByte(filename[dot+1:], '.') >= 0 {
		return "", "", fmt.Errorf("%w: %q must contain exactly one dot", ErrValidation, filename)
	}
	stem, ext = filename[:dot], filename[dot+1:]
	if len(filename) > 12 || len(stem) > 8 || len(ext) > 3 {
		return "", "", fmt.Errorf("%w: %q exceeds the iQue Player FS name limits", ErrValidation, filename)
	}
	return stem, ext, nil
}

func setEntryFilename(raw []byte, stem, ext string) {
	for i := 0; i < wire.DirEntryStemLen+wire.DirEntryExtLen; i++ {
		raw[i] = 0
	}
	copy(raw[wire.DirEntryStemOffset:wire.DirEntryStemOffset+wire.DirEntryStemLen], stem)
	copy(raw[wire.DirEntryExtOffset:wire.DirEntryExtOffset+wire.DirEntryExtLen], ext)
}

func writeNewEntry(raw []byte, stem, ext string, startBlock uint16, size uint32) {
	setEntryFilename(raw, stem, ext)
	raw[wire.DirEntryValidOffset] = 1
	binary.BigEndian.PutUint16(raw[wire.DirEntryStartBlkOffset:], startBlock)
	binary.BigEndian.PutUint32(raw[wire.DirEntrySizeOffset:], size)
}

func clearEntryBytes(raw []byte) {
	for i := range raw {
		raw[i] = 0
	}
}

// findEntryIndex returns the directory entry index whose reconstructed
// name matches filename exactly, or -1.
func (f *FsImage) findEntryIndex(filename string) int {
	for i := 0; i < wire.NumDirEntries; i++ {
		raw := f.entryBytes(i)
		if entryValid(raw) && entryFilename(raw) == filename {
			return i
		}
	}
	return -1
}

func (f *FsImage) findBlankEntryIndex() int {
	for i := 0; i < wire.NumDirEntries; i++ {
		if entryBlank(f.entryBytes(i)) {
			return i
		}
	}
	return -1
}

func (f *FsImage) renameEntry(oldName, newStem, newExt string) error {
	idx := f.findEntryIndex(oldName)
	if idx < 0 {
		return fmt.Errorf("%w: rename source %q", ErrNotFound, oldName)
	}
	setEntryFilename(f.entryBytes(idx), newStem, newExt)
	return nil
}

// FileInfo describes one valid directory entry.
type FileInfo struct {
	Name   string
	Size   uint32
	Blocks uint32
}

// ListFiles returns every valid file currently in the directory.
func ListFiles(f *FsImage) []FileInfo {
	var out []FileInfo
	for i := 0; i < wire.NumDirEntries; i++ {
		raw := f.entryBytes(i)
		if !entryValid(raw) {
			continue
		}
		size := entrySize(raw)
		out = append(out, FileInfo{
			Name:   entryFilename(raw),
			Size:   size,
			Blocks: size / wire.BlockSize,
		})
	}
	return out
}
