// Package fs implements the iQue Player's on-NAND filesystem: a single
// superblock holding a FAT and a flat directory of up to 409 files,
// rotated across 16 slots at the top of the NAND. Every operation takes
// an explicit *FsImage rather than touching process-global state.
package fs

import "errors"

var (
	// ErrCorruptFS covers FAT or directory structure that cannot be
	// trusted: a chain that cycles or runs away, or no superblock slot
	// ever reporting a nonzero sequence number.
	ErrCorruptFS = errors.New("fs: corrupt filesystem image")

	// ErrValidation covers a filename that cannot be represented in the
	// 8.3-style directory entry (too long, no extension, more than one
	// dot).
	ErrValidation = errors.New("fs: invalid filename")

	// ErrNotFound is returned when an operation names a file that has no
	// valid directory entry.
	ErrNotFound = errors.New("fs: file not found")

	// ErrAlreadyExists is returned by WriteFile when a file with the same
	// name, checksum and size is already present.
	ErrAlreadyExists = errors.New("fs: identical file already exists on the console")

	// ErrNoSpace is returned when there are not enough free blocks to
	// hold a new file. A missing free directory entry is reported as
	// ErrNoFreeEntry instead.
	ErrNoSpace = errors.New("fs: not enough free blocks")

	ErrNoFreeEntry = errors.New("fs: no free directory entry")

	// ErrFileTooLarge is returned by WriteFile when the source data would
	// need more blocks than the filesystem can address.
	ErrFileTooLarge = errors.New("fs: file too large for the iQue Player FS")

	// ErrChecksumMismatch is returned when the console's checksum of a
	// freshly written file does not match what was sent.
	ErrChecksumMismatch = errors.New("fs: checksum mismatch after write")
)
