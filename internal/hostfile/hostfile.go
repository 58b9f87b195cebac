// Package hostfile provides the host-filesystem side of dumping and
// restoring console data: atomic whole-file writes for NAND/FS dumps (so a
// crash mid-dump never leaves a half-written nand.bin), optional gzip
// compression, and fsync so a dump a user is about to power-cycle around is
// actually durable on disk.
package hostfile

import (
	"fmt"
	"os"

	"github.com/google/renameio"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/sys/unix"
)

// WriteAtomic writes data to path such that readers never observe a partial
// file: it is written to a temporary sibling and renamed into place.
func WriteAtomic(path string, data []byte) error {
	t, err := renameio.TempFile("", path)
	if err != nil {
		return fmt.Errorf("hostfile: create temp file for %s: %w", path, err)
	}
	defer t.Cleanup()

	if _, err := t.Write(data); err != nil {
		return fmt.Errorf("hostfile: write %s: %w", path, err)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("hostfile: replace %s: %w", path, err)
	}
	return syncDir(path)
}

// WriteAtomicGzip is WriteAtomic but compresses data with gzip first. Used
// for the optional compressed full-NAND dump.
func WriteAtomicGzip(path string, data []byte) error {
	t, err := renameio.TempFile("", path)
	if err != nil {
		return fmt.Errorf("hostfile: create temp file for %s: %w", path, err)
	}
	defer t.Cleanup()

	gw := gzip.NewWriter(t)
	if _, err := gw.Write(data); err != nil {
		return fmt.Errorf("hostfile: gzip %s: %w", path, err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("hostfile: finalize gzip %s: %w", path, err)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("hostfile: replace %s: %w", path, err)
	}
	return syncDir(path)
}

// syncDir fsyncs the directory containing path, so the rename performed by
// CloseAtomicallyReplace survives a crash, not just the file's own contents.
func syncDir(path string) error {
	dir, err := os.Open(dirOf(path))
	if err != nil {
		// best effort: a dump that can't fsync its directory is still on disk
		return nil
	}
	defer dir.Close()
	_ = unix.Fsync(int(dir.Fd()))
	return nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
