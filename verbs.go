package ique

import (
	"fmt"
	"os"
	"time"

	"github.com/ique-tools/aulon-go/commands"
	iquefs "github.com/ique-tools/aulon-go/fs"
	"github.com/ique-tools/aulon-go/internal/hostfile"
	"github.com/ique-tools/aulon-go/wire"
)

// GetBBID returns the console's unique hardware ID.
func (s *Session) GetBBID() (uint32, error) {
	return commands.GetBBID(s.transport, s.cfg.timeout())
}

// SetLED lights (or clears) the console's front LED.
func (s *Session) SetLED(value uint32) error {
	return commands.SetLED(s.transport, value, s.cfg.timeout())
}

// SetTimeNow sets the console's clock to the current UTC wall time.
func (s *Session) SetTimeNow() error {
	return commands.SetTime(s.transport, commands.EncodeTimeData(time.Now()), s.cfg.timeout())
}

// SignHashFile reads a 20-byte SHA1 hash from hashPath, has the console
// sign it, and writes the 64-byte ECC signature to sigPath.
func (s *Session) SignHashFile(hashPath, sigPath string) error {
	raw, err := os.ReadFile(hashPath)
	if err != nil {
		return fmt.Errorf("ique: reading hash file %s: %w", hashPath, err)
	}
	if len(raw) != wire.SHA1HashLength {
		return fmt.Errorf("ique: %s must hold exactly %d bytes, got %d", hashPath, wire.SHA1HashLength, len(raw))
	}
	var hash [wire.SHA1HashLength]byte
	copy(hash[:], raw)

	sig, err := commands.SignHash(s.transport, hash, s.cfg.timeout())
	if err != nil {
		return err
	}
	return hostfile.WriteAtomic(sigPath, sig[:])
}

// ListFiles lists every valid file currently in the directory.
func (s *Session) ListFiles() []iquefs.FileInfo {
	return iquefs.ListFiles(s.fs)
}

// ListFileBlocks returns the ordered chain of block numbers backing
// filename, for the 'K' verb.
func (s *Session) ListFileBlocks(filename string) ([]uint16, error) {
	return iquefs.ListFileBlocks(s.fs, filename)
}

// Stats reports free/used/bad block counts plus the current sequence
// number, for the 'C' verb.
func (s *Session) Stats() iquefs.Stats {
	return s.fs.Stats()
}

// DumpCurrentFS writes the in-memory superblock image to current_fs.bin,
// for the 'F' verb.
func (s *Session) DumpCurrentFS() error {
	return hostfile.WriteAtomic("current_fs.bin", s.currentFSBlock())
}

// ReadFile dumps a console file to a like-named host file, for the '3'
// verb.
func (s *Session) ReadFile(filename string) error {
	data, err := iquefs.ReadFile(s.fs, s.transport, s.log, filename, s.cfg.timeout())
	if err != nil {
		return err
	}
	return hostfile.WriteAtomic(filename, data)
}

// WriteFile uploads a host file to the console under filename, for the
// '4' verb. Requires write mode.
func (s *Session) WriteFile(filename, hostPath string) error {
	if err := s.requireWriteEnabled(); err != nil {
		return err
	}
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return fmt.Errorf("ique: reading %s: %w", hostPath, err)
	}
	return iquefs.WriteFile(s.fs, s.transport, s.log, filename, data, s.cfg.timeout())
}

// DeleteFile removes filename from the console, for the 'R' verb. Requires
// write mode.
func (s *Session) DeleteFile(filename string) error {
	if err := s.requireWriteEnabled(); err != nil {
		return err
	}
	return iquefs.DeleteAndUpdate(s.fs, s.transport, s.log, filename, s.cfg.timeout())
}

// ReadSingleBlock dumps one NAND block and its spare to block_NNNN and
// spare_NNNN, for the 'X' verb.
func (s *Session) ReadSingleBlock(block uint32) error {
	var data [wire.BlockSize]byte
	var spare [wire.SpareSize]byte
	if err := commands.ReadBlockSpare(s.transport, s.log, data[:], spare[:], block, s.cfg.timeout()); err != nil {
		return err
	}
	if err := hostfile.WriteAtomic(blockFilename(block), data[:]); err != nil {
		return err
	}
	return hostfile.WriteAtomic(spareFilename(block), spare[:])
}

// WriteSingleBlock uploads block_NNNN and spare_NNNN back to the console,
// for the 'Y' verb. Requires write mode.
func (s *Session) WriteSingleBlock(block uint32) error {
	if err := s.requireWriteEnabled(); err != nil {
		return err
	}
	data, err := os.ReadFile(blockFilename(block))
	if err != nil {
		return fmt.Errorf("ique: reading %s: %w", blockFilename(block), err)
	}
	if len(data) != wire.BlockSize {
		return fmt.Errorf("ique: %s must hold exactly %d bytes, got %d", blockFilename(block), wire.BlockSize, len(data))
	}
	spare, err := os.ReadFile(spareFilename(block))
	if err != nil {
		return fmt.Errorf("ique: reading %s: %w", spareFilename(block), err)
	}
	if len(spare) != wire.SpareSize {
		return fmt.Errorf("ique: %s must hold exactly %d bytes, got %d", spareFilename(block), wire.SpareSize, len(spare))
	}
	return commands.WriteBlockSpare(s.transport, s.log, data, spare, block, s.cfg.timeout())
}

func blockFilename(block uint32) string { return fmt.Sprintf("block_%04X", block) }
func spareFilename(block uint32) string { return fmt.Sprintf("spare_%04X", block) }

func (s *Session) currentFSBlock() []byte {
	return s.fs.Block[:]
}
