package fs

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ique-tools/aulon-go/commands"
	"github.com/ique-tools/aulon-go/framing"
	"github.com/ique-tools/aulon-go/internal/hostfile"
	"github.com/ique-tools/aulon-go/wire"
)

// FsImage is the in-memory superblock: the 8KiB FAT, 409 directory
// entries, and sequence number of one rotating slot. Callers hold and
// pass a *FsImage explicitly; there is no process-global filesystem state.
type FsImage struct {
	Block        [wire.BlockSize]byte
	Spare        [wire.SpareSize]byte
	CurrentIndex uint32 // offset from SuperblockSlotBase, 0..15
}

func (f *FsImage) Seqno() uint32 {
	return binary.BigEndian.Uint32(f.Block[wire.SeqnoOffset:])
}

func (f *FsImage) setSeqno(v uint32) {
	binary.BigEndian.PutUint32(f.Block[wire.SeqnoOffset:], v)
}

func (f *FsImage) incrementSeqno() {
	f.setSeqno(f.Seqno() + 1)
}

// LoadCurrentFS scans the 16 rotating superblock slots, 0xFFF down to
// 0xFF0, and keeps the one reporting the strictly greatest sequence
// number. It fails if no slot was ever adopted, whether because every
// read failed or because every readable slot reported a sequence number
// of zero.
func LoadCurrentFS(t framing.Transport, log *logrus.Entry, timeout time.Duration) (*FsImage, error) {
	var best *FsImage
	var bestSeqno uint32

	for slot := uint32(wire.SuperblockSlotBase + wire.NumSuperblockSlots - 1); slot >= wire.SuperblockSlotBase; slot-- {
		var candidate FsImage
		if err := commands.ReadBlockSpare(t, log, candidate.Block[:], candidate.Spare[:], slot, timeout); err != nil {
			log.WithError(err).WithField("slot", slot).Warn("unable to read superblock slot")
			continue
		}
		if seqno := candidate.Seqno(); seqno > bestSeqno {
			candidate.CurrentIndex = slot - wire.SuperblockSlotBase
			cp := candidate
			best = &cp
			bestSeqno = seqno
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: unable to find a valid superblock among any of the 16 slots", ErrCorruptFS)
	}
	return best, nil
}

// UpdateFS persists the image to the device: increments the sequence
// number, writes block+spare to the next rotating slot, and re-issues
// INIT_FS so the console reloads it. If the device write itself fails,
// the image is dumped to current_fs.bin on the host before the error is
// returned, so a failed update can be recovered manually.
func (f *FsImage) UpdateFS(t framing.Transport, log *logrus.Entry, timeout time.Duration) error {
	nextIndex := (f.CurrentIndex + wire.NumSuperblockSlots - 1) % wire.NumSuperblockSlots
	nextSlot := nextIndex + wire.SuperblockSlotBase

	f.incrementSeqno()

	if err := commands.WriteBlockSpare(t, log, f.Block[:], f.Spare[:], nextSlot, timeout); err != nil {
		log.WithError(err).WithField("slot", nextSlot).Error("could not update filesystem, dumping image to current_fs.bin")
		if dumpErr := hostfile.WriteAtomic("current_fs.bin", f.Block[:]); dumpErr != nil {
			log.WithError(dumpErr).Error("could not dump filesystem image to host")
		}
		return fmt.Errorf("updating filesystem at slot 0x%04x: %w", nextSlot, err)
	}

	if err := commands.InitFS(t, timeout); err != nil {
		log.WithError(err).Warn("filesystem not synchronized on the device; resetting the console should fix it")
	}
	f.CurrentIndex = nextIndex
	return nil
}

// Stats reports free/used/bad block counts across the entire FAT (SKSA and
// superblock-slot regions included, matching the device's own accounting)
// plus the image's current sequence number.
type Stats struct {
	Free  int
	Used  int
	Bad   int
	Seqno uint32
}

func (f *FsImage) Stats() Stats {
	var s Stats
	for off := 0; off < wire.FATSize; off += 2 {
		switch binary.BigEndian.Uint16(f.Block[off : off+2]) {
		case wire.FATFree:
			s.Free++
		case wire.FATBad:
			s.Bad++
		default:
			s.Used++
		}
	}
	s.Seqno = f.Seqno()
	return s
}

// Bootstrap performs the startup handshake: pin an informational seqno,
// confirm the NAND geometry, load the current filesystem image, tell the
// device to reload it, and clean up any temp.tmp left behind by an
// interrupted write.
func Bootstrap(t framing.Transport, log *logrus.Entry, timeout time.Duration) (*FsImage, error) {
	if err := commands.SetSeqno(t, 1, timeout); err != nil {
		return nil, err
	}
	if err := commands.GetNumBlocks(t, timeout); err != nil {
		return nil, err
	}
	f, err := LoadCurrentFS(t, log, timeout)
	if err != nil {
		return nil, err
	}
	if err := commands.InitFS(t, timeout); err != nil {
		return nil, err
	}
	if err := DeleteAndUpdate(f, t, log, "temp.tmp", timeout); err != nil {
		return nil, err
	}
	return f, nil
}
