package fs

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ique-tools/aulon-go/internal/iquelog"
	"github.com/ique-tools/aulon-go/wire"
)

func testLog() *logrus.Entry {
	return iquelog.Component(iquelog.New(nil), "test")
}

func TestSplitFilenameValidation(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
	}{
		{"foo.bin", false},
		{"a.b", false},
		{"12345678.123", false},
		{"123456789.123", true}, // stem too long
		{"foo.1234", true},      // ext too long
		{"noextension", true},   // no dot
		{"a.b.c", true},         // two dots
	}
	for _, c := range cases {
		_, _, err := splitFilename(c.name)
		if c.wantErr {
			assert.Error(t, err, c.name)
		} else {
			assert.NoError(t, err, c.name)
		}
	}
}

func TestChainWalksInOrderAndTerminates(t *testing.T) {
	var img FsImage
	img.setFatCell(0x40, 0x41)
	img.setFatCell(0x41, 0x42)
	img.setFatCell(0x42, wire.FATEnd)

	chain, err := img.Chain(0x40)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x40, 0x41, 0x42}, chain)
}

func TestChainStopsAtBadSentinelWithoutIncludingIt(t *testing.T) {
	var img FsImage
	img.setFatCell(0x40, wire.FATBad)

	chain, err := img.Chain(0x40)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x40}, chain)
}

func TestChainRejectsCycle(t *testing.T) {
	var img FsImage
	img.setFatCell(0x40, 0x41)
	img.setFatCell(0x41, 0x40)

	_, err := img.Chain(0x40)
	assert.ErrorIs(t, err, ErrCorruptFS)
}

func TestFreeBlockCountOnBlankImage(t *testing.T) {
	var img FsImage
	assert.Equal(t, uint32(wire.NumBlocks), img.freeBlockCount())
}

func TestAllocateChainAndFreeChainAreInverses(t *testing.T) {
	var img FsImage
	chain, err := img.allocateChain(wire.FileDataStart, 5)
	require.NoError(t, err)
	require.Len(t, chain, 5)
	assert.Equal(t, uint32(wire.NumBlocks)-5, img.freeBlockCount())

	require.NoError(t, img.freeChain(wire.FileDataStart))
	assert.Equal(t, uint32(wire.NumBlocks), img.freeBlockCount())
}

func TestStatsCountsFreeUsedBad(t *testing.T) {
	var img FsImage
	img.setFatCell(0x40, wire.FATBad)
	img.setFatCell(0x41, wire.FATEnd)
	img.setSeqno(7)

	s := img.Stats()
	assert.Equal(t, 1, s.Bad)
	assert.Equal(t, 1, s.Used)
	assert.Equal(t, wire.NumBlocks-2, s.Free)
	assert.Equal(t, uint32(7), s.Seqno)
}

func TestWriteFileThenDeleteAndUpdate(t *testing.T) {
	log := testLog()
	var img FsImage
	img.CurrentIndex = 0
	copy(img.Spare[:], defaultSpare()) // a loaded image always carries the slot's real, non-bad spare signature

	data := make([]byte, 3*wire.BlockSize+100)
	for i := range data {
		data[i] = byte(i)
	}

	mt := newMockNAND()
	for i := 0; i < 4; i++ {
		mt.queueWriteBlockSpare()
	}
	mt.queueFileChecksum(true)
	mt.queueWriteBlockSpare() // UpdateFS's superblock write
	mt.queueInitFS()

	err := WriteFile(&img, mt, log, "foo.bin", data, time.Second)
	require.NoError(t, err)

	idx := img.findEntryIndex("foo.bin")
	require.GreaterOrEqual(t, idx, 0)
	raw := img.entryBytes(idx)
	assert.Equal(t, uint32(4*wire.BlockSize), entrySize(raw))

	chain, err := img.Chain(entryStartBlock(raw))
	require.NoError(t, err)
	assert.Len(t, chain, 4)
	assert.Equal(t, uint16(wire.FileDataStart), chain[0])

	// seqno incremented exactly once, by UpdateFS.
	assert.Equal(t, uint32(1), img.Seqno())
	assert.Equal(t, uint32(15), img.CurrentIndex) // (0-1) mod 16 == 15

	mt2 := newMockNAND()
	mt2.queueWriteBlockSpare() // UpdateFS's superblock write
	mt2.queueInitFS()
	require.NoError(t, DeleteAndUpdate(&img, mt2, log, "foo.bin", time.Second))
	assert.Equal(t, -1, img.findEntryIndex("foo.bin"))
	assert.Equal(t, uint32(wire.NumBlocks), img.freeBlockCount())
}

func TestWriteFileTooLargeIsRejectedBeforeAnyDeviceIO(t *testing.T) {
	log := testLog()
	var img FsImage
	mt := newMockNAND()

	data := make([]byte, (wire.MaxFileDataBlocks+1)*wire.BlockSize)
	err := WriteFile(&img, mt, log, "huge.bin", data, time.Second)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestDeleteAndUpdateIsNoopWhenFileAbsent(t *testing.T) {
	log := testLog()
	var img FsImage
	mt := newMockNAND()

	err := DeleteAndUpdate(&img, mt, log, "absent.bin", time.Second)
	require.NoError(t, err)
	assert.Empty(t, mt.sent)
}

func TestLoadCurrentFSPicksGreatestSeqno(t *testing.T) {
	log := testLog()
	mt := newMockNAND()

	// Slots scanned 0xFFF down to 0xFF0. Slot 0xFF5 has seqno 42, slot
	// 0xFF8 has seqno 41, all others report 0.
	for slot := uint32(wire.SuperblockSlotBase + wire.NumSuperblockSlots - 1); slot >= wire.SuperblockSlotBase; slot-- {
		var block [wire.BlockSize]byte
		switch slot {
		case 0xFF5:
			binary.BigEndian.PutUint32(block[wire.SeqnoOffset:], 42)
		case 0xFF8:
			binary.BigEndian.PutUint32(block[wire.SeqnoOffset:], 41)
		}
		mt.queueReadBlockSpare(block[:], defaultSpare())
	}

	img, err := LoadCurrentFS(mt, log, time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), img.CurrentIndex)
	assert.Equal(t, uint32(42), img.Seqno())
}
