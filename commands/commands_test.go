package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ique-tools/aulon-go/internal/iquelog"
	"github.com/ique-tools/aulon-go/wire"
)

func TestGetBBID(t *testing.T) {
	mt := newMockTransport()
	mt.queueReady()
	mt.queueStatusReply(0, 0x12345678)

	bbid, err := GetBBID(mt, time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), bbid)
}

func TestGetBBIDDeviceError(t *testing.T) {
	mt := newMockTransport()
	mt.queueReady()
	mt.queueStatusReply(0, -1)

	_, err := GetBBID(mt, time.Second)
	assert.ErrorIs(t, err, ErrDeviceError)
}

func TestGetNumBlocksAccepts0x1000(t *testing.T) {
	mt := newMockTransport()
	mt.queueReady()
	mt.queueStatusReply(0, int32(wire.NumBlocks))
	require.NoError(t, GetNumBlocks(mt, time.Second))
}

func TestGetNumBlocksRejectsWrongGeometry(t *testing.T) {
	mt := newMockTransport()
	mt.queueReady()
	mt.queueStatusReply(0, 0x0800)
	err := GetNumBlocks(mt, time.Second)
	assert.ErrorIs(t, err, ErrUnsupportedDevice)
}

func TestReadBlockOnly(t *testing.T) {
	log := iquelog.Component(iquelog.New(nil), "test")
	mt := newMockTransport()
	mt.queueReady()
	mt.queueStatusReply(0, 0)
	block := make([]byte, wire.BlockSize)
	for i := range block {
		block[i] = byte(i)
	}
	mt.queueBlock(block)

	out := make([]byte, wire.BlockSize)
	err := ReadBlockOnly(mt, log, out, 0x0123, time.Second)
	require.NoError(t, err)
	assert.Equal(t, block, out)
}

func TestWriteBlockSpareBadBlockShortCircuits(t *testing.T) {
	log := iquelog.Component(iquelog.New(nil), "test")
	mt := newMockTransport()
	block := make([]byte, wire.BlockSize)
	spare := make([]byte, wire.SpareSize)
	spare[5] = 0x00 // not 0xFF: marked bad

	err := WriteBlockSpare(mt, log, block, spare, 0x0200, time.Second)
	require.NoError(t, err)
	assert.Empty(t, mt.sent, "bad block must not trigger any device I/O")
}

func TestFileChecksumMatches(t *testing.T) {
	mt := newMockTransport()
	mt.queueReady() // SendCommand(FILE_CHKSUM,...)
	mt.queueReady() // WaitForReady before filename
	mt.queueReady() // WaitForReady after filename
	mt.queueReady() // SendCommand(checksum, size)
	mt.queueStatusReply(0, 0)

	ok, err := FileChecksumMatches(mt, "foo.bin", 0x1234, 0x5678, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileChecksumMismatchIsNotAnError(t *testing.T) {
	mt := newMockTransport()
	mt.queueReady()
	mt.queueReady()
	mt.queueReady()
	mt.queueReady()
	mt.queueStatusReply(0, -1)

	ok, err := FileChecksumMatches(mt, "foo.bin", 0x1234, 0x5678, time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileChecksumRejectsOverlongFilename(t *testing.T) {
	mt := newMockTransport()
	_, err := FileChecksumMatches(mt, "waytoolongfilenamefortheique", 0, 0, time.Second)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, mt.sent)
}

func TestSignHash(t *testing.T) {
	mt := newMockTransport()
	mt.queueReady() // SendCommand(SIGN_HASH,...)
	mt.queueReady() // WaitForReady before sending the hash
	mt.queueStatusReply(0, 0)
	sig := make([]byte, wire.ECCSigLength)
	for i := range sig {
		sig[i] = byte(i)
	}
	mt.queueFramedReply(sig)

	var hash [wire.SHA1HashLength]byte
	for i := range hash {
		hash[i] = byte(i + 1)
	}
	got, err := SignHash(mt, hash, time.Second)
	require.NoError(t, err)
	assert.Equal(t, sig, got[:])
}
