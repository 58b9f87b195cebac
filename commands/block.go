package commands

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ique-tools/aulon-go/framing"
	"github.com/ique-tools/aulon-go/wire"
)

const maxBlockAttempts = 5

// ReadBlockOnly reads the BlockSize-byte contents of block into blockBuffer,
// making up to 5 attempts in total on any framing or device failure.
func ReadBlockOnly(t framing.Transport, log *logrus.Entry, blockBuffer []byte, blockNumber uint32, timeout time.Duration) error {
	if len(blockBuffer) != wire.BlockSize {
		return fmt.Errorf("commands: block buffer must be %d bytes, got %d", wire.BlockSize, len(blockBuffer))
	}
	var lastErr error
	for attempt := 1; attempt <= maxBlockAttempts; attempt++ {
		if err := requestBlockRead(t, wire.CmdReadBlockOnly, blockNumber, timeout); err != nil {
			lastErr = err
			continue
		}
		if err := framing.ReceiveBlock(t, blockBuffer, timeout); err != nil {
			log.WithError(err).WithField("block", blockNumber).Warn("reading block failed")
			lastErr = err
			continue
		}
		return nil
	}
	log.WithField("block", blockNumber).Error("reading block unsuccessful after 5 retries")
	return fmt.Errorf("reading block 0x%04x: %w: %v", blockNumber, ErrRetriesExhausted, lastErr)
}

// ReadBlockSpare reads both the block and its trailing spare area, with the
// same 5-attempt retry policy as ReadBlockOnly.
func ReadBlockSpare(t framing.Transport, log *logrus.Entry, blockBuffer, spareBuffer []byte, blockNumber uint32, timeout time.Duration) error {
	if len(blockBuffer) != wire.BlockSize {
		return fmt.Errorf("commands: block buffer must be %d bytes, got %d", wire.BlockSize, len(blockBuffer))
	}
	if len(spareBuffer) != wire.SpareSize {
		return fmt.Errorf("commands: spare buffer must be %d bytes, got %d", wire.SpareSize, len(spareBuffer))
	}
	var lastErr error
	for attempt := 1; attempt <= maxBlockAttempts; attempt++ {
		if err := requestBlockRead(t, wire.CmdReadBlockAndSpare, blockNumber, timeout); err != nil {
			lastErr = err
			continue
		}
		if err := framing.ReceiveBlock(t, blockBuffer, timeout); err != nil {
			log.WithError(err).WithField("block", blockNumber).Warn("reading block failed")
			lastErr = err
			continue
		}
		if _, err := framing.ReceiveReply(t, spareBuffer, timeout); err != nil {
			log.WithError(err).WithField("block", blockNumber).Warn("reading block spare failed")
			lastErr = err
			continue
		}
		return nil
	}
	log.WithField("block", blockNumber).Error("reading block unsuccessful after 5 retries")
	return fmt.Errorf("reading block 0x%04x: %w: %v", blockNumber, ErrRetriesExhausted, lastErr)
}

func requestBlockRead(t framing.Transport, command, blockNumber uint32, timeout time.Duration) error {
	if err := framing.SendCommand(t, command, blockNumber, timeout); err != nil {
		return fmt.Errorf("command to read block 0x%04x was not received: %w", blockNumber, err)
	}
	if _, err := receiveStatusReply(t, timeout, fmt.Sprintf("requesting read of block 0x%04x", blockNumber)); err != nil {
		return err
	}
	return nil
}

// WriteBlockOnly writes blockBuffer to blockNumber, making up to 5 attempts
// in total. The write is at-least-once: an attempt whose status reply is
// lost is repeated even if the device already committed the block.
func WriteBlockOnly(t framing.Transport, log *logrus.Entry, blockBuffer []byte, blockNumber uint32, timeout time.Duration) error {
	if len(blockBuffer) != wire.BlockSize {
		return fmt.Errorf("commands: block buffer must be %d bytes, got %d", wire.BlockSize, len(blockBuffer))
	}
	var lastErr error
	for attempt := 1; attempt <= maxBlockAttempts; attempt++ {
		if err := requestBlockWrite(t, wire.CmdWriteBlockOnly, blockNumber, timeout); err != nil {
			lastErr = err
			continue
		}
		if err := framing.SendChunked(t, blockBuffer, timeout); err != nil {
			log.WithError(err).WithField("block", blockNumber).Warn("writing block failed")
			lastErr = err
			continue
		}
		if err := checkBlockWrite(t, blockNumber, timeout); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	log.WithField("block", blockNumber).Error("writing block unsuccessful after 5 retries")
	return fmt.Errorf("writing block 0x%04x: %w: %v", blockNumber, ErrRetriesExhausted, lastErr)
}

// WriteBlockSpare writes both blockBuffer and spareBuffer to blockNumber. If
// spareBuffer marks the block bad (byte index 5 is not 0xFF), it returns nil
// immediately without writing anything, matching the console's own
// bad-block convention. Otherwise it makes up to 5 attempts, with the same
// at-least-once behavior as WriteBlockOnly.
func WriteBlockSpare(t framing.Transport, log *logrus.Entry, blockBuffer, spareBuffer []byte, blockNumber uint32, timeout time.Duration) error {
	if len(blockBuffer) != wire.BlockSize {
		return fmt.Errorf("commands: block buffer must be %d bytes, got %d", wire.BlockSize, len(blockBuffer))
	}
	if len(spareBuffer) != wire.SpareSize {
		return fmt.Errorf("commands: spare buffer must be %d bytes, got %d", wire.SpareSize, len(spareBuffer))
	}
	if spareBuffer[5] != 0xFF {
		log.WithField("block", blockNumber).Debug("block marked bad, skipping write")
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= maxBlockAttempts; attempt++ {
		if err := requestBlockWrite(t, wire.CmdWriteBlockAndSpare, blockNumber, timeout); err != nil {
			lastErr = err
			continue
		}
		if err := framing.SendChunked(t, blockBuffer, timeout); err != nil {
			log.WithError(err).WithField("block", blockNumber).Warn("writing block failed")
			lastErr = err
			continue
		}
		if err := sendSpare(t, spareBuffer, timeout); err != nil {
			log.WithError(err).WithField("block", blockNumber).Warn("writing block spare failed")
			lastErr = err
			continue
		}
		if err := checkBlockWrite(t, blockNumber, timeout); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	log.WithField("block", blockNumber).Error("writing block unsuccessful after 5 retries")
	return fmt.Errorf("writing block 0x%04x: %w: %v", blockNumber, ErrRetriesExhausted, lastErr)
}

func requestBlockWrite(t framing.Transport, command, blockNumber uint32, timeout time.Duration) error {
	if err := framing.SendCommand(t, command, blockNumber, timeout); err != nil {
		return fmt.Errorf("command to write block 0x%04x was not received: %w", blockNumber, err)
	}
	return framing.WaitForReady(t, timeout)
}

func checkBlockWrite(t framing.Transport, blockNumber uint32, timeout time.Duration) error {
	_, err := receiveStatusReply(t, timeout, fmt.Sprintf("writing block 0x%04x", blockNumber))
	return err
}

// sendSpare waits for the device to be ready, pads everything past the
// 3-byte spare-area signature with 0xFF, and piecemeal-sends it.
func sendSpare(t framing.Transport, spareBuffer []byte, timeout time.Duration) error {
	if err := framing.WaitForReady(t, timeout); err != nil {
		return err
	}
	for i := 3; i < wire.SpareSize; i++ {
		spareBuffer[i] = 0xFF
	}
	return framing.SendPiecemeal(t, spareBuffer, timeout)
}
