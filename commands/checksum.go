package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/ique-tools/aulon-go/framing"
	"github.com/ique-tools/aulon-go/wire"
)

const maxFilenameWireLength = 13

// FileChecksumMatches sends filename, checksum and size to the console and
// reports whether the file already on the console matches. It returns
// ErrValidation if filename (plus its NUL terminator) would exceed the
// 13-byte wire limit.
func FileChecksumMatches(t framing.Transport, filename string, checksum, size uint32, timeout time.Duration) (bool, error) {
	fnLen := uint32(len(filename) + 1)
	if fnLen > maxFilenameWireLength {
		return false, fmt.Errorf("%w: filename %q is too long for the iQue Player FS", ErrValidation, filename)
	}

	if err := framing.SendCommand(t, wire.CmdFileChksum, fnLen, timeout); err != nil {
		return false, fmt.Errorf("FILE_CHKSUM command was not received: %w", err)
	}
	if err := framing.WaitForReady(t, timeout); err != nil {
		return false, err
	}

	fnData := make([]byte, fnLen)
	copy(fnData, filename)
	if err := framing.SendPiecemeal(t, fnData, timeout); err != nil {
		return false, fmt.Errorf("sending filename to the console: %w", err)
	}
	if err := framing.WaitForReady(t, timeout); err != nil {
		return false, err
	}

	// Not actually a command; reuses the (command, argument) wire shape to
	// carry (checksum, size).
	if err := framing.SendCommand(t, checksum, size, timeout); err != nil {
		return false, fmt.Errorf("sending checksum and size: %w", err)
	}
	_, err := receiveStatusReply(t, timeout, "FILE_CHKSUM reply")
	if err != nil {
		if errors.Is(err, ErrDeviceError) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
