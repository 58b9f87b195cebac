package framing

import (
	"fmt"
	"time"

	"github.com/ique-tools/aulon-go/wire"
)

// SendPiecemeal tags and sends data as a single bulk write.
func SendPiecemeal(t Transport, data []byte, timeout time.Duration) error {
	encoded := EncodePiecemeal(data)
	if len(encoded) == 0 {
		return nil
	}
	n, err := t.Send(encoded, timeout)
	if err != nil {
		return fmt.Errorf("%w: piecemeal send: %v", ErrTransport, err)
	}
	if n != len(encoded) {
		return fmt.Errorf("%w: piecemeal send: wrote %d of %d bytes", ErrTransport, n, len(encoded))
	}
	return nil
}

// SendChunked sends data as a sequence of chunk frames, each its own bulk
// write.
func SendChunked(t Transport, data []byte, timeout time.Duration) error {
	for _, frame := range EncodeChunks(data) {
		n, err := t.Send(frame, timeout)
		if err != nil {
			return fmt.Errorf("%w: chunked send: %v", ErrTransport, err)
		}
		if n != len(frame) {
			return fmt.Errorf("%w: chunked send: wrote %d of %d bytes", ErrTransport, n, len(frame))
		}
	}
	return nil
}

// WaitForReady blocks, issuing repeated 4-byte receives, until the device's
// ready signal (15 00 00 00) is seen.
func WaitForReady(t Transport, timeout time.Duration) error {
	buf := make([]byte, 4)
	for {
		n, err := t.Receive(buf, timeout)
		if err != nil {
			return fmt.Errorf("%w: waiting for ready: %v", ErrTransport, err)
		}
		if n != 4 {
			continue
		}
		if isReady(buf) {
			return nil
		}
	}
}

func isReady(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == wire.ReadySignal[0] && buf[1] == wire.ReadySignal[1] &&
		buf[2] == wire.ReadySignal[2] && buf[3] == wire.ReadySignal[3]
}

// SendCommand waits for the device to signal ready, then sends the
// (command, argument) request frame as piecemeal data.
func SendCommand(t Transport, command, argument uint32, timeout time.Duration) error {
	if err := WaitForReady(t, timeout); err != nil {
		return err
	}
	return SendPiecemeal(t, EncodeCommand(command, argument), timeout)
}

// Ack sends the single-byte 0x44 acknowledgement that terminates a received
// reply.
func Ack(t Transport, timeout time.Duration) error {
	n, err := t.Send([]byte{wire.AckByte}, timeout)
	if err != nil {
		return fmt.Errorf("%w: ack: %v", ErrTransport, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: ack: wrote %d of 1 byte", ErrTransport, n)
	}
	return nil
}
