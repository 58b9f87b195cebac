package framing

import (
	"fmt"
	"time"

	"github.com/ique-tools/aulon-go/wire"
)

// receiveLengthPrefix reads 4-byte frames until it sees one that is not the
// ready signal, then decodes it as [0x1B][24-bit big-endian length].
func receiveLengthPrefix(t Transport, timeout time.Duration) (int, error) {
	buf := make([]byte, 4)
	for {
		n, err := t.Receive(buf, timeout)
		if err != nil {
			return 0, fmt.Errorf("%w: length prefix: %v", ErrTransport, err)
		}
		if n != 4 {
			return 0, fmt.Errorf("%w: length prefix: short read of %d bytes", ErrFraming, n)
		}
		if isReady(buf) {
			continue
		}
		if buf[0] != wire.RecvLengthTag {
			return 0, fmt.Errorf("%w: unexpected length prefix tag 0x%02x", ErrFraming, buf[0])
		}
		length := int(buf[1])<<16 | int(buf[2])<<8 | int(buf[3])
		return length, nil
	}
}

// receiveBody reads full transport packets until a short packet is
// received, returning the concatenated bytes.
func receiveBody(t Transport, timeout time.Duration, length int) ([]byte, error) {
	packetSize := t.PacketSize()
	if packetSize < wire.MinUSBPacketSize {
		packetSize = wire.MinUSBPacketSize
	}
	// Generous margin for tag overhead (one tag byte per <=3 payload
	// bytes) plus slack for an inefficient sender, mirroring the
	// source's recv_buffer_length calculation.
	capacity := length + length/3 + 16
	staging := make([]byte, 0, capacity)
	packet := make([]byte, packetSize)
	for {
		n, err := t.Receive(packet, timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: body: %v", ErrTransport, err)
		}
		staging = append(staging, packet[:n]...)
		if n < packetSize {
			break
		}
	}
	return staging, nil
}

// ReceiveReply reads one framed reply: a length prefix (skipping any
// interleaved ready signals), the body in natural transport packets, and
// parses the tagged body into buf. It then emits the one-byte ack. Returns
// the number of bytes copied into buf.
//
// If the declared length exceeds len(buf), ReceiveReply fails without
// reading the body, since the caller cannot safely parse what follows.
func ReceiveReply(t Transport, buf []byte, timeout time.Duration) (int, error) {
	length, err := receiveLengthPrefix(t, timeout)
	if err != nil {
		return 0, err
	}
	if length > len(buf) {
		return 0, fmt.Errorf("%w: reply is %d bytes, buffer holds %d", ErrReplyTooLarge, length, len(buf))
	}

	staging, err := receiveBody(t, timeout, length)
	if err != nil {
		return 0, err
	}

	copied, err := ParseReplyBody(staging, buf[:length])
	if err != nil {
		return 0, err
	}

	if err := Ack(t, timeout); err != nil {
		return copied, err
	}
	return copied, nil
}

// ReceiveBlock reads a full BlockSize-byte NAND block as four successive
// BlockChunkSize framed replies, concatenated in order.
func ReceiveBlock(t Transport, block []byte, timeout time.Duration) error {
	if len(block) != wire.BlockSize {
		return fmt.Errorf("%w: block buffer must be %d bytes, got %d", ErrFraming, wire.BlockSize, len(block))
	}
	for i := 0; i < wire.ChunksPerBlock; i++ {
		off := i * wire.BlockChunkSize
		n, err := ReceiveReply(t, block[off:off+wire.BlockChunkSize], timeout)
		if err != nil {
			return err
		}
		if n != wire.BlockChunkSize {
			return fmt.Errorf("%w: block chunk %d: got %d of %d bytes", ErrFraming, i, n, wire.BlockChunkSize)
		}
	}
	return nil
}
