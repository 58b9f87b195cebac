package commands

import (
	"fmt"
	"time"

	"github.com/ique-tools/aulon-go/framing"
	"github.com/ique-tools/aulon-go/wire"
)

// InitFS asks the device to reload its filesystem state. Its effect on the
// device side beyond acknowledgement is not relied upon.
func InitFS(t framing.Transport, timeout time.Duration) error {
	if err := framing.SendCommand(t, wire.CmdInitFS, 0x0000, timeout); err != nil {
		return fmt.Errorf("INIT_FS command was not received: %w", err)
	}
	_, err := receiveStatusReply(t, timeout, "initializing the FS")
	return err
}

// GetNumBlocks queries the NAND's block count and fails with
// ErrUnsupportedDevice unless it is exactly wire.NumBlocks, the only
// geometry this agent understands.
func GetNumBlocks(t framing.Transport, timeout time.Duration) error {
	if err := framing.SendCommand(t, wire.CmdGetNumBlocks, 0x0000, timeout); err != nil {
		return fmt.Errorf("GET_NUM_BLOCKS command was not received: %w", err)
	}
	var reply statusReply
	n, err := framing.ReceiveReply(t, reply[:], timeout)
	if err != nil {
		return fmt.Errorf("getting block count: %w", err)
	}
	if n != len(reply) {
		return fmt.Errorf("getting block count: got %d of %d reply bytes", n, len(reply))
	}
	if reply.payload() != wire.NumBlocks {
		return fmt.Errorf("%w: NAND reports 0x%x blocks, expected 0x%x", ErrUnsupportedDevice, reply.payload(), uint32(wire.NumBlocks))
	}
	return nil
}

// SetSeqno sends an informational sequence-number hint to the device. The
// device's handling of it is not relied upon; only that it acknowledges
// with a non-negative status.
func SetSeqno(t framing.Transport, value uint32, timeout time.Duration) error {
	if err := framing.SendCommand(t, wire.CmdSetSeqno, value, timeout); err != nil {
		return fmt.Errorf("SET_SEQNO command was not received: %w", err)
	}
	_, err := receiveStatusReply(t, timeout, "setting seqno")
	return err
}

// GetSeqno retrieves the device's informational sequence number.
func GetSeqno(t framing.Transport, timeout time.Duration) (uint32, error) {
	if err := framing.SendCommand(t, wire.CmdGetSeqno, 0x0000, timeout); err != nil {
		return 0, fmt.Errorf("GET_SEQNO command was not received: %w", err)
	}
	reply, err := receiveStatusReply(t, timeout, "getting seqno")
	if err != nil {
		return 0, err
	}
	return reply.payload(), nil
}

// SetLED lights the console's front LED.
func SetLED(t framing.Transport, arg uint32, timeout time.Duration) error {
	if err := framing.SendCommand(t, wire.CmdSetLED, arg, timeout); err != nil {
		return fmt.Errorf("SET_LED command was not received: %w", err)
	}
	_, err := receiveStatusReply(t, timeout, "setting LED")
	return err
}

// GetBBID retrieves the console's unique hardware ID, carried in the low
// 4 bytes of the 8-byte status reply.
func GetBBID(t framing.Transport, timeout time.Duration) (uint32, error) {
	if err := framing.SendCommand(t, wire.CmdGetBBID, 0x0000, timeout); err != nil {
		return 0, fmt.Errorf("GET_BBID command was not received: %w", err)
	}
	reply, err := receiveStatusReply(t, timeout, "requesting BBID")
	if err != nil {
		return 0, err
	}
	return reply.payload(), nil
}
