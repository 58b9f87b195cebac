package commands

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ique-tools/aulon-go/framing"
)

// statusReply is the common 8-byte acknowledgement shape: 4 bytes that
// echo the request, followed by a 4-byte signed status word that is
// negative on device-side failure.
type statusReply [8]byte

func (r statusReply) isError() bool {
	return int32(binary.BigEndian.Uint32(r[4:8])) < 0
}

func (r statusReply) payload() uint32 {
	return binary.BigEndian.Uint32(r[4:8])
}

// receiveStatusReply reads the standard 8-byte status reply and classifies
// a negative status word as ErrDeviceError.
func receiveStatusReply(t framing.Transport, timeout time.Duration, context string) (statusReply, error) {
	var reply statusReply
	n, err := framing.ReceiveReply(t, reply[:], timeout)
	if err != nil {
		return reply, fmt.Errorf("%s: %w", context, err)
	}
	if n != len(reply) {
		return reply, fmt.Errorf("%s: got %d of %d reply bytes", context, n, len(reply))
	}
	if reply.isError() {
		return reply, fmt.Errorf("%s: %w (status 0x%08x)", context, ErrDeviceError, reply.payload())
	}
	return reply, nil
}
