package commands

import (
	"fmt"
	"time"

	"github.com/ique-tools/aulon-go/framing"
	"github.com/ique-tools/aulon-go/wire"
)

// SignHash sends a SHA1 hash to the console and returns the 64-byte ECC
// signature it produces for it.
func SignHash(t framing.Transport, hash [wire.SHA1HashLength]byte, timeout time.Duration) ([wire.ECCSigLength]byte, error) {
	var sig [wire.ECCSigLength]byte

	if err := framing.SendCommand(t, wire.CmdSignHash, wire.SHA1HashLength, timeout); err != nil {
		return sig, fmt.Errorf("request to sign hash was not received: %w", err)
	}
	if err := framing.WaitForReady(t, timeout); err != nil {
		return sig, err
	}
	if err := framing.SendChunked(t, hash[:], timeout); err != nil {
		return sig, fmt.Errorf("sending hash to sign: %w", err)
	}

	if _, err := receiveStatusReply(t, timeout, "sign_hash reply"); err != nil {
		return sig, err
	}

	if _, err := framing.ReceiveReply(t, sig[:], timeout); err != nil {
		return sig, fmt.Errorf("receiving ECC signature: %w", err)
	}
	return sig, nil
}
