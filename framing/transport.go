package framing

import "time"

// Transport is the opaque USB bulk transport the framing layer is built on.
// Everything about opening the device, matching vendor/product IDs,
// claiming the interface and detaching kernel drivers lives outside the
// core; implementations only need to move bytes.
//
// A zero timeout means "no timeout" (block indefinitely). A transport-level
// timeout that still transferred n > 0 bytes must be reported as a
// successful partial transfer (n, nil), not an error; a timeout with n == 0
// is a transfer failure.
type Transport interface {
	// Send writes data in a single bulk transfer and returns how many
	// bytes were actually written.
	Send(data []byte, timeout time.Duration) (n int, err error)

	// Receive reads into buf in a single bulk transfer and returns how
	// many bytes were actually read. Implementations return the
	// transport's natural packet size's worth of data per call; a short
	// read (n < len(buf)) signals the end of a multi-packet reply.
	Receive(buf []byte, timeout time.Duration) (n int, err error)

	// PacketSize is the transport's natural USB packet size. Must be at
	// least 64 bytes.
	PacketSize() int
}

// DefaultTimeout is the nominal per-transfer timeout of one second.
const DefaultTimeout = 1 * time.Second
