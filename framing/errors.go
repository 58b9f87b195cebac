package framing

import "errors"

// ErrFraming covers anything that breaks the tagged byte-stream protocol
// itself: an unrecognized tag byte, a short read before enough data was
// parsed. (A reply longer than the caller's buffer is reported separately
// as ErrReplyTooLarge, which does not wrap ErrFraming.) It is always
// non-retryable at this layer and distinct from a device-reported command
// error, which the commands package classifies on top of a successful
// frame.
var ErrFraming = errors.New("framing: protocol violation")

// ErrTransport wraps a failure reported by the underlying Transport
// (as opposed to a framing-layer parse failure).
var ErrTransport = errors.New("framing: transport failure")

// ErrReplyTooLarge is returned by ReceiveReply when the device-declared
// reply length exceeds the caller-supplied buffer. No further bytes are
// consumed from the transport in that case.
var ErrReplyTooLarge = errors.New("framing: reply exceeds buffer capacity")
