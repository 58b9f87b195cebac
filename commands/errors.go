// Package commands implements the typed request/reply verbs the iQue
// Player's vendor USB protocol exposes, on top of the framing package's
// byte-stream primitives.
package commands

import "errors"

// ErrDeviceError is returned when the console's reply carries a negative
// status word, i.e. the command was framed and delivered correctly but the
// console itself rejected it.
var ErrDeviceError = errors.New("commands: device reported an error")

// ErrRetriesExhausted is returned by the block read/write verbs after five
// unsuccessful attempts.
var ErrRetriesExhausted = errors.New("commands: unsuccessful after 5 retries")

// ErrValidation covers malformed input caught before anything is sent to
// the device, such as an over-long filename.
var ErrValidation = errors.New("commands: invalid argument")

// ErrUnsupportedDevice is returned by GetNumBlocks when the attached card
// does not report the one NAND geometry this agent understands.
var ErrUnsupportedDevice = errors.New("commands: unsupported NAND geometry")
