package ique

import "errors"

// ErrWriteDisabled is returned by every destructive verb (full/partial NAND
// write, single-block write, file write, delete) when the session was not
// constructed with Config.WriteEnabled. It mirrors the source's
// write-enabled build: this agent can dump and inspect a console by
// default, and must be explicitly opted into commands that can brick one.
var ErrWriteDisabled = errors.New("ique: this verb requires write mode (-w)")

// ErrValidation covers malformed REPL input: a missing argument, an
// unparsable number, or an unrecognized verb letter.
var ErrValidation = errors.New("ique: invalid command")
