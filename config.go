// Package ique ties the framing, commands and fs packages together into
// the connect sequence and menu dispatch a REPL or script driver needs. It
// is deliberately thin: every interesting decision lives in one of the
// layers below it.
package ique

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ique-tools/aulon-go/internal/iquelog"
)

// Config carries the orchestrator's runtime options, populated from CLI
// flags by cmd/aulon-go. Mirrors the teacher's Params-struct convention of
// passing typed options into a constructor rather than reaching for
// package globals.
type Config struct {
	// Timeout is the per-transfer timeout passed to every framing
	// operation. Zero means block indefinitely.
	Timeout time.Duration

	// WriteEnabled gates the destructive verbs (W, 2, Y, 4, R). The
	// source ships these behind a separate build; here they are gated at
	// runtime by a flag, since a dynamically linked Go binary has no
	// equivalent of a compile-time feature switch worth the complexity.
	WriteEnabled bool

	// Log receives the structured log output of the commands and fs
	// layers. Defaults to
	// iquelog.New(nil) (stderr) when nil.
	Log *logrus.Logger

	// CompressNandDumps gzips nand.bin on a full NAND dump when true.
	CompressNandDumps bool
}

func (c Config) timeout() time.Duration {
	return c.Timeout
}

func (c Config) logger() *logrus.Logger {
	if c.Log != nil {
		return c.Log
	}
	return iquelog.New(nil)
}
