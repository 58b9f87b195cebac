package ique

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ique-tools/aulon-go/fs"
	"github.com/ique-tools/aulon-go/framing"
)

// Session owns the one FsImage and transport handle a connected console
// gets for the lifetime of the process. There is exactly one Session per
// run: the FS engine and transport are process-wide resources by nature
// (a single USB device, a single in-memory filesystem), so Session is the
// sole place that state is allowed to live, threaded explicitly into every
// operation below it instead of sitting in package globals.
type Session struct {
	transport framing.Transport
	fs        *fs.FsImage
	log       *logrus.Entry
	cfg       Config
}

// Connect runs the startup handshake described in spec.md §4.4: pin an
// informational seqno, confirm NAND geometry, load the current filesystem
// image, tell the device to reload it, and clean up a temp.tmp left behind
// by any prior interrupted write.
func Connect(t framing.Transport, cfg Config) (*Session, error) {
	log := cfg.logger()
	entry := log.WithField("component", "ique")

	image, err := fs.Bootstrap(t, entry, cfg.timeout())
	if err != nil {
		return nil, fmt.Errorf("ique: connect sequence failed: %w", err)
	}

	return &Session{
		transport: t,
		fs:        image,
		log:       entry,
		cfg:       cfg,
	}, nil
}

// Close tears down the transport. Any failure here is reported but does
// not undo work already persisted to the console.
func (s *Session) Close() error {
	if closer, ok := s.transport.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("ique: closing transport: %w", err)
		}
	}
	return nil
}

// requireWriteEnabled returns ErrWriteDisabled unless the session was
// constructed with Config.WriteEnabled, gating every destructive verb.
func (s *Session) requireWriteEnabled() error {
	if !s.cfg.WriteEnabled {
		return ErrWriteDisabled
	}
	return nil
}
