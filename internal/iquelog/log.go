// Package iquelog provides the single structured logger shared by every
// layer of the agent. Callers get a *logrus.Entry scoped to their component
// name rather than reaching for a package-level global.
package iquelog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the base logger. out defaults to os.Stderr when nil, matching
// the source's convention of treating stderr messages as advisory.
func New(out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return l
}

// Component returns a logger entry tagged with the given component name,
// e.g. "framing", "commands", "fs".
func Component(l *logrus.Logger, name string) *logrus.Entry {
	return l.WithField("component", name)
}
