// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// Init sets the level and, when file is non-empty, redirects output to it.
// The returned closer releases the log file.
func Init(level, file string) (io.Closer, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	base.SetLevel(lvl)

	if file == "" {
		base.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	//nolint:gosec // log path is configured by the local user
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	base.SetOutput(f)
	return f, nil
}

// SetOutput redirects log output; tests use it to capture entries.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}
