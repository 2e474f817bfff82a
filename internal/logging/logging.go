// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Formats accepted by Init.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Init configures the standard logrus logger with the given level and
// format. If w is nil, os.Stderr is used.
func Init(level, format string, w io.Writer) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if w == nil {
		w = os.Stderr
	}

	std := logrus.StandardLogger()
	std.SetOutput(w)
	std.SetLevel(lvl)

	switch format {
	case FormatJSON:
		std.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	case FormatText, "":
		std.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		return fmt.Errorf("log format %q: must be %s or %s", format, FormatText, FormatJSON)
	}
	return nil
}

// New returns a logger with a "component" field for module-scoped logging.
func New(component string) *logrus.Entry {
	return logrus.StandardLogger().WithField("component", component)
}

// Discard returns a logger that drops everything.
func Discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
