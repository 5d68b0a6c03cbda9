// Package logging configures the process-wide logrus logger and hands out
// component-scoped entries.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const serviceName = "tireshop-service"

// Fields is the structured field map attached to log lines.
type Fields = logrus.Fields

var base = newBase(os.Stdout)

func newBase(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Configure sets the level and format ("json" or "text") of the shared logger.
func Configure(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	base.SetLevel(lvl)

	if strings.EqualFold(format, "text") {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

// SetOutput redirects the shared logger, mostly for tests.
func SetOutput(out io.Writer) {
	base.SetOutput(out)
}

// New returns an entry tagged with the service and component names.
func New(component string) *logrus.Entry {
	return base.WithFields(Fields{
		"service":   serviceName,
		"component": component,
	})
}
