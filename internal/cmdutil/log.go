// internal/cmdutil/log.go
package cmdutil

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// SetupLogging points logrus at dst and applies level ("info", "debug", ...).
// quiet raises the level to error so warnings are dropped.
func SetupLogging(dst io.Writer, level string, quiet bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("bad --log-level %q: %w", level, err)
	}
	if quiet && lvl > logrus.ErrorLevel {
		lvl = logrus.ErrorLevel
	}
	logrus.SetOutput(dst)
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return nil
}

// Warnf logs a warning unless quiet is set.
func Warnf(quiet bool, format string, a ...any) {
	if quiet {
		return
	}
	logrus.Warnf(format, a...)
}
