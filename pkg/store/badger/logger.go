package badger

import (
	"strings"

	"github.com/marmos91/appshell/internal/logger"
)

// badgerLogger routes BadgerDB's internal log lines through the process logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logger.Error("badger: "+trimNewline(format), args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logger.Warn("badger: "+trimNewline(format), args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logger.Debug("badger: "+trimNewline(format), args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logger.Debug("badger: "+trimNewline(format), args...)
}

func trimNewline(format string) string {
	return strings.TrimSuffix(format, "\n")
}
