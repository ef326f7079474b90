// Package telemetry wires up the server's ambient logging and metrics:
// a loggers.Advanced logger backed by logrus, with worker panics and
// system-level failures additionally fanned out to a timestamped,
// rotation-capable error log file.
package telemetry

import (
	"fmt"
	"time"

	"github.com/siddontang/loggers"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrorLogFileName returns the timestamped error-log file name for a
// process starting now, e.g. "bulkmt_error_1765900000.log".
func ErrorLogFileName(now time.Time) string {
	return fmt.Sprintf("bulkmt_error_%d.log", now.Unix())
}

// NewLogger returns a loggers.Advanced that writes structured logs to
// stderr, and additionally mirrors Error-and-above records to a rotating
// file named per ErrorLogFileName under dir. dir == "" logs only to
// stderr.
func NewLogger(dir string, now time.Time) loggers.Advanced {
	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if dir == "" {
		return base
	}

	fileLogger := logrus.New()
	fileLogger.SetFormatter(&logrus.JSONFormatter{})
	fileLogger.SetLevel(logrus.ErrorLevel)
	fileLogger.SetOutput(&lumberjack.Logger{
		Filename:   dir + "/" + ErrorLogFileName(now),
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     7, // days
	})

	base.AddHook(&errorFileHook{target: fileLogger})
	return base
}

// errorFileHook mirrors Error-level-and-above log entries from the primary
// logger into the rotating error-log file, so operators tailing stderr and
// the on-disk audit trail see the same failures.
type errorFileHook struct {
	target *logrus.Logger
}

func (h *errorFileHook) Levels() []logrus.Level {
	return logrus.AllLevels[:logrus.ErrorLevel+1]
}

func (h *errorFileHook) Fire(entry *logrus.Entry) error {
	h.target.WithFields(entry.Data).Log(entry.Level, entry.Message)
	return nil
}
