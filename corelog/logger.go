// Package corelog is the process-wide logging singleton for the content
// pipeline, following the same lazily-initialised charmbracelet/log setup
// the rest of the engine lineage uses.
package corelog

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once
var singleton *log.Logger

func get() *log.Logger {
	once.Do(func() {
		singleton = log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "Pipeline",
		})
		singleton.SetLevel(log.InfoLevel)
	})
	return singleton
}

// SetLevel adjusts the global log level. Exposed for the host CLI's -v flag.
func SetLevel(level log.Level) {
	get().SetLevel(level)
}

func Debug(msg string, args ...interface{}) { get().Debugf(msg, args...) }
func Info(msg string, args ...interface{})  { get().Infof(msg, args...) }
func Warn(msg string, args ...interface{})  { get().Warnf(msg, args...) }
func Error(msg string, args ...interface{}) { get().Errorf(msg, args...) }
func Fatal(msg string, args ...interface{}) { get().Fatalf(msg, args...) }

// WithFields returns a derived logger carrying structured key/value context,
// used by components that log one line per root cause (spec §7) — e.g. an
// asset id, shader name or permutation hash.
func WithFields(kv ...interface{}) *log.Logger {
	return get().With(kv...)
}
