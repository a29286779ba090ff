// Package logx owns the diagnostic logger. User-facing output goes through
// internal/ui; everything else (phase transitions, probe results, retry and
// watchdog activity) is logged here and stays on stderr.
package logx

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.RWMutex
	logger = newLogger()
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return l
}

// Setup applies the configured level. Unknown levels fall back to warn.
func Setup(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.WarnLevel
	}
	mu.Lock()
	logger.SetLevel(parsed)
	mu.Unlock()
}

// SetOutput redirects diagnostic output, used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger.SetOutput(w)
	mu.Unlock()
}

// L returns the shared logger for structured call sites.
func L() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(args ...interface{})                 { L().Debug(args...) }
func Debugf(format string, args ...interface{}) { L().Debugf(format, args...) }
func Info(args ...interface{})                  { L().Info(args...) }
func Infof(format string, args ...interface{})  { L().Infof(format, args...) }
func Warn(args ...interface{})                  { L().Warn(args...) }
func Warnf(format string, args ...interface{})  { L().Warnf(format, args...) }
func Error(args ...interface{})                 { L().Error(args...) }
func Errorf(format string, args ...interface{}) { L().Errorf(format, args...) }
