// Package klog is the kernel's structured logger.
//
// The sentry keeps its own leveled log package behind a stable
// Warningf/Infof call-site shape. That package isn't part of this
// retrieval, so klog wraps logrus behind the same shape instead of
// reinventing a logger from scratch.
package klog

import (
	"os"

	"github.com/sirupsen/logrus"
)

var std = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel adjusts the minimum emitted severity. name is one of
// "debug", "info", "warn", "error".
func SetLevel(name string) {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	std.SetLevel(lvl)
}

// SetOutput redirects log output, e.g. to the serial console.
func SetOutput(w interface{ Write([]byte) (int, error) }) {
	std.SetOutput(w)
}

func Debugf(format string, args ...any) { std.Debugf(format, args...) }
func Infof(format string, args ...any)  { std.Infof(format, args...) }
func Warnf(format string, args ...any)  { std.Warnf(format, args...) }
func Errorf(format string, args ...any) { std.Errorf(format, args...) }

// Panic renders the fatal-kernel-fault banner (register dump + reason)
// and halts the process. It never returns, matching the kernel-mode
// fault policy in §7: unrecoverable faults halt, they don't unwind.
func Panic(banner string) {
	std.Errorln(banner)
	os.Exit(2)
}
