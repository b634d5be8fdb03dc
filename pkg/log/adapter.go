// Package log bridges third-party loggers onto logrus.
package log

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// BadgerLogrusAdapter implements badger.Logger on top of a logrus entry.
// Badger reports routine compaction and value-log activity at info level; the adapter
// demotes those messages to debug so a progress store stays quiet in normal operation.
type BadgerLogrusAdapter struct {
	entry *logrus.Entry
}

// NewBadgerLogrusAdapter creates an adapter that logs through entry.
func NewBadgerLogrusAdapter(entry *logrus.Entry) *BadgerLogrusAdapter {
	return &BadgerLogrusAdapter{entry: entry.WithField("source", "badger")}
}

// Errorf logs an error message
func (l *BadgerLogrusAdapter) Errorf(f string, v ...interface{}) {
	l.entry.Errorf(trimNewline(f), v...)
}

// Warningf logs a warning message
func (l *BadgerLogrusAdapter) Warningf(f string, v ...interface{}) {
	l.entry.Warnf(trimNewline(f), v...)
}

// Infof logs routine Badger activity at debug level
func (l *BadgerLogrusAdapter) Infof(f string, v ...interface{}) {
	l.entry.Debugf(trimNewline(f), v...)
}

// Debugf logs a debug message
func (l *BadgerLogrusAdapter) Debugf(f string, v ...interface{}) {
	l.entry.Debugf(trimNewline(f), v...)
}

// Badger format strings end in a newline; logrus adds its own.
func trimNewline(f string) string {
	return strings.TrimSuffix(f, "\n")
}
