// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package comlink

import "github.com/sirupsen/logrus"

// Logger is the narrow logging surface Engine, Scheduler, and Dispatcher
// depend on. Keeping it as an interface (rather than importing logrus
// types into their public signatures) lets callers swap in any logger, or
// none at all — logging is an external, optional concern, not a required
// collaborator, per spec.md §1.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// nopLogger discards everything. It is the default so that constructing an
// Engine never requires configuring a logger.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

// logrusLogger adapts a *logrus.Logger (or *logrus.Entry) to Logger.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps l, tagging every entry with the given communicator
// id for correlation in shared log output.
func NewLogrusLogger(l *logrus.Logger, communicatorID string) Logger {
	if l == nil {
		l = logrus.New()
	}
	return &logrusLogger{entry: l.WithField("comlink.id", communicatorID)}
}

func (l *logrusLogger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
