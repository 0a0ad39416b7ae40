package backupmgr

import "time"

// Logger is the structured log sink used across the package.
// Args are alternating key/value pairs. hclog.Logger satisfies it.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// prefixLogger prepends the manager identifier to every message.
type prefixLogger struct {
	Logger
	prefix string
}

func withPrefix(l Logger, prefix string) Logger {
	if prefix == "" {
		return l
	}
	return prefixLogger{Logger: l, prefix: prefix}
}

func (p prefixLogger) Trace(msg string, args ...any) { p.Logger.Trace(p.prefix+" "+msg, args...) }
func (p prefixLogger) Debug(msg string, args ...any) { p.Logger.Debug(p.prefix+" "+msg, args...) }
func (p prefixLogger) Info(msg string, args ...any)  { p.Logger.Info(p.prefix+" "+msg, args...) }
func (p prefixLogger) Warn(msg string, args ...any)  { p.Logger.Warn(p.prefix+" "+msg, args...) }
func (p prefixLogger) Error(msg string, args ...any) { p.Logger.Error(p.prefix+" "+msg, args...) }

// Clock abstracts time retrieval so the debounce loop is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
