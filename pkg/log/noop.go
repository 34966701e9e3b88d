package log

var (
	_ Logger = NoopLogger{}
	_ Logger = (*ZerologAdapter)(nil)
	_ Logger = (*ZapAdapter)(nil)
)

// NoopLogger is what connections and discovery log to unless WithLogger is
// given.
type NoopLogger struct{}

// NewNoopLogger returns a logger that drops every entry.
func NewNoopLogger() NoopLogger {
	return NoopLogger{}
}

func (NoopLogger) Debug(string, ...Field) {}
func (NoopLogger) Info(string, ...Field)  {}
func (NoopLogger) Warn(string, ...Field)  {}
func (NoopLogger) Error(string, ...Field) {}
