package core

// Logger defines the interface for logging operations
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, err error, keysAndValues ...interface{})
}

// Reporter is the operator-facing status sink. Report must never block or
// fail the caller.
type Reporter interface {
	Report(message string)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(message string)

func (f ReporterFunc) Report(message string) { f(message) }
