package types

// Logger is the logging abstraction every gcomm component depends on.
// Implementations are expected to be safe for concurrent use, since the
// send path, the flush engine and the background flusher may all log
// concurrently.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})

	// ToggleDebug enables or disables Debug/Debugf output, returning the
	// previous state.
	ToggleDebug(value bool) bool
}
