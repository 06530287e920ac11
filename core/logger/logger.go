package logger

// Logger exposes the logging methods used across the engine. Pipeline stages
// log through this interface so the zerolog adapter stays an infra concern.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
