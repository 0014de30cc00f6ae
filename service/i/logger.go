package i

// Logger is the leveled logger services and infrastructure report through.
type Logger interface {
	// Info records routine operational events.
	Info(msg string)

	// Warning records recoverable oddities, like degraded data.
	Warning(msg string)

	// Error records failures that need operator attention.
	Error(msg string)
}
