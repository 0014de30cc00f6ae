/*
Package log provides the colored, prefixed logger the rest of the service
reports through.

Every line carries the owning component's tag in its own color plus a
severity tag, so interleaved output from the API, the session manager and the
brokers stays readable on one terminal.
*/
package log

import (
	"errors"
	"io"
	"log"
)

// ANSI sequences for the severity tags.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

var ErrNilWriter = errors.New("log: nil output writer")

// Logger writes leveled, color-tagged lines to a single output.
type Logger struct {
	std    *log.Logger
	prefix string
	color  string
}

// New creates a logger that tags every line with the prefix rendered in the
// given ANSI color.
func New(prefix, color string, out io.Writer) (*Logger, error) {
	if out == nil {
		return nil, ErrNilWriter
	}

	return &Logger{
		std:    log.New(out, "", log.LstdFlags),
		prefix: prefix,
		color:  color,
	}, nil
}

// Info records routine operational events.
func (l *Logger) Info(msg string) {
	l.print(colorGreen, "INFO", msg)
}

// Warning records recoverable oddities.
func (l *Logger) Warning(msg string) {
	l.print(colorYellow, "WARNING", msg)
}

// Error records failures that need operator attention.
func (l *Logger) Error(msg string) {
	l.print(colorRed, "ERROR", msg)
}

func (l *Logger) print(levelColor, level, msg string) {
	l.std.Printf("%s[%s]%s %s[%s]%s %s",
		l.color, l.prefix, colorReset,
		levelColor, level, colorReset,
		msg,
	)
}
