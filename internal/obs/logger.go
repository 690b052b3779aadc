package obs

import (
	"log"
	"os"

	"github.com/fatih/color"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var levelColors = map[Level]*color.Color{
	Debug: color.New(color.FgHiBlack),
	Info:  color.New(color.FgCyan),
	Warn:  color.New(color.FgYellow),
	Error: color.New(color.FgRed, color.Bold),
}

// tag renders the bracketed level, colored when asked and the terminal allows it.
func (l Level) tag(colored bool) string {
	s := "[" + l.String() + "]"
	if !colored {
		return s
	}
	if c, ok := levelColors[l]; ok {
		return c.Sprint(s)
	}
	return s
}

// Logger is a minimal logging interface for observability.
type Logger interface {
	Logf(level Level, format string, args ...interface{})
}

// NopLogger discards all logs.
type NopLogger struct{}

func (NopLogger) Logf(level Level, format string, args ...interface{}) {}

// StdLogger adapts the standard library logger.
type StdLogger struct {
	L     *log.Logger
	Min   Level
	Pref  string // optional prefix per log line
	Color bool   // colorize the level tag
}

// NewStderrLogger returns a StdLogger writing to stderr with the given minimum level.
func NewStderrLogger(min Level, prefix string) StdLogger {
	return StdLogger{
		L:     log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
		Min:   min,
		Pref:  prefix,
		Color: true,
	}
}

func (s StdLogger) Logf(level Level, format string, args ...interface{}) {
	if s.L == nil {
		return
	}
	if level < s.Min {
		return
	}
	if s.Pref != "" {
		s.L.Printf("%s%s "+format, append([]interface{}{s.Pref, level.tag(s.Color)}, args...)...)
	} else {
		s.L.Printf("%s "+format, append([]interface{}{level.tag(s.Color)}, args...)...)
	}
}
