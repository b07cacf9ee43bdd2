// Package logging provides the structured logger used across the planner,
// backed by charmbracelet/log.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger takes a message followed by key/value pairs.
type Logger interface {
	Debug(interface{}, ...interface{})
	Info(interface{}, ...interface{})
	Warn(interface{}, ...interface{})
	Error(interface{}, ...interface{})
}

type Options struct {
	Writer io.Writer
	Level  string
	Prefix string
}

func New(opts Options) *log.Logger {
	var w io.Writer = os.Stderr
	if opts.Writer != nil {
		w = opts.Writer
	}

	lvl, err := log.ParseLevel(opts.Level)
	if err != nil {
		lvl = log.InfoLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
	})
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
