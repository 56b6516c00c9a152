// Package logging builds the process zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the logger output.
type Options struct {
	Level  string // trace|debug|info|warn|error, default info
	Format string // console|json, default console
	// File, when set, receives JSON lines rotated by size in addition to Writer.
	File string
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// Rotation limits for File.
const (
	fileMaxSizeMB  = 100
	fileMaxBackups = 5
	fileMaxAgeDays = 28
)

// New returns a logger and a close func that flushes the rotated file, if any.
func New(opts Options) (zerolog.Logger, func() error, error) {
	noop := func() error { return nil }
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), noop, err
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	switch strings.ToLower(opts.Format) {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Nop(), noop, fmt.Errorf("unknown log format %q", opts.Format)
	}

	closeFn := noop
	if opts.File != "" {
		rot := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			Compress:   true,
		}
		w = zerolog.MultiLevelWriter(w, rot)
		closeFn = rot.Close
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), closeFn, nil
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}
