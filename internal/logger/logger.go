// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options holds logger configuration.
type Options struct {
	// Level is a zerolog level name. Empty means warn, or debug when Debug is set.
	Level string
	Debug bool
	// Console selects human readable output instead of JSON.
	Console bool
	// File, when set, tees output into a rotating log file.
	File string
	// Out defaults to os.Stderr.
	Out io.Writer
}

// New builds a logger from opts without touching the global one.
func New(opts Options) (zerolog.Logger, error) {
	level, err := parseLevel(opts)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: !isTerminal(out)}
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Nop(), err
		}
		fileWriter := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(out, fileWriter)
	}

	l := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if opts.Debug {
		l = l.With().Caller().Logger()
	}
	return l, nil
}

// Init replaces the global logger used through github.com/rs/zerolog/log.
func Init(opts Options) error {
	l, err := New(opts)
	if err != nil {
		return err
	}
	log.Logger = l
	zerolog.SetGlobalLevel(l.GetLevel())
	return nil
}

func parseLevel(opts Options) (zerolog.Level, error) {
	if opts.Level == "" {
		if opts.Debug {
			return zerolog.DebugLevel, nil
		}
		return zerolog.WarnLevel, nil
	}
	return zerolog.ParseLevel(opts.Level)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
