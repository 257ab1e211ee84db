// Package log owns the process-wide zerolog logger. Call Setup once
// from main, then L() anywhere.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Options configures the global logger.
type Options struct {
	Level   string   // debug, info, warn, error
	Writers []string // any of: console, file
	File    string   // log file path, used by the file writer
	RunID   string   // correlates every line of one harvest run
}

// Setup builds the global logger from opts. Unknown levels fall back
// to info.
func Setup(opts Options) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	for _, w := range opts.Writers {
		switch w {
		case "console":
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
		case "file":
			writers = append(writers, &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    20, // MB
				MaxBackups: 5,
				MaxAge:     14, // days
			})
		}
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp()
	if opts.RunID != "" {
		ctx = ctx.Str("run_id", opts.RunID)
	}
	logger = ctx.Logger()
}

// L returns the global logger.
func L() *zerolog.Logger { return &logger }
