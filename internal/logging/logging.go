// Package logging configures the global zerolog logger: human-readable
// console output, plus a rotating file when a log directory is set.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup installs the global logger. level is a zerolog level name
// ("debug", "info", "warn", ...); unknown names fall back to info.
// When dir is non-empty, log output is additionally written to a
// size-rotated file under it.
func Setup(dir, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	var out io.Writer = console
	if dir != "" {
		out = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   filepath.Join(dir, "levbot.log"),
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		})
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
