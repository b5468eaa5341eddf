package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogger wires zerolog the way the rest of the corpus does — a
// console writer to stderr by default — but routes through lumberjack
// for rotation when a log file is configured, per SPEC_FULL.md §6: one
// event per subcommand invocation and per merge case, at debug level,
// and never inside the core packages.
func setupLogger(logFile, level string) zerolog.Logger {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if logFile != "" {
		out = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     28,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
