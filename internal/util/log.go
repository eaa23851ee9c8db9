package util

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil { lvl = zerolog.InfoLevel }
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(lvl)
}

// NewConsoleLogger returns a human-readable logger for interactive sessions
// (the trainer runs in a terminal next to the rendering layer).
func NewConsoleLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil { lvl = zerolog.InfoLevel }
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).With().Timestamp().Logger().Level(lvl)
}
