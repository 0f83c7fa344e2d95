// Package logging installs the process-wide logger used by the marketplace
// packages.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// Verbosity follows the geth scale: 0 silent up to 5 trace.
	Verbosity int
	JSON      bool
	// File, when set, receives the log instead of stderr and is rotated.
	File string
}

const DefaultVerbosity = 3

// Setup builds the handler described by o and makes it the default logger.
// The returned closer flushes the log file, if any.
func Setup(o Options) func() error {
	var (
		out      io.Writer = colorable.NewColorableStderr()
		useColor           = (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		closer             = func() error { return nil }
	)
	if o.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    100,
			MaxBackups: 10,
			Compress:   true,
		}
		out, useColor, closer = rotating, false, rotating.Close
	}

	level := log.FromLegacyLevel(o.Verbosity)

	var handler slog.Handler
	if o.JSON {
		handler = log.JSONHandlerWithLevel(out, level)
	} else {
		handler = log.NewTerminalHandlerWithLevel(out, level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return closer
}
