package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/naramarket/naramarket-mcp/internal/config"
)

// New builds the process logger. Logs go to stderr: in stdio mode stdout
// carries the MCP protocol stream.
func New(cfg config.LogConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

func NewWithWriter(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "naramarket-mcp").
		Logger()
}
