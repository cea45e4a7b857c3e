package config

import (
	"io"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ConsoleTimeFormat is the timestamp layout of operator log lines.
const ConsoleTimeFormat = "15:04:05"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the process logger: human-readable lines on console and,
// when debug is enabled, JSON lines in <data dir>/debug.log (rotated). The
// returned closer flushes the log file.
func NewLogger(cfg *Config, console io.Writer) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if cfg.LogLevel != "" {
		parsed, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, errors.Wrapf(err, "invalid log level %q", cfg.LogLevel)
		}
		level = parsed
	}
	if cfg.Debug && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	consoleWriter := zerolog.ConsoleWriter{Out: console, TimeFormat: ConsoleTimeFormat}

	if !cfg.Debug {
		logger := zerolog.New(consoleWriter).Level(level).With().Timestamp().Logger()
		return logger, nopCloser{}, nil
	}

	dataDir := cfg.DataDir()
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return zerolog.Nop(), nopCloser{}, errors.Wrap(err, "failed to prepare data directory")
	}

	// 0600 is lumberjack's default mode for new files
	file := &lumberjack.Logger{
		Filename:   filepath.Join(dataDir, DefaultLogFileName),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	writer := zerolog.MultiLevelWriter(consoleWriter, file)
	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	logger.Debug().Str("path", file.Filename).Msg("debug logging started")

	return logger, file, nil
}
