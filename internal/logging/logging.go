// Package logging builds the process zerolog logger: console, a rolling log
// file and an optional Graylog sink.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/groupride/convoy/internal/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// AppName prefixes log file names.
const AppName = "convoy"

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", appName, sessionStart.Format("20060102_150405")),
	)
}

// ParseLevel converts a configured level name, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for _, cl := range c {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Setup builds the logger. console receives colored output when
// cfg.Console is set; it is usually os.Stdout. The returned Closer releases
// the log file and the Graylog connection.
func Setup(cfg config.LogConfig, sessionStart time.Time, console io.Writer) (zerolog.Logger, io.Closer, error) {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	var (
		writers []io.Writer
		toClose closers
	)

	if cfg.Console && console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
		})
	}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("creating logs dir: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   LogFilePath(cfg.Dir, AppName, sessionStart),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		toClose = append(toClose, file)
		// console format without colors to file
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}

	if cfg.Graylog.Enabled {
		gw, err := gelf.NewWriter(cfg.Graylog.Address)
		if err != nil {
			_ = toClose.Close()
			return zerolog.Nop(), nil, fmt.Errorf("connecting to graylog: %w", err)
		}
		toClose = append(toClose, gw)
		writers = append(writers, gw)
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(cfg.Level)).
		With().Timestamp().Logger()

	logger.Info().Str("loglevel", logger.GetLevel().String()).Msg("Logging set up")
	return logger, toClose, nil
}
