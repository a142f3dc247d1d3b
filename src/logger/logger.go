package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"auction-engine/src/config"
)

const serviceName = "auction-engine"

// Sink is a built logger together with the optional file it tees into.
type Sink struct {
	Logger zerolog.Logger
	Level  zerolog.Level

	file     *os.File
	filePath string
	once     sync.Once
}

var (
	mu      sync.Mutex
	current *Sink
)

// New builds a logger writing to out, plus cfg.File when one is set. An
// unknown level falls back to info; a file that cannot be opened is reported
// and skipped so the process still logs to out.
func New(cfg config.LogConfig, out io.Writer) (*Sink, error) {
	level := parseLevel(cfg.Level)

	sink := &Sink{Level: level}
	writers := []io.Writer{consoleWriter(cfg.Format, out)}

	file, err := openLogFile(cfg.File)
	if file != nil {
		sink.file = file
		sink.filePath = cfg.File
		// the file always gets JSON, whatever the console format
		writers = append(writers, file)
	}

	sink.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	return sink, err
}

// Close flushes and closes the log file. It is safe to call more than once.
func (s *Sink) Close() error {
	var err error
	s.once.Do(func() {
		if s.file == nil {
			return
		}
		err = errors.Join(s.file.Sync(), s.file.Close())
	})
	return err
}

// InitLogger builds the process logger from cfg and installs it as the
// zerolog global, so packages can log through zerolog/log directly.
func InitLogger(cfg config.LogConfig) {
	sink, err := New(cfg, os.Stdout)

	mu.Lock()
	previous := current
	current = sink
	mu.Unlock()
	if previous != nil {
		_ = previous.Close()
	}

	zerolog.SetGlobalLevel(sink.Level)
	log.Logger = sink.Logger

	if err != nil {
		sink.Logger.Error().Err(err).Msg("Failed to open log file, using stdout only")
	}

	event := sink.Logger.Info().Str("log_level", sink.Level.String())
	if sink.filePath != "" {
		event.Str("log_file", sink.filePath).Msg("Logger initialized - writing to console and file")
		return
	}
	event.Msg("Logger initialized - writing to console only")
}

func CloseLogger() {
	mu.Lock()
	sink := current
	mu.Unlock()
	if sink != nil {
		_ = sink.Close()
	}
}

func GetLogger() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return log.Logger
	}
	return current.Logger
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func consoleWriter(format string, out io.Writer) io.Writer {
	if format == "pretty" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return out
}

// openLogFile returns nil, nil when file logging is switched off.
func openLogFile(path string) (*os.File, error) {
	switch path {
	case "", "none", "disabled":
		return nil, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}
