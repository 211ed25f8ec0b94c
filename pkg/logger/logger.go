package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Logger
	file *os.File
}

// Options mirrors the logging flags of the CLI.
type Options struct {
	Verbose bool
	Debug   bool
	File    string
}

// New builds a logger writing to stdout at warning level. Verbose lowers it
// to info and Debug to debug. A log file whose directory does not exist is
// ignored and output stays on stdout.
func New(opts Options) (*Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	switch {
	case opts.Debug:
		log.SetLevel(logrus.DebugLevel)
	case opts.Verbose:
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}

	result := &Logger{Logger: log}
	if opts.File == "" {
		return result, nil
	}

	path, err := filepath.Abs(opts.File)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve log file: %w", err)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		log.Warnf("log directory for %s does not exist, logging to stdout", path)
		return result, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(file)
	result.file = file
	return result, nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.DebugLevel)
	return &Logger{Logger: log}
}

func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
