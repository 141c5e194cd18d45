package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/stuarthighley/wad/v2/internal/config"
)

// newLogger logs to stderr and, when a log file is configured, to a rotating file as well.
// The returned closer releases the file.
func newLogger(cfg *config.Config) (zerolog.Logger, io.Closer) {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	if cfg.LogFile.Path == "" {
		return zerolog.New(console).Level(cfg.Level()).With().Timestamp().Logger(), nopCloser{}
	}
	file := &lumberjack.Logger{
		Filename:   cfg.LogFile.Path,
		MaxSize:    cfg.LogFile.MaxSizeMB,
		MaxBackups: cfg.LogFile.MaxBackups,
		MaxAge:     cfg.LogFile.MaxAgeDays,
		Compress:   cfg.LogFile.Compress,
	}
	w := zerolog.MultiLevelWriter(console, file)
	return zerolog.New(w).Level(cfg.Level()).With().Timestamp().Logger(), file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
