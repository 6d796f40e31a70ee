package logfx

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger embeds *slog.Logger so every call site can keep using the stdlib
// API (Info, With, ...) while gaining the TRACE/FATAL/PANIC extensions and
// the pretty-console option below.
type Logger struct {
	*slog.Logger

	Config *Config
	Writer io.Writer
}

func NewLogger(options ...NewLoggerOption) *Logger {
	logger := &Logger{
		Logger: nil,
		Config: &Config{
			Level:         DefaultLogLevel,
			DefaultLogger: false,
			PrettyMode:    true,
			AddSource:     false,
		},
		Writer: os.Stdout,
	}

	for _, option := range options {
		option(logger)
	}

	handler := NewHandler(logger.Writer, logger.Config)
	logger.Logger = slog.New(handler)

	if handler.InitError != nil {
		logger.Warn(
			"an error occurred while initializing the logger",
			slog.String("error", handler.InitError.Error()),
		)
	}

	if logger.Config.DefaultLogger {
		slog.SetDefault(logger.Logger)
	}

	return logger
}

func (l *Logger) Trace(msg string, args ...any) {
	l.Log(context.Background(), LevelTrace, msg, args...)
}

func (l *Logger) TraceContext(ctx context.Context, msg string, args ...any) {
	l.Log(ctx, LevelTrace, msg, args...)
}

func (l *Logger) Fatal(msg string, args ...any) {
	l.Log(context.Background(), LevelFatal, msg, args...)
}

func (l *Logger) FatalContext(ctx context.Context, msg string, args ...any) {
	l.Log(ctx, LevelFatal, msg, args...)
}
