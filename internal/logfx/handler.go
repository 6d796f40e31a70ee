package logfx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// 38 covers "15:04:05.000 " plus a colored level tag before the message.
const prettyModeMessageStartIndex = 38

const prettyModeKeyMaxLength = 25

var (
	ErrFailedToParseLogLevel = errors.New("failed to parse log level")
	ErrFailedToWriteLog      = errors.New("failed to write log")
)

// Handler is a slog.Handler with two output shapes: structured JSON (for
// log aggregation) and a pretty, human-readable console form (for a
// developer watching `redisfx-server serve` in a terminal).
type Handler struct {
	InitError error

	InnerHandler slog.Handler
	InnerWriter  io.Writer
	InnerConfig  *Config
}

var _ slog.Handler = (*Handler)(nil)

func NewHandler(w io.Writer, config *Config) *Handler {
	var initError error

	level, err := ParseLevel(config.Level, false)
	if err != nil {
		initError = fmt.Errorf("%w (level=%q): %w", ErrFailedToParseLogLevel, config.Level, err)
		level = new(slog.Level)
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   config.AddSource,
		ReplaceAttr: nil,
	}

	return &Handler{
		InitError:    initError,
		InnerHandler: slog.NewJSONHandler(w, opts),
		InnerWriter:  w,
		InnerConfig:  config,
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.InnerHandler.Enabled(ctx, level)
}

func (h *Handler) prettify(rec slog.Record) string {
	out := strings.Builder{}

	out.WriteString(Colored(ColorDimGray, rec.Time.Format("15:04:05.000")))
	out.WriteRune(' ')
	out.WriteString(LevelEncoderColored(rec.Level))

	if pad := prettyModeMessageStartIndex - out.Len(); pad > 0 {
		out.WriteString(strings.Repeat(" ", pad))
	}

	out.WriteRune(' ')
	out.WriteString(rec.Message)

	rec.Attrs(func(attr slog.Attr) bool {
		keyLen := min(len(attr.Key), prettyModeKeyMaxLength)

		out.WriteString("\n\t")
		out.WriteString(attr.Key)
		out.WriteString(strings.Repeat(" ", prettyModeKeyMaxLength-keyLen))
		out.WriteString("= ")
		out.WriteString(attr.Value.String())

		return true
	})

	out.WriteString("\n\n")

	return out.String()
}

func (h *Handler) Handle(ctx context.Context, rec slog.Record) error {
	if h.InnerConfig.PrettyMode {
		if _, err := io.WriteString(h.InnerWriter, h.prettify(rec)); err != nil {
			return fmt.Errorf("%w: %w", ErrFailedToWriteLog, err)
		}

		return nil
	}

	if err := h.InnerHandler.Handle(ctx, rec); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToWriteLog, err)
	}

	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		InitError:    h.InitError,
		InnerHandler: h.InnerHandler.WithAttrs(attrs),
		InnerWriter:  h.InnerWriter,
		InnerConfig:  h.InnerConfig,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		InitError:    h.InitError,
		InnerHandler: h.InnerHandler.WithGroup(name),
		InnerWriter:  h.InnerWriter,
		InnerConfig:  h.InnerConfig,
	}
}
