package logfx

import "io"

type NewLoggerOption func(*Logger)

func WithConfig(config *Config) NewLoggerOption {
	return func(l *Logger) { l.Config = config }
}

func WithWriter(writer io.Writer) NewLoggerOption {
	return func(l *Logger) { l.Writer = writer }
}

func WithDefaultLogger() NewLoggerOption {
	return func(l *Logger) { l.Config.DefaultLogger = true }
}

func WithPrettyMode(pretty bool) NewLoggerOption {
	return func(l *Logger) { l.Config.PrettyMode = pretty }
}
