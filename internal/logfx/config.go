package logfx

// Config controls handler construction: level filter, output shape, and
// whether the process-wide slog default gets replaced.
type Config struct {
	Level string `conf:"level" default:"INFO"`

	DefaultLogger bool `conf:"default"    default:"false"`
	PrettyMode    bool `conf:"pretty"     default:"true"`
	AddSource     bool `conf:"add_source" default:"false"`
}
