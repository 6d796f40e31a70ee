package subcommands

import (
	"context"
	"fmt"

	"github.com/mertssmnoglu/redisfx/internal/clientreg"
	"github.com/mertssmnoglu/redisfx/internal/configfx"
	"github.com/mertssmnoglu/redisfx/internal/dispatch"
	"github.com/mertssmnoglu/redisfx/internal/engine"
	"github.com/mertssmnoglu/redisfx/internal/logfx"
	"github.com/mertssmnoglu/redisfx/internal/processfx"
	"github.com/mertssmnoglu/redisfx/internal/server"
	"github.com/spf13/cobra"
)

// AppConfig is the full set of environment-bindable settings, following
// the nested `conf` struct-tag layout configfx.Load walks.
type AppConfig struct {
	Log    logfx.Config  `conf:"log"`
	Server server.Config `conf:"server"`
}

func CmdServe() *cobra.Command {
	serveCmd := &cobra.Command{ //nolint:exhaustruct
		Use:   "serve",
		Short: "Runs the RESP-compatible key/value server",
		Long:  "Runs the RESP-compatible key/value server, listening for client connections until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execServe(cmd.Context())
		},
	}

	return serveCmd
}

func execServe(baseCtx context.Context) error {
	config := &AppConfig{ //nolint:exhaustruct
		Log:    logfx.Config{}, //nolint:exhaustruct
		Server: server.Config{},
	}

	manager := configfx.NewConfigManager()

	if err := manager.Load(config, manager.FromSystemEnv()); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logfx.NewLogger(
		logfx.WithConfig(&config.Log),
		logfx.WithDefaultLogger(),
	)

	eng := engine.New()
	clients := clientreg.New()
	d := dispatch.New(eng, clients)
	svc := server.New(&config.Server, d, clients, logger)

	process := processfx.New(baseCtx, logger)

	process.StartGoroutine("redis-server", func(ctx context.Context) error {
		cleanup, err := svc.Start(ctx)
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		defer cleanup()

		<-ctx.Done()

		return nil
	})

	process.Wait()
	process.Shutdown()

	return nil
}
