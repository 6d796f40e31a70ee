// Package server runs the TCP listener and per-connection RESP loop on
// top of internal/dispatch, modeled on pkg/ajan/httpfx's HTTPService:
// same Start(ctx) (func(), error) shape, same listen-then-goroutine-then-
// cleanup-closure structure, inverted from serving HTTP to serving RESP.
package server

import "time"

// Config is the listener's bindable surface (spec.md §6).
type Config struct {
	Addr                    string        `conf:"addr"                      default:":6379"`
	GracefulShutdownTimeout time.Duration `conf:"graceful_shutdown_timeout" default:"10s"`
}
