// Package processfx wires OS signals to a cancellable root context and
// tracks named goroutines so a server binary can shut down gracefully,
// adapted from pkg/ajan/processfx.
package processfx

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mertssmnoglu/redisfx/internal/logfx"
)

const DefaultShutdownTimeout = 30 * time.Second

type Process struct {
	BaseCtx context.Context

	Ctx    context.Context
	Cancel context.CancelFunc
	Logger *logfx.Logger

	Signal chan os.Signal

	waitGroups map[string]*sync.WaitGroup
	mu         sync.Mutex

	ShutdownTimeout time.Duration
}

func New(baseCtx context.Context, logger *logfx.Logger) *Process {
	ctx, cancel := context.WithCancel(baseCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig, ok := <-sigChan
		if !ok {
			return
		}

		if logger != nil {
			logger.InfoContext(ctx, "received OS signal, initiating shutdown", "signal", sig.String())
		}

		cancel()
	}()

	return &Process{
		BaseCtx:         baseCtx,
		Ctx:             ctx,
		Cancel:          cancel,
		Logger:          logger,
		Signal:          sigChan,
		waitGroups:      map[string]*sync.WaitGroup{},
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// StartGoroutine runs fn in a goroutine tracked under name, logging any
// error it returns (other than context.Canceled, which means shutdown) and
// cancelling the process context so Wait returns.
func (p *Process) StartGoroutine(name string, fn func(ctx context.Context) error) {
	wg := &sync.WaitGroup{}

	p.mu.Lock()
	p.waitGroups[name] = wg
	p.mu.Unlock()

	wg.Add(1)

	go func() {
		defer wg.Done()

		if p.Logger != nil {
			p.Logger.DebugContext(p.Ctx, "goroutine starting", "name", name)
		}

		err := fn(p.Ctx)

		if err != nil && p.BaseCtx.Err() == nil && !errors.Is(err, context.Canceled) {
			if p.Logger != nil {
				p.Logger.ErrorContext(p.BaseCtx, "goroutine error", "name", name, "error", err)
			}

			p.Cancel()
		}

		if p.Logger != nil {
			p.Logger.DebugContext(p.BaseCtx, "goroutine stopped", "name", name)
		}
	}()
}

// Wait blocks until the context is cancelled (by a tracked goroutine's
// failure or by an OS signal).
func (p *Process) Wait() {
	<-p.Ctx.Done()
	p.Cancel()

	signal.Stop(p.Signal)
	close(p.Signal)
}

// Shutdown waits for every tracked goroutine to finish, up to ShutdownTimeout.
func (p *Process) Shutdown() {
	shutdownCtx, cancel := context.WithTimeout(p.BaseCtx, p.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		p.mu.Lock()
		groups := make([]*sync.WaitGroup, 0, len(p.waitGroups))
		for _, wg := range p.waitGroups {
			groups = append(groups, wg)
		}
		p.mu.Unlock()

		for _, wg := range groups {
			wg.Wait()
		}

		close(done)
	}()

	select {
	case <-done:
		if p.Logger != nil {
			p.Logger.InfoContext(p.BaseCtx, "all services shut down gracefully")
		}
	case <-shutdownCtx.Done():
		if p.Logger != nil {
			p.Logger.WarnContext(p.BaseCtx, "graceful shutdown timed out")
		}
	}
}
