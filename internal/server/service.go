package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/mertssmnoglu/redisfx/internal/clientreg"
	"github.com/mertssmnoglu/redisfx/internal/dispatch"
	"github.com/mertssmnoglu/redisfx/internal/logfx"
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

var ErrNetListen = errors.New("server: net listen error")

// Service owns the TCP listener and hands every accepted connection its
// own Session against the shared Dispatcher.
type Service struct {
	Config     *Config
	Dispatcher *dispatch.Dispatcher
	Clients    *clientreg.Registry

	logger   *logfx.Logger
	listener net.Listener
	conns    sync.WaitGroup
}

func New(config *Config, d *dispatch.Dispatcher, clients *clientreg.Registry, logger *logfx.Logger) *Service {
	return &Service{
		Config:     config,
		Dispatcher: d,
		Clients:    clients,
		logger:     logger,
	}
}

// Start listens on Config.Addr and begins accepting connections in the
// background, returning a cleanup closure that stops the listener and
// waits (up to GracefulShutdownTimeout) for in-flight connections to
// drain, mirroring pkg/ajan/httpfx.HTTPService.Start.
func (s *Service) Start(ctx context.Context) (func(), error) {
	s.logger.InfoContext(ctx, "server is starting...", slog.String("addr", s.Config.Addr))

	listener, err := net.Listen("tcp", s.Config.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetListen, err)
	}

	s.listener = listener

	go s.acceptLoop(ctx)

	cleanup := func() {
		s.logger.InfoContext(ctx, "shutting down server...")

		if err := s.listener.Close(); err != nil {
			s.logger.WarnContext(ctx, "error closing listener", slog.Any("error", err))
		}

		done := make(chan struct{})

		go func() {
			s.conns.Wait()
			close(done)
		}()

		shutdownCtx, cancel := context.WithTimeout(ctx, s.Config.GracefulShutdownTimeout)
		defer cancel()

		select {
		case <-done:
			s.logger.InfoContext(ctx, "server has gracefully stopped")
		case <-shutdownCtx.Done():
			s.logger.WarnContext(ctx, "server forced to shutdown; connections still open")
		}
	}

	return cleanup, nil
}

func (s *Service) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}

			s.logger.ErrorContext(ctx, "accept error", slog.Any("error", err))

			continue
		}

		s.conns.Add(1)

		go func() {
			defer s.conns.Done()

			s.handleConn(ctx, conn)
		}()
	}
}

// connWriter serializes every write to a connection: the dispatch reply
// for the command currently being handled, and any pub/sub message frames
// a Publish on another goroutine delivers concurrently.
type connWriter struct {
	mu  sync.Mutex
	out *resp.Writer
}

func (cw *connWriter) deliver(channel string, payload []byte) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if err := cw.out.WriteArrayHeader(3); err != nil {
		return
	}

	if err := cw.out.WriteBulkStringFrom("message"); err != nil {
		return
	}

	if err := cw.out.WriteBulkStringFrom(channel); err != nil {
		return
	}

	if err := cw.out.WriteBulkString(payload); err != nil {
		return
	}

	_ = cw.out.Flush()
}

func (s *Service) handleConn(ctx context.Context, netConn net.Conn) {
	defer netConn.Close()

	client := s.Clients.Register(netConn.RemoteAddr().String())
	defer s.Clients.Unregister(client.ID)

	cw := &connWriter{out: resp.NewWriter(netConn)}
	sess := dispatch.NewSession(client, cw.deliver)
	sess.Client = client

	defer s.Dispatcher.Engine.UnsubscribeAll(sess.Sub)

	reader := resp.NewReader(netConn)

	for {
		v, err := reader.ReadValue()
		if err != nil {
			return
		}

		cw.mu.Lock()
		handleErr := s.Dispatcher.Handle(sess, v, cw.out)

		if handleErr == nil {
			handleErr = cw.out.Flush()
		}
		cw.mu.Unlock()

		if handleErr != nil {
			return
		}

		if sess.Closed {
			return
		}
	}
}
