// Package server accepts TCP connections and hands each one to a worker pool
// as a job that reads the request and writes a static page back.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jzx17/threadpool/pkg/types"
)

// Options controls request handling
type Options struct {
	// ReadBufferSize is the number of request bytes read per connection
	ReadBufferSize int

	// SleepDelay is applied before answering GET /sleep
	SleepDelay time.Duration

	// Compress enables gzip bodies for clients that accept them
	Compress bool

	// MaxRequests stops the accept loop after this many connections; 0 means unlimited
	MaxRequests int

	// IOTimeout bounds reads and writes on a connection; 0 disables the deadline
	IOTimeout time.Duration

	// Clock drives the /sleep delay (optional, defaults to real clock)
	Clock types.Clock
}

// DefaultOptions returns the default request handling options
func DefaultOptions() Options {
	return Options{
		ReadBufferSize: 1024,
		SleepDelay:     5 * time.Second,
		IOTimeout:      30 * time.Second,
	}
}

// Server is the connection-handling collaborator of a worker pool. It only
// submits jobs; it never waits on their results.
type Server struct {
	pool   types.Submitter
	pages  *Pages
	opts   Options
	logger *slog.Logger

	accepted int64
	handled  int64
}

// New creates a Server submitting connection jobs to pool
func New(pool types.Submitter, pages *Pages, opts Options, logger *slog.Logger) *Server {
	if pages == nil {
		pages = EmbeddedPages()
	}
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = DefaultOptions().ReadBufferSize
	}
	if opts.Clock == nil {
		opts.Clock = types.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		pool:   pool,
		pages:  pages,
		opts:   opts,
		logger: logger,
	}
}

// Serve accepts connections on ln until ctx is cancelled, MaxRequests is
// reached or Accept fails. The listener is closed on return. Jobs already
// submitted keep running; closing the pool waits for them.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-stop:
		}
		return ln.Close()
	})

	g.Go(func() error {
		defer close(stop)
		return s.acceptLoop(gctx, ln)
	})

	err := g.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	backoff := newAcceptBackoff()

	for {
		if s.opts.MaxRequests > 0 && atomic.LoadInt64(&s.accepted) >= int64(s.opts.MaxRequests) {
			s.logger.Info("request limit reached", slog.Int("max_requests", s.opts.MaxRequests))
			return nil
		}

		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if isTemporary(err) {
				s.logger.Warn("accept failed; retrying", slog.Any("error", err))
				if !backoff.Wait(ctx, s.opts.Clock) {
					return nil
				}
				continue
			}
			return pkgerrors.Wrap(err, "accept connection")
		}
		backoff.Reset()
		atomic.AddInt64(&s.accepted, 1)

		if err := s.pool.TrySubmit(func() { s.HandleConnection(conn) }); err != nil {
			_ = conn.Close()
			return pkgerrors.Wrap(err, "submit connection")
		}
	}
}

// HandleConnection reads one request from conn, writes the matching page and
// closes conn. It runs on a pool worker.
func (s *Server) HandleConnection(conn net.Conn) {
	defer conn.Close()
	defer atomic.AddInt64(&s.handled, 1)

	if s.opts.IOTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.opts.IOTimeout))
	}

	buf := make([]byte, s.opts.ReadBufferSize)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		s.logger.Debug("read request", slog.String("remote", remoteAddr(conn)), slog.Any("error", err))
		return
	}
	request := buf[:n]

	route := Match(request)
	if route.Sleep {
		types.Sleep(s.opts.Clock, s.opts.SleepDelay)
	}

	body, err := s.pages.Read(route.Page)
	if err != nil {
		s.logger.Error("load page", slog.String("page", route.Page), slog.Any("error", err))
		return
	}

	compress := s.opts.Compress && AcceptsGzip(request)
	if err := WriteResponse(conn, route.Status, body, compress); err != nil {
		s.logger.Warn("write response", slog.String("remote", remoteAddr(conn)), slog.Any("error", err))
		return
	}

	s.logger.Debug("served request",
		slog.String("remote", remoteAddr(conn)),
		slog.String("status", route.Status),
		slog.Bool("gzip", compress))
}

// Accepted returns the number of accepted connections
func (s *Server) Accepted() int64 {
	return atomic.LoadInt64(&s.accepted)
}

// Handled returns the number of connections whose job has finished
func (s *Server) Handled() int64 {
	return atomic.LoadInt64(&s.handled)
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
