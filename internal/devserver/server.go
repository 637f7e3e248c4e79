// Package devserver is an in-memory backend implementing the session and
// workflow HTTP contract. Tasks progress on every workflow read, which makes
// it usable both for local runs of the CLI and for end-to-end tests.
package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"agentwatch/internal/logging"
)

const DefaultAddr = "127.0.0.1:8787"

type Options struct {
	Addr    string
	Token   string
	Version string
	Store   StoreOptions
	Logger  logging.Logger
}

type Server struct {
	addr   string
	token  string
	api    *API
	log    logging.Logger
	server *http.Server
}

func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	log := opts.Logger.With(logging.F("component", "devserver"))
	return &Server{
		addr:  opts.Addr,
		token: opts.Token,
		log:   log,
		api: &API{
			Version: opts.Version,
			Store:   NewStore(opts.Store),
			Logger:  log,
		},
	}
}

func (s *Server) Store() *Store {
	return s.api.Store
}

// Handler returns the routed handler with auth and request logging applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(tokenAuth(s.token))
	s.api.RegisterRoutes(r)
	return r
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("devserver listening", logging.F("addr", "http://"+listener.Addr().String()))
		errCh <- s.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				logging.F("method", r.Method),
				logging.F("path", r.URL.Path),
				logging.F("status", ww.Status()),
				logging.F("request_id", middleware.GetReqID(r.Context())),
				logging.F("duration", time.Since(start)),
			)
		})
	}
}
