// Package httpapi serves the local control API: supervisor status, a
// shutdown trigger and the Prometheus metrics of the running warden.
package httpapi

import (
	stdcontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Paintersrp/warden/internal/api"
	"github.com/Paintersrp/warden/internal/metrics"
)

const (
	defaultAddr    = "127.0.0.1:7664"
	readHeaderWait = 5 * time.Second
	drainTimeout   = 3 * time.Second
)

// Server exposes an api.Controller over loopback HTTP.
type Server struct {
	ctrl     api.Controller
	addr     string
	listener net.Listener
	logger   *zap.Logger
	mux      *http.ServeMux
}

// Option customises a Server.
type Option func(*Server)

// WithAddr sets the listen address. A missing host binds loopback.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = normalizeAddr(addr) }
}

// WithListener serves on an already bound listener instead of addr.
func WithListener(ln net.Listener) Option {
	return func(s *Server) { s.listener = ln }
}

// WithLogger sets the logger used for failed requests.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a server for ctrl.
func New(ctrl api.Controller, opts ...Option) (*Server, error) {
	if isNilController(ctrl) {
		return nil, fmt.Errorf("httpapi: controller is required (got %T)", ctrl)
	}
	s := &Server{
		ctrl:   ctrl,
		addr:   defaultAddr,
		logger: zap.NewNop(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.HandleFunc("GET /api/v1/status", s.status)
	s.mux.HandleFunc("POST /api/v1/shutdown", s.shutdown)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	return s, nil
}

func isNilController(ctrl api.Controller) bool {
	if ctrl == nil {
		return true
	}
	v := reflect.ValueOf(ctrl)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Handler returns the routing table wrapped in the origin guard.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Browsers attach Origin to cross-site requests; local clients
		// such as curl or the CLI never do.
		if r.Header.Get("Origin") != "" {
			s.logger.Warn("rejected cross-origin control request", zap.String("origin", r.Header.Get("Origin")), zap.String("path", r.URL.Path))
			writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden_origin", Message: "browser requests are not accepted"})
			return
		}
		s.mux.ServeHTTP(w, r)
	})
}

// Listen binds the configured address unless a listener was supplied.
// Calling it before Run makes Addr report the bound port.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("httpapi: listen %s: %w", s.addr, err)
	}
	s.listener = ln
	return nil
}

// Addr reports the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Run serves until ctx ends, then drains in-flight requests.
func (s *Server) Run(ctx stdcontext.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: readHeaderWait}

	served := make(chan error, 1)
	go func() { served <- srv.Serve(s.listener) }()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	drainCtx, cancel := stdcontext.WithTimeout(stdcontext.Background(), drainTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return err
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	report, err := s.ctrl.Status(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) shutdown(w http.ResponseWriter, r *http.Request) {
	result, err := s.ctrl.Shutdown(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if result == nil {
		result = &api.ShutdownResult{CompletedAt: time.Now().UTC()}
	}
	s.logger.Info("companion stopped via control api", zap.Int("pid", result.Pid), zap.String("remote", r.RemoteAddr))
	writeJSON(w, http.StatusOK, result)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("control request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, api.ErrNoCompanion):
		return http.StatusConflict, "no_companion"
	case errors.Is(err, stdcontext.Canceled), errors.Is(err, stdcontext.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// normalizeAddr fills in loopback when only a port is given.
func normalizeAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return defaultAddr
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host != "" {
		return addr
	}
	return net.JoinHostPort("127.0.0.1", port)
}
