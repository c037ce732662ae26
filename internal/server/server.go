package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"accentscope/internal/accent"
	"accentscope/internal/acquire"
	"accentscope/internal/analysis"
	"accentscope/internal/config"
	"accentscope/internal/logging"
	"accentscope/internal/preflight"
)

// LockFileName is created in the log directory while a server runs.
const LockFileName = "accentscope.lock"

// Analyzer runs analyses on behalf of HTTP handlers.
type Analyzer interface {
	Analyze(ctx context.Context, req acquire.Request, progress analysis.ProgressFunc) (analysis.Report, error)
	Classifier() accent.Classifier
}

// Server is the HTTP front end.
type Server struct {
	cfg       *config.Config
	analyzer  Analyzer
	logger    *slog.Logger
	templates *template.Template

	lock     *flock.Flock
	listener net.Listener
	server   *http.Server
}

// New constructs a server. It does not bind until Start.
func New(cfg *config.Config, analyzer Analyzer, logger *slog.Logger) (*Server, error) {
	if cfg == nil || analyzer == nil {
		return nil, errors.New("server requires config and analyzer")
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:       cfg,
		analyzer:  analyzer,
		logger:    logging.NewComponentLogger(logger, "api-server"),
		templates: tmpl,
		lock:      flock.New(filepath.Join(cfg.Paths.LogDir, LockFileName)),
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	token := strings.TrimSpace(s.cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /analyze", s.handleAnalyzeForm)
	mux.HandleFunc("POST /api/analyze", s.authMiddleware(token, false, s.handleAnalyze))
	mux.HandleFunc("GET /api/analyze/stream", s.authMiddleware(token, true, s.handleStream))
	mux.HandleFunc("GET /api/accents", s.authMiddleware(token, false, s.handleAccents))
	mux.HandleFunc("GET /api/status", s.authMiddleware(token, false, s.handleStatus))
	return mux
}

// Start acquires the instance lock, binds, and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("ensure log dir: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another accentscope server is already running (lock %s)", s.lock.Path())
	}

	listener, err := net.Listen("tcp", s.cfg.Paths.APIBind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.logPreflight()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and releases the instance lock.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.lock != nil && s.lock.Locked() {
		_ = s.lock.Unlock()
	}
}

func (s *Server) logPreflight() {
	report := preflight.Collect(s.cfg)
	for _, check := range report.Checks {
		if check.Passed {
			continue
		}
		logging.WarnWithContext(s.logger, "preflight check failed", "preflight_failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
			logging.String(logging.FieldImpact, "analyses will fail until resolved"),
		)
	}
	for _, dep := range report.Dependencies {
		if dep.Available || dep.Optional {
			continue
		}
		logging.WarnWithContext(s.logger, "dependency missing", "dependency_missing",
			logging.String("dependency", dep.Name),
			logging.String("detail", dep.Detail),
			logging.String(logging.FieldErrorHint, dep.Description),
			logging.String(logging.FieldImpact, "analyses will fail until resolved"),
		)
	}
}
