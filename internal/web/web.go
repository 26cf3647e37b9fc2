package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"inkdash/internal/battery"
	"inkdash/internal/config"
	"inkdash/internal/dashboard"
	appLog "inkdash/internal/log"
)

// Runner is the part of dashboard.Runner the server uses.
type Runner interface {
	Run(ctx context.Context, now time.Time) error
	LastRun() (dashboard.RunStatus, bool)
}

// Paths are the artifacts of the last run served for preview.
type Paths struct {
	Document string
	Image    string
}

// Server exposes the last rendered dashboard for preview.
type Server struct {
	cfg    *config.Config
	paths  Paths
	runner Runner
	bat    battery.Reader
	mux    *http.ServeMux

	// baseCtx bounds refresh runs. It is the server's lifetime, not the
	// request's, so a client hanging up does not abort a render.
	baseCtx context.Context

	batteryMu    sync.Mutex
	batteryCache *batteryCache
}

type batteryCache struct {
	status    battery.Status
	updatedAt time.Time
}

const batteryCacheTTL = 30 * time.Second

// NewServer constructs a Server. bat may be nil.
func NewServer(cfg *config.Config, paths Paths, runner Runner, bat battery.Reader) *Server {
	if bat == nil {
		bat = battery.Static(battery.Unknown)
	}
	s := &Server{
		cfg:    cfg,
		paths:  paths,
		runner: runner,
		bat:    bat,
		mux:    http.NewServeMux(),

		baseCtx: context.Background(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.HandleFunc("GET /dashboard.html", s.handleDocument)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	return s
}

// Handler returns the server's http.Handler, wrapped in Basic Auth when
// credentials are configured.
func (s *Server) Handler() http.Handler {
	if s.basicAuthEnabled() {
		return s.basicAuthMiddleware(s.mux)
	}
	return s.mux
}

// ListenAndServe serves until ctx is canceled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.baseCtx = ctx
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "basic_auth", s.basicAuthEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="inkdash", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, s.paths.Image)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, s.paths.Document)
}

type statusResponse struct {
	LastRun *dashboard.RunStatus `json:"last_run"`
	Battery battery.Status       `json:"battery"`
	Display config.DisplayConfig `json:"display"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Battery: s.batteryStatus(r.Context()),
		Display: s.cfg.Display,
	}
	if st, ok := s.runner.LastRun(); ok {
		resp.LastRun = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Run(s.baseCtx, time.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	st, _ := s.runner.LastRun()
	writeJSON(w, http.StatusOK, st)
}

// batteryStatus caches reads so status polling does not hit I2C on
// every request.
func (s *Server) batteryStatus(ctx context.Context) battery.Status {
	s.batteryMu.Lock()
	defer s.batteryMu.Unlock()

	if bc := s.batteryCache; bc != nil && time.Since(bc.updatedAt) < batteryCacheTTL {
		return bc.status
	}
	st, err := s.bat.Read(ctx)
	if err != nil {
		appLog.Warn("battery read failed", "reason", err)
		return battery.Unknown
	}
	s.batteryCache = &batteryCache{status: st, updatedAt: time.Now()}
	return st
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
