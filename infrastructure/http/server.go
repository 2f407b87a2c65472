package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"loadsheet/infrastructure/audit"
	"loadsheet/infrastructure/identity"
	"loadsheet/infrastructure/logging"
	"loadsheet/infrastructure/metrics"
	"loadsheet/infrastructure/rbac"
	"loadsheet/infrastructure/sheet"
	"loadsheet/infrastructure/sheetstore"
	"loadsheet/infrastructure/sqlite"
)

var ShutdownTimeout = 2 * time.Second

// Deps are the collaborators the server routes to.
type Deps struct {
	DB      *sqlite.DB
	Store   *sheetstore.Store
	Sheets  *sheet.Controller
	Audit   *audit.Service
	Users   *identity.Directory
	Rbac    *rbac.Rbac
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	DB      *sqlite.DB
	Store   *sheetstore.Store
	Sheets  *sheet.Controller
	Audit   *audit.Service
	Users   *identity.Directory
	Rbac    *rbac.Rbac
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// NewServer creates a new http server.
func NewServer(addr string, d Deps) *Server {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := d.Rbac
	if r == nil {
		r = rbac.New()
	}
	s := &Server{
		Addr:    addr,
		router:  chi.NewRouter(),
		DB:      d.DB,
		Store:   d.Store,
		Sheets:  d.Sheets,
		Audit:   d.Audit,
		Users:   d.Users,
		Rbac:    r,
		Metrics: d.Metrics,
		Log:     log.Named("http"),
		server: &http.Server{
			MaxHeaderBytes:    1 << 20,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.RequestLogger(s.Log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/sheets", http.StatusSeeOther)
	})

	s.router.Get("/health", s.healthHandler)
	if s.Metrics != nil {
		s.router.Handle("/metrics", s.Metrics.Handler())
	}

	s.router.Group(func(r chi.Router) {
		r.Use(s.AuthenticateMiddleware)
		s.RegisterSheetRoutes(r)
		s.RegisterPageRoutes(r)
		s.RegisterExportRoutes(r)
		s.RegisterAdminRoutes(r)
	})

	s.server.Handler = s.router
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if s.DB != nil {
		if err := s.DB.Ping(ctx); err != nil {
			s.Log.Error("health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	s.Log.Info("http server listening", zap.String("addr", s.ln.Addr().String()))
	go func() {
		if err := s.server.Serve(s.ln); err != nil && err != http.ErrServerClosed {
			s.Log.Error("http server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}
