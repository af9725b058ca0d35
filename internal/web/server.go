package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/locky/internal/config"
	"github.com/hpungsan/locky/internal/logging"
	"github.com/hpungsan/locky/internal/vault"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the vault web UI.
func NewServer(m *vault.Manager, cfg *config.Config, version, bind string, port int, logger *zap.Logger) (*http.Server, error) {
	logger = logging.OrNop(logger).Named("web")

	// Strip the directory prefixes from the embedded trees
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	renderer, err := NewRenderer(templateSub, version, logger)
	if err != nil {
		return nil, err
	}

	h := &Handlers{
		vault:    m,
		cfg:      cfg,
		renderer: renderer,
		logger:   logger,
	}

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           h.routes(staticSub),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// routes builds the request multiplexer.
func (h *Handlers) routes(static fs.FS) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/files", http.StatusFound)
	})
	mux.HandleFunc("GET /files", h.HandleList)
	mux.HandleFunc("GET /files/{name}", h.HandleDetail)
	mux.HandleFunc("GET /files/{name}/raw", h.HandleRaw)
	mux.HandleFunc("POST /files/{name}/remove", h.HandleRemove)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	// Unsafe methods from another site (Sec-Fetch-Site or Origin) are refused
	cop := http.NewCrossOriginProtection()
	cop.SetDenyHandler(http.HandlerFunc(h.denyCrossOrigin))

	return securityHeaders(cop.Handler(mux))
}

// denyCrossOrigin rejects a state-changing request sent from another site.
func (h *Handlers) denyCrossOrigin(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn("cross-origin request rejected",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("origin", r.Header.Get("Origin")),
		zap.String("sec_fetch_site", r.Header.Get("Sec-Fetch-Site")))
	h.renderer.renderStatus(w, r, http.StatusForbidden, "FORBIDDEN", "cross-origin requests are not allowed")
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// Run serves srv until ctx is done or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	logger = logging.OrNop(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	fmt.Fprintf(os.Stderr, "Vault UI running at http://%s\n", srv.Addr)
	logger.Info("web ui started", zap.String("addr", srv.Addr))

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, "::") || strings.HasPrefix(srv.Addr, ":") {
		fmt.Fprintln(os.Stderr, "WARNING: Server is binding to all interfaces and may be accessible from the network")
		logger.Warn("web ui bound to all interfaces", zap.String("addr", srv.Addr))
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("web ui shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
