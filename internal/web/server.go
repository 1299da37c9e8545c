package web

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/bagvoyage/bagvoyage/internal/config"
)

// NewServer creates and configures the HTTP server for the BagVoyage API.
func NewServer(db *sql.DB, cfg *config.Config, version string) *http.Server {
	h := &Handlers{
		db:      db,
		cfg:     cfg,
		version: version,
	}

	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", h.HandleSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions", h.HandleSessionStart).Methods(http.MethodPost)
	api.HandleFunc("/sessions/active", h.HandleSessionEnd).Methods(http.MethodDelete)
	api.HandleFunc("/records", h.HandleRecords).Methods(http.MethodGet)
	api.HandleFunc("/scans", h.HandleScan).Methods(http.MethodPost)
	api.HandleFunc("/hardware", h.HandleHardware).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/export.csv", h.HandleExportCSV).Methods(http.MethodGet)
	r.HandleFunc("/print", h.HandlePrint).Methods(http.MethodGet)

	handler := securityHeaders(cachePolicy(version, r))

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.WebBind, cfg.WebPort),
		Handler: handler,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// cachePolicy keeps API responses and markup out of intermediary caches so
// clients always see live session state, and stamps the running version so
// a client can detect a server upgrade and refresh.
func cachePolicy(version string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-App-Version", version)
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("BagVoyage API listening at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
