package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// SessionCounter reports how many clients are connected.
type SessionCounter interface {
	ActiveSessions() int64
}

// HTTPServer serves the health endpoint next to the SSH server.
type HTTPServer struct {
	addr     string
	sessions SessionCounter
	started  time.Time
	logger   *log.Logger
	srv      *http.Server
}

// NewHTTPServer creates a health server on addr.
func NewHTTPServer(addr string, sessions SessionCounter) *HTTPServer {
	h := &HTTPServer{
		addr:     addr,
		sessions: sessions,
		started:  time.Now(),
		logger:   log.NewWithOptions(os.Stderr, log.Options{Prefix: "http"}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)

	h.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return h
}

// Handler returns the HTTP handler.
func (h *HTTPServer) Handler() http.Handler {
	return h.srv.Handler
}

// Start serves until Shutdown is called.
func (h *HTTPServer) Start() error {
	h.logger.Info("HTTP server starting", "addr", h.addr)
	if err := h.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (h *HTTPServer) Shutdown(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int64  `json:"sessions"`
	Uptime   string `json:"uptime"`
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Round(time.Second).String(),
	}
	if h.sessions != nil {
		resp.Sessions = h.sessions.ActiveSessions()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("write health response", "error", err)
	}
}
