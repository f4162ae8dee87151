// Package web provides an HTTP status server for the supercycler daemon.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/sweeney/supercycler/internal/history"
	"github.com/sweeney/supercycler/internal/status"
)

// Number of commands shown on the status page and returned by default
// from /history.json.
const (
	pageHistory    = 10
	defaultHistory = 50
)

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	history    history.Store
	log        zerolog.Logger
}

// New creates a Server that reads state from the given tracker.
// hist may be nil, in which case no command history is shown.
func New(addr string, tracker *status.Tracker, hist history.Store, log zerolog.Logger) *Server {
	s := &Server{tracker: tracker, history: hist, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/history.json", s.handleHistory)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	entries := s.recent(r.Context(), pageHistory)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap, entries); err != nil {
		s.log.Warn().Err(err).Msg("render status page")
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// HistoryJSON is the /history.json response body.
type HistoryJSON struct {
	Commands []history.Entry `json:"commands"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	n := defaultHistory
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}

	body := HistoryJSON{Commands: s.recent(r.Context(), n)}
	if body.Commands == nil {
		body.Commands = []history.Entry{}
	}
	data, _ := json.MarshalIndent(body, "", "  ")
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) recent(ctx context.Context, n int) []history.Entry {
	if s.history == nil {
		return nil
	}
	entries, err := s.history.Recent(ctx, n)
	if err != nil {
		s.log.Warn().Err(err).Msg("read command history")
		return nil
	}
	return entries
}
