// Package web provides an HTTP status server for the pir-monitor daemon.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/pir-monitor/internal/logger"
	"github.com/sweeney/pir-monitor/internal/status"
)

// Source supplies the status shown by the server.
type Source interface {
	Snapshot() status.Snapshot
}

// Paths of the MQTT client library used by the live page.
const (
	scriptPath = "/mqtt.min.js"
	scriptCDN  = "https://unpkg.com/mqtt@5/dist/mqtt.min.js"
)

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	source     Source
	scriptFile string
	log        *zap.SugaredLogger
}

// Option configures a Server.
type Option func(*Server)

// WithScriptFile serves the mqtt.js bundle at path from /mqtt.min.js so the
// live page works without internet access. Without it the page loads the
// bundle from a CDN.
func WithScriptFile(path string) Option {
	return func(s *Server) { s.scriptFile = path }
}

// New creates a Server that reads state from source.
func New(ctx context.Context, addr string, source Source, opts ...Option) *Server {
	s := &Server{
		source: source,
		log:    logger.FromContext(ctx).Named("web"),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	if s.scriptFile != "" {
		mux.HandleFunc(scriptPath, s.handleScript)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the request handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.log.Infow("listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener.
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
	snap := s.source.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap, s.scriptURL()); err != nil {
		s.log.Warnw("render failed", "error", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, _ *http.Request) {
	snap := s.source.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(status.FormatJSON(snap)); err != nil {
		s.log.Debugw("write failed", "error", err)
	}
}

func (s *Server) scriptURL() string {
	if s.scriptFile != "" {
		return scriptPath
	}
	return scriptCDN
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	http.ServeFile(w, r, s.scriptFile)
}
