// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the conversion pipeline over HTTP: clients upload
// a PDF as multipart form data and receive the converted document.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/pdiddy/pdf2doc/internal/convert"
	"github.com/pdiddy/pdf2doc/internal/stats"
)

// Header names read or set by the API.
const (
	HeaderUserID = "X-User-ID"
	HeaderJobID  = "X-Job-ID"
	HeaderFormat = "X-Conversion-Format"
)

// StatsSource reports accumulated conversion counts. *stats.Memory
// implements it.
type StatsSource interface {
	User(user string) stats.Counts
	Total() stats.Counts
}

// Config holds server settings.
type Config struct {
	// MaxFileSize caps uploads in bytes.
	MaxFileSize int64
	// AllowedOrigins lists CORS origins; empty allows none.
	AllowedOrigins []string
	// APIToken, when set, is required as a bearer token on /api/v1.
	APIToken string
	// Version is reported by /api/v1/about.
	Version string
	// Strategies lists the configured extraction strategies for /about.
	Strategies []string
	// Converter reports the office converter in use, or "" when none.
	Converter func() string
}

// Server routes HTTP requests to the conversion pipeline.
type Server struct {
	conv  convert.Converter
	stats StatsSource
	cfg   Config
	log   zerolog.Logger
}

const apiPrefix = "/api/v1"

// New creates a server. conv is typically a *convert.Pipeline reporting to
// the same recorder st reads from.
func New(conv convert.Converter, st StatsSource, cfg Config, log zerolog.Logger) *Server {
	return &Server{conv: conv, stats: st, cfg: cfg, log: log}
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.HandleFunc("/health", s.health).Methods(http.MethodGet)

	// API routes sit on the root router so a method mismatch is a 405.
	// A prefix subrouter reports it as a 404.
	protected := func(h http.HandlerFunc) http.Handler { return s.requireToken(h) }
	router.Handle(apiPrefix+"/convert", protected(s.convert)).Methods(http.MethodPost)
	router.Handle(apiPrefix+"/stats", protected(s.statsHandler)).Methods(http.MethodGet)
	router.Handle(apiPrefix+"/help", protected(s.help)).Methods(http.MethodGet)
	router.Handle(apiPrefix+"/about", protected(s.about)).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", HeaderUserID},
		ExposedHeaders: []string{"Content-Disposition", HeaderJobID, HeaderFormat},
		MaxAge:         300,
	})
	return c.Handler(router)
}

// NewHTTPServer wraps h with timeouts suited to uploads and slow office
// conversions.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       time.Minute,
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "pdf2doc"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
