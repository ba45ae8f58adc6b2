// Package server provides the HTTP API: document ingestion, retrieval and
// chat over the configured pipeline.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/naufalpram/ai-rag-chat/internal/config"
)

// Ingestor runs the full ingestion pipeline for one uploaded file.
type Ingestor interface {
	Ingest(ctx context.Context, fileName string, data []byte) (string, error)
	IngestMultimodal(ctx context.Context, fileName string, data []byte) (string, error)
}

// Answerer runs one grounded chat turn.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// RetrieveFunc returns the pipeline-specific retrieval payload for a
// question: {guides, sources} for text, ranked rows with image URLs for
// multimodal. One deployment serves exactly one shape.
type RetrieveFunc func(ctx context.Context, question string) (interface{}, error)

// Server is the HTTP server. The configured pipeline decides which
// ingestion path and retrieval shape the routes use.
type Server struct {
	ingestor Ingestor
	chat     Answerer
	retrieve RetrieveFunc
	cfg      *config.Config
	server   *http.Server
}

func NewServer(ingestor Ingestor, chat Answerer, retrieve RetrieveFunc, cfg *config.Config) *Server {
	return &Server{ingestor: ingestor, chat: chat, retrieve: retrieve, cfg: cfg}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Post("/api/resources", s.handleUpload)
	r.Post("/api/retrieve", s.handleRetrieve)
	r.Post("/api/chat", s.handleChat)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{Addr: addr, Handler: s.Router()}
	log.Info().Str("addr", addr).Str("pipeline", s.cfg.RAG.Pipeline).Msg("Starting server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
