package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/naufalpram/ai-rag-chat/internal/config"
	"github.com/naufalpram/ai-rag-chat/internal/ingest"
	"github.com/naufalpram/ai-rag-chat/internal/rag"
)

const maxUploadBytes = 32 << 20

// handleUpload ingests one multipart file through the configured pipeline.
// Input problems are client errors with no side effects; everything else is
// logged and surfaced as a generic internal error.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Msg("Error reading upload")
		s.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var resourceID string
	if s.cfg.RAG.Pipeline == config.PipelineMultimodal {
		resourceID, err = s.ingestor.IngestMultimodal(r.Context(), header.Filename, data)
	} else {
		resourceID, err = s.ingestor.Ingest(r.Context(), header.Filename, data)
	}
	if err != nil {
		if ingest.IsInputError(err) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Str("file", header.Filename).Msg("Upload error")
		s.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "resourceId": resourceID})
}

type questionRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.retrieve(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuestion) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("Retrieval error")
		s.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.chat.Answer(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuestion) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("Chat error")
		s.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
