// Package server provides the HTTP API: the multipart ingestion boundary
// and the streaming query boundary.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"travel-rag/internal/config"
	"travel-rag/internal/helper"
	"travel-rag/internal/models"
	"travel-rag/internal/rag"
)

const maxUploadBytes = 64 << 20

// Server is the HTTP server for both pipeline boundaries.
type Server struct {
	ingestor     rag.Ingestor
	orchestrator *rag.Orchestrator
	config       *config.ServerConfig
	server       *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(ingestor rag.Ingestor, orchestrator *rag.Orchestrator, cfg *config.ServerConfig) *Server {
	return &Server{
		ingestor:     ingestor,
		orchestrator: orchestrator,
		config:       cfg,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	log.Info().Str("addr", addr).Msg("Starting server")
	return s.server.ListenAndServe()
}

// Routes builds the router; split out so tests can drive handlers without
// binding a port.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// The query stream outlives any fixed timeout, so only the upload
	// route gets one.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Post("/upload", s.handleUpload)
		r.Get("/health", s.handleHealth)
	})
	r.Post("/rag", s.handleQuery)
	return r
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// uploadParams is the structured parameter blob sent alongside the files.
type uploadParams struct {
	UserID           string   `json:"userId"`
	WebPagesToIngest []string `json:"WebPagesToIngest"`
}

// uploadResponse carries the structured outcome; Message keeps the legacy
// human-readable confirmation but callers branch on Succeeded/Failures.
type uploadResponse struct {
	Message   string           `json:"message"`
	Succeeded int              `json:"succeeded"`
	Failures  []models.Failure `json:"failures,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing multipart form: %w", err))
		return
	}

	var params uploadParams
	if err := json.Unmarshal([]byte(r.FormValue("json_input_params")), &params); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing json_input_params: %w", err))
		return
	}

	var (
		files []models.FileInput
		names []string
	)
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			f, err := header.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			files = append(files, models.FileInput{
				Name:      header.Filename,
				MediaType: header.Header.Get("Content-Type"),
				Data:      data,
			})
			names = append(names, fmt.Sprintf("%s %s", header.Filename, helper.NaturalSize(header.Size)))
		}
	}

	result := s.ingestor.Ingest(r.Context(), models.IngestionRequest{
		UserID: params.UserID,
		Files:  files,
		URLs:   params.WebPagesToIngest,
	})

	message := fmt.Sprintf("Successfully uploaded [%s]", strings.Join(names, ", "))
	if !result.OK() {
		message = "There was an error uploading the file(s)/webpage(s)"
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:   message,
		Succeeded: result.Succeeded,
		Failures:  result.Failures,
	})
}

// queryRequest is the query boundary payload.
type queryRequest struct {
	Query      string   `json:"query"`
	UserID     string   `json:"userId"`
	DataSource []string `json:"dataSource"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing query request: %w", err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported by connection"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	turn := models.ConversationTurn{
		Message: req.Query,
		UserID:  req.UserID,
		Sources: req.DataSource,
	}

	// Each event replaces the whole response so far.
	emit := func(response string) error {
		payload, err := json.Marshal(response)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := s.orchestrator.RunTurn(r.Context(), turn, emit); err != nil {
		log.Error().Err(err).Msg("Turn ended with error")
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	log.Warn().Err(err).Msg("Request failed")
	writeJSON(w, status, map[string]string{"message": err.Error()})
}
