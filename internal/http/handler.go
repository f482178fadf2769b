// Package http provides the service's HTTP surface.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/earlysvahn/whisper-transcribe-api/internal/service/transcription"
)

const defaultOutputLanguage = "en"

// Handler serves the transcription endpoints.
type Handler struct {
	service        *transcription.Service
	maxUploadBytes int64
	log            zerolog.Logger
}

// NewHandler creates a Handler around the orchestrating service.
func NewHandler(service *transcription.Service, maxUploadBytes int64, log zerolog.Logger) *Handler {
	return &Handler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		log:            log.With().Str("component", "http").Logger(),
	}
}

// Root is the liveness endpoint.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Whisper Transcription API is running",
		"status":  "healthy",
	})
}

// Health reports whether the model has finished loading.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	loaded := h.service.Ready()
	status := "healthy"
	if !loaded {
		status = "initializing"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"model_loaded": loaded,
	})
}

// Transcribe accepts a multipart upload and returns the transcription as a
// single JSON document.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "A file upload is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return
	}

	outputLanguage := r.FormValue("output_language")
	if outputLanguage == "" {
		outputLanguage = defaultOutputLanguage
	}

	req := transcription.Request{
		Content:        content,
		Filename:       header.Filename,
		ContentType:    header.Header.Get("Content-Type"),
		Language:       r.FormValue("language"),
		OutputLanguage: outputLanguage,
		RequestID:      middleware.GetReqID(r.Context()),
	}

	result, err := h.service.Transcribe(r.Context(), req)
	if err != nil {
		var apiErr *transcription.Error
		if errors.As(err, &apiErr) {
			writeError(w, apiErr.Status, apiErr.Detail)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
