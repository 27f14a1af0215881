package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/user/frontier-crawler/internal/delivery/http/response"
	"github.com/user/frontier-crawler/internal/entity"
	"github.com/user/frontier-crawler/internal/repository"
	"github.com/user/frontier-crawler/internal/usecase"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

type Handler struct {
	inspector usecase.FrontierInspector
	logger    *zap.Logger
}

func NewHandler(inspector usecase.FrontierInspector, logger *zap.Logger) *Handler {
	return &Handler{
		inspector: inspector,
		logger:    logger,
	}
}

func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeJSONError(w, "URL query parameter is required", http.StatusBadRequest)
		return
	}

	if _, err := url.ParseRequestURI(rawURL); err != nil {
		h.writeJSONError(w, "Invalid URL format in query parameter", http.StatusBadRequest)
		return
	}

	entry, err := h.inspector.GetStatus(r.Context(), rawURL)
	if err != nil {
		h.logger.Error("failed to get frontier status", zap.String("url", rawURL), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if entry.Status == entity.StatusUnknown {
		h.writeJSONError(w, "URL is not in the frontier", http.StatusNotFound)
		return
	}

	resp := response.FrontierEntryResponse{
		URL:    entry.URL,
		Status: string(entry.Status),
	}
	if !entry.ExpiresAt.IsZero() {
		expiresAt := entry.ExpiresAt.UTC()
		resp.ExpiresAt = &expiresAt
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetArchived(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeJSONError(w, "URL query parameter is required", http.StatusBadRequest)
		return
	}

	page, err := h.inspector.GetArchived(r.Context(), rawURL)
	switch {
	case errors.Is(err, usecase.ErrArchiveLookupUnsupported):
		h.writeJSONError(w, "The configured archiver does not support lookups", http.StatusNotImplemented)
		return
	case errors.Is(err, repository.ErrPageNotArchived):
		h.writeJSONError(w, "URL has not been archived", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("failed to read archived page", zap.String("url", rawURL), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.ArchivedPageResponse{
		URL:        page.URL,
		HTML:       page.HTML,
		ArchivedAt: page.ArchivedAt.UTC(),
	})
}

func (h *Handler) HandleFrontierSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.inspector.Summary(r.Context())
	if err != nil {
		h.logger.Error("failed to summarize frontier", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.FrontierSummaryResponse{
		Size:          summary.Size,
		KeysLimit:     summary.KeysLimit,
		Remaining:     summary.Remaining,
		ResumePointer: summary.ResumePointer,
	})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.inspector.Health(ctx); err != nil {
		h.logger.Error("health check failed for frontier store", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, response.HealthResponse{Status: "unhealthy", Frontier: "unhealthy"})
		return
	}
	h.writeJSON(w, http.StatusOK, response.HealthResponse{Status: "ok", Frontier: "healthy"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
