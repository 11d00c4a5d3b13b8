package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/researchkit/deep-research-mcp/internal/models"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ReportStore defines the interface for report persistence.
type ReportStore interface {
	List(ctx context.Context) ([]models.Report, error)
	GetByID(ctx context.Context, id string) (*models.Report, error)
	Delete(ctx context.Context, id string) error
}

// FileStore defines the interface for artifact storage.
type FileStore interface {
	Fetch(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// ProgressReader exposes live run progress for in-flight jobs.
type ProgressReader interface {
	Get(ctx context.Context, jobID string) (map[string]string, error)
}

// Handler holds the management API HTTP handlers.
type Handler struct {
	reports   ReportStore
	artifacts FileStore
	progress  ProgressReader
}

func NewHandler(reports ReportStore, artifacts FileStore, progress ProgressReader) *Handler {
	return &Handler{reports: reports, artifacts: artifacts, progress: progress}
}

// List returns summaries of all stored reports, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	reps, err := h.reports.List(r.Context())
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}
	if reps == nil {
		reps = []models.Report{}
	}
	writeJSON(w, http.StatusOK, reps)
}

// Get returns a single report document, markdown included.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rep, err := h.reports.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Delete removes a report document and its artifact.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rep, err := h.reports.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	if rep.ArtifactObjectKey != "" {
		if err := h.artifacts.Remove(r.Context(), rep.ArtifactObjectKey); err != nil {
			log.Printf("artifact remove %s: %v", rep.ArtifactObjectKey, err)
		}
	}

	if err := h.reports.Delete(r.Context(), id); err != nil {
		http.Error(w, `{"error":"delete failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// DownloadMarkdown streams the report's markdown artifact from object storage.
func (h *Handler) DownloadMarkdown(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rep, err := h.reports.GetByID(r.Context(), id)
	if err != nil || rep.ArtifactObjectKey == "" {
		http.Error(w, `{"error":"markdown not available"}`, http.StatusNotFound)
		return
	}

	data, ct, err := h.artifacts.Fetch(r.Context(), rep.ArtifactObjectKey)
	if err != nil {
		http.Error(w, `{"error":"download failed"}`, http.StatusInternalServerError)
		return
	}
	if ct == "" {
		ct = "text/markdown"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", "attachment; filename=report.md")
	w.Write(data)
}

// JobStatus returns the live progress of an in-flight research run.
func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fields, err := h.progress.Get(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"progress lookup failed"}`, http.StatusInternalServerError)
		return
	}
	if len(fields) == 0 {
		http.Error(w, `{"error":"unknown job"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}
