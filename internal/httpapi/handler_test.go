package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/researchkit/deep-research-mcp/internal/models"
)

type memReportStore struct {
	reports map[string]*models.Report
}

func (m *memReportStore) List(ctx context.Context) ([]models.Report, error) {
	var out []models.Report
	for _, r := range m.reports {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memReportStore) GetByID(ctx context.Context, id string) (*models.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func (m *memReportStore) Delete(ctx context.Context, id string) error {
	delete(m.reports, id)
	return nil
}

type memFileStore struct {
	objects map[string][]byte
}

func (m *memFileStore) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, "", errors.New("no such object")
	}
	return data, "text/markdown", nil
}

func (m *memFileStore) Remove(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type memProgress struct {
	jobs map[string]map[string]string
}

func (m *memProgress) Get(ctx context.Context, jobID string) (map[string]string, error) {
	return m.jobs[jobID], nil
}

func newTestRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/reports", h.List)
	r.Get("/api/reports/{id}", h.Get)
	r.Get("/api/reports/{id}/markdown", h.DownloadMarkdown)
	r.Delete("/api/reports/{id}", h.Delete)
	r.Get("/api/jobs/{id}", h.JobStatus)
	return r
}

func seed() (*memReportStore, *memFileStore, string) {
	oid := primitive.NewObjectID()
	id := oid.Hex()
	reports := &memReportStore{reports: map[string]*models.Report{
		id: {
			ID:                oid,
			Topic:             "urban planning",
			ReportType:        "brief",
			Language:          "en",
			Markdown:          "# Report\n\nBody.",
			ArtifactObjectKey: "abc.md",
		},
	}}
	files := &memFileStore{objects: map[string][]byte{
		"abc.md": []byte("# Report\n\nBody."),
	}}
	return reports, files, id
}

func TestListReports(t *testing.T) {
	reports, files, _ := seed()
	h := NewHandler(reports, files, &memProgress{})
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "urban planning", got[0].Topic)
}

func TestListReportsEmptyIsArray(t *testing.T) {
	h := NewHandler(&memReportStore{reports: map[string]*models.Report{}}, &memFileStore{}, &memProgress{})
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetReport(t *testing.T) {
	reports, files, id := seed()
	h := NewHandler(reports, files, &memProgress{})
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "# Report\n\nBody.", got.Markdown)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadMarkdown(t *testing.T) {
	reports, files, id := seed()
	h := NewHandler(reports, files, &memProgress{})
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/"+id+"/markdown", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "# Report\n\nBody.", rec.Body.String())
}

func TestDeleteReportRemovesArtifact(t *testing.T) {
	reports, files, id := seed()
	h := NewHandler(reports, files, &memProgress{})
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/reports/"+id, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, reports.reports)
	assert.Empty(t, files.objects)
}

func TestJobStatus(t *testing.T) {
	progress := &memProgress{jobs: map[string]map[string]string{
		"job-1": {"status": "in_progress", "detail": "Run status: in_progress"},
	}}
	h := NewHandler(&memReportStore{reports: map[string]*models.Report{}}, &memFileStore{}, progress)
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/job-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "in_progress")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
