package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pintree/pintree-admin/internal/domain"
	"github.com/pintree/pintree-admin/internal/importer"
)

func TestRunImport_Native(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/admin/imports?name=My%20links&description=Saved", strings.NewReader(nativeExport))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	report := decode[importer.Report](t, resp.Body.Bytes())
	assert.Equal(t, domain.StateCompleted, report.State)
	assert.Equal(t, domain.FormatNative, report.Format)
	assert.NotEmpty(t, report.CollectionID)
	assert.Equal(t, 3, report.FoldersImported)
	assert.Equal(t, 3, report.BookmarksImported)
	assert.Len(t, report.FolderMap, 3)
	assert.Zero(t, ts.sseManager.ActiveRuns())

	resp = ts.api.Get("/api/admin/collections/" + report.CollectionID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	summary := decode[domain.CollectionSummary](t, resp.Body.Bytes())
	assert.Equal(t, "My links", summary.Name)
	assert.Equal(t, "my-links", summary.Slug)
	assert.Equal(t, "Saved", summary.Description)
	assert.Equal(t, 3, summary.FolderCount)
	assert.Equal(t, 3, summary.BookmarkCount)
}

func TestRunImport_GenericWithRunID(t *testing.T) {
	ts := setupTestServer(t)
	runID := "01927d3c-8f5e-7b4a-9c2d-3e4f5a6b7c8d"

	resp := ts.api.Post("/api/admin/imports?name=Chrome&runId="+runID,
		strings.NewReader(`[{"children":[{"name":"Bar","children":[{"name":"Go","url":"https://go.dev"}]},{"name":"Loose","url":"https://example.com"}]}]`))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	report := decode[importer.Report](t, resp.Body.Bytes())
	assert.Equal(t, runID, report.RunID)
	assert.Equal(t, domain.FormatGeneric, report.Format)
	assert.Equal(t, 2, report.BookmarksImported)

	resp = ts.api.Get("/api/admin/imports/" + runID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	run := decode[domain.ImportRun](t, resp.Body.Bytes())
	assert.Equal(t, domain.StateCompleted, run.State)
	assert.Equal(t, report.CollectionID, run.CollectionID)
}

func TestRunImport_ReusedRunIDConflicts(t *testing.T) {
	ts := setupTestServer(t)
	path := "/api/admin/imports?name=Links&runId=7a1f3c9e-2b4d-4e6f-8a0b-1c2d3e4f5a6b"

	resp := ts.api.Post(path, strings.NewReader(nativeExport))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	first := decode[importer.Report](t, resp.Body.Bytes())

	resp = ts.api.Post(strings.Replace(path, "Links", "Other", 1), strings.NewReader(nativeExport))
	require.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())

	body := decode[errorBody](t, resp.Body.Bytes())
	assert.Equal(t, "CONFLICT", body.Code)
	assert.Nil(t, body.Details)

	resp = ts.api.Get("/api/admin/imports")
	require.Equal(t, http.StatusOK, resp.Code)
	runs := decode[ImportRunsResponse](t, resp.Body.Bytes())
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, "Links", runs.Runs[0].Name)
	assert.Equal(t, first.CollectionID, runs.Runs[0].CollectionID)
}

func TestRunImport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		status   int
		code     string
		contains string
	}{
		{
			name:   "missing name",
			path:   "/api/admin/imports",
			body:   nativeExport,
			status: http.StatusBadRequest,
			code:   "VALIDATION",
		},
		{
			name:   "invalid run id",
			path:   "/api/admin/imports?name=x&runId=nope",
			body:   nativeExport,
			status: http.StatusBadRequest,
			code:   "VALIDATION",
		},
		{
			name:   "not json",
			path:   "/api/admin/imports?name=x",
			body:   "<html>",
			status: http.StatusBadRequest,
			code:   "FORMAT",
		},
		{
			name:     "native folders missing",
			path:     "/api/admin/imports?name=x",
			body:     `{"metadata":{"exportedFrom":"Pintree"},"bookmarks":[]}`,
			status:   http.StatusBadRequest,
			code:     "FORMAT",
			contains: "folders",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t)

			resp := ts.api.Post(tt.path, strings.NewReader(tt.body))
			require.Equal(t, tt.status, resp.Code, resp.Body.String())

			body := decode[errorBody](t, resp.Body.Bytes())
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, body.Message, body.Error)
			if tt.contains != "" {
				assert.Contains(t, body.Message, tt.contains)
			}
		})
	}
}

func TestRunImport_TooLarge(t *testing.T) {
	ts := setupTestServer(t, withImportOptions(importer.Options{MaxFileSize: 64}))

	resp := ts.api.Post("/api/admin/imports?name=x", strings.NewReader(nativeExport))
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code, resp.Body.String())

	body := decode[errorBody](t, resp.Body.Bytes())
	assert.Equal(t, "TOO_LARGE", body.Code)
}

func TestRunImport_BatchFailureCarriesReport(t *testing.T) {
	ts := setupTestServer(t, withClient(failingClient{message: "database unavailable"}))

	resp := ts.api.Post("/api/admin/imports?name=x", strings.NewReader(`[{"children":[{"name":"Go","url":"https://go.dev"}]}]`))
	require.Equal(t, http.StatusBadGateway, resp.Code, resp.Body.String())

	body := decode[errorBody](t, resp.Body.Bytes())
	assert.Equal(t, "BATCH", body.Code)
	assert.Equal(t, "database unavailable", body.Message)

	details, ok := body.Details.(map[string]any)
	require.True(t, ok, "details: %v", body.Details)

	report, ok := details["report"].(map[string]any)
	require.True(t, ok, "details: %v", details)
	assert.Equal(t, "failed", report["state"])
	assert.Equal(t, "importing_bookmarks", report["failedIn"])
	assert.InDelta(t, 0, report["bookmarksImported"], 0)

	batch, ok := details["batch"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bookmarks", batch["phase"])

	resp = ts.api.Get("/api/admin/imports")
	require.Equal(t, http.StatusOK, resp.Code)
	runs := decode[ImportRunsResponse](t, resp.Body.Bytes())
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, domain.StateFailed, runs.Runs[0].State)
	assert.Equal(t, "database unavailable", runs.Runs[0].Error)
}

func TestListImports_Empty(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/admin/imports?limit=5")
	require.Equal(t, http.StatusOK, resp.Code)
	runs := decode[ImportRunsResponse](t, resp.Body.Bytes())
	assert.NotNil(t, runs.Runs)
	assert.Empty(t, runs.Runs)
}

func TestGetImport_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/admin/imports/missing")
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorBody](t, resp.Body.Bytes()).Code)
}

func TestRunImport_ByteOrderMarkAndEmptyBody(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/admin/imports?name=Bom", strings.NewReader("\ufeff"+nativeExport))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, domain.FormatNative, decode[importer.Report](t, resp.Body.Bytes()).Format)

	resp = ts.api.Post("/api/admin/imports?name=Empty", strings.NewReader("  "))
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	assert.Equal(t, "import file is empty", decode[errorBody](t, resp.Body.Bytes()).Message)
}
