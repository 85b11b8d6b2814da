package api

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/pintree/pintree-admin/internal/importer"
	"github.com/pintree/pintree-admin/internal/persistence"
	"github.com/pintree/pintree-admin/internal/service"
	"github.com/pintree/pintree-admin/internal/sse"
	"github.com/pintree/pintree-admin/internal/store/sqlite"
)

const nativeExport = `{
	"metadata": {"exportedFrom": "Pintree", "version": "1.0"},
	"folders": {
		"0": [[{"id": 1, "name": "Dev"}, {"id": 2, "name": "News"}]],
		"1": [[{"id": 3, "name": "Go", "parentId": 1}]]
	},
	"bookmarks": [
		{"title": "Go", "url": "https://go.dev", "folderId": 3},
		{"title": "HN", "url": "https://news.ycombinator.com", "folderId": 2},
		{"title": "Home", "url": "https://pintree.io"}
	]
}`

type testServer struct {
	api        humatest.TestAPI
	server     *Server
	store      *sqlite.Store
	sseManager *sse.Manager
}

type serverOption func(*testServerConfig)

type testServerConfig struct {
	opts   importer.Options
	client persistence.Client
	server Config
}

func withImportOptions(opts importer.Options) serverOption {
	return func(c *testServerConfig) { c.opts = opts }
}

// withClient replaces the in-process persistence client.
func withClient(client persistence.Client) serverOption {
	return func(c *testServerConfig) { c.client = client }
}

func withImportsPerMinute(n int) serverOption {
	return func(c *testServerConfig) { c.server.ImportsPerMinute = n }
}

func setupTestServer(t *testing.T, options ...serverOption) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	sseManager := sse.NewManager(logger)

	backend := service.NewCollectionImportService(st, logger)
	cfg := testServerConfig{
		client: service.NewLocalClient(backend, logger),
		server: Config{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	for _, o := range options {
		o(&cfg)
	}

	services := &Services{
		Import:      service.NewImportService(cfg.client, st, sseManager, cfg.opts, logger),
		Collections: backend,
	}

	srv := NewServer(st, services, sseManager, cfg.server, logger)

	return &testServer{
		api:        humatest.Wrap(t, srv.API()),
		server:     srv,
		store:      st,
		sseManager: sseManager,
	}
}

// errorBody is the wire shape of APIError.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Details any    `json:"details"`
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), "body: %s", raw)
	return v
}

// failingClient rejects every batch the way a broken remote would.
type failingClient struct {
	message string
}

func (c failingClient) CreateFolders(context.Context, *persistence.FoldersRequest) (*persistence.BatchResponse, error) {
	return nil, persistence.StatusError(persistence.OpCreateFolders, 500, c.message)
}

func (c failingClient) CreateBookmarks(context.Context, *persistence.BookmarksRequest) (*persistence.BatchResponse, error) {
	return nil, persistence.StatusError(persistence.OpCreateBookmarks, 500, c.message)
}

func (c failingClient) ImportGeneric(context.Context, *persistence.GenericImportRequest) (*persistence.BatchResponse, error) {
	return nil, persistence.StatusError(persistence.OpGenericImport, 500, c.message)
}
