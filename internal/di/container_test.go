package di

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pintree/pintree-admin/internal/config"
	"github.com/pintree/pintree-admin/internal/di/providers"
	"github.com/pintree/pintree-admin/internal/persistence"
	"github.com/pintree/pintree-admin/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App:    config.AppConfig{Environment: "production"},
		Logger: config.LoggerConfig{Level: "error"},
		Server: config.ServerConfig{
			Port:           "0",
			ReadTimeout:    time.Second,
			WriteTimeout:   time.Second,
			IdleTimeout:    time.Second,
			MaxConnections: 8,
		},
		Store:       config.StoreConfig{Path: filepath.Join(t.TempDir(), "pintree.db")},
		Persistence: config.PersistenceConfig{Timeout: time.Second},
		Import: config.ImportConfig{
			MaxFileSize:      config.DefaultMaxFileSize,
			NativeBatchSize:  50,
			GenericBatchSize: 100,
			NativeMarker:     "Pintree",
		},
	}
}

func newTestInjector(t *testing.T, cfg *config.Config) *do.RootScope {
	t.Helper()
	injector := do.New()
	do.ProvideValue(injector, cfg)
	Register(injector)
	t.Cleanup(func() { _ = injector.Shutdown() })
	return injector
}

func TestBootstrap_InProcessBackend(t *testing.T) {
	injector := newTestInjector(t, testConfig(t))

	require.NoError(t, Bootstrap(injector))

	client := do.MustInvoke[persistence.Client](injector)
	assert.IsType(t, &service.LocalClient{}, client)

	server := do.MustInvoke[*providers.HTTPServerHandle](injector)
	assert.NotNil(t, server.API)
}

func TestBootstrap_RemoteBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Persistence.BaseURL = "https://pintree.example.com"
	injector := newTestInjector(t, cfg)

	require.NoError(t, Bootstrap(injector))

	client := do.MustInvoke[persistence.Client](injector)
	assert.IsType(t, &persistence.HTTPClient{}, client)
}

func TestBootstrap_BadDatabasePath(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cfg.Store.Path = filepath.Join(blocker, "pintree.db")
	injector := newTestInjector(t, cfg)

	assert.Error(t, Bootstrap(injector))
}
