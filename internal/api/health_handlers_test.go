package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
	assert.Equal(t, "no connected clients, no running imports", health.Components["sse"].Message)
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	ts := setupTestServer(t)
	_ = ts.store.Close()

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "database ping failed", health.Components["database"].Message)
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "no running imports", plural(0, "running import"))
	assert.Equal(t, "1 running import", plural(1, "running import"))
	assert.Equal(t, "3 running imports", plural(3, "running import"))
}
