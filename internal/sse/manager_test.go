package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pintree/pintree-admin/internal/domain"
	"github.com/pintree/pintree-admin/internal/importer"
	"github.com/pintree/pintree-admin/internal/logger"
)

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev := <-c.EventChan:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestManager_FiltersByRun(t *testing.T) {
	m := startManager(t)

	all, err := m.Connect("")
	require.NoError(t, err)
	follower, err := m.Connect("run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())

	m.Report(context.Background(), importer.Event{Type: importer.EventStarted, RunID: "run-2", Name: "Other"})
	m.Report(context.Background(), importer.Event{Type: importer.EventStarted, RunID: "run-1", Name: "Mine"})

	assert.Equal(t, "run-2", receive(t, all).RunID)
	assert.Equal(t, "run-1", receive(t, all).RunID)

	got := receive(t, follower)
	assert.Equal(t, EventImportStarted, got.Type)
	assert.Equal(t, "run-1", got.RunID)
	data, ok := got.Data.(importer.Event)
	require.True(t, ok)
	assert.Equal(t, "Mine", data.Name)
}

func TestManager_TracksActiveRuns(t *testing.T) {
	m := NewManager(logger.Discard())
	ctx := context.Background()

	m.Report(ctx, importer.Event{Type: importer.EventStarted, RunID: "a", State: domain.StateDetectingFormat})
	m.Report(ctx, importer.Event{Type: importer.EventStarted, RunID: "b", State: domain.StateDetectingFormat})
	assert.Equal(t, 2, m.ActiveRuns())

	m.Report(ctx, importer.Event{Type: importer.EventProgress, RunID: "a", State: domain.StateImportingFolders})
	assert.Equal(t, 2, m.ActiveRuns())

	m.Report(ctx, importer.Event{Type: importer.EventFailed, RunID: "a", State: domain.StateFailed})
	m.Report(ctx, importer.Event{Type: importer.EventCompleted, RunID: "b", State: domain.StateCompleted})
	assert.Zero(t, m.ActiveRuns())
}

func TestManager_DisconnectAndShutdown(t *testing.T) {
	m := startManager(t)

	c, err := m.Connect("")
	require.NoError(t, err)
	m.Disconnect(c.ID)
	m.Disconnect(c.ID) // second call is a no-op
	assert.Zero(t, m.ClientCount())

	_, ok := <-c.Done
	assert.False(t, ok, "Done must be closed on disconnect")

	c2, err := m.Connect("")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, m.Shutdown(ctx))

	_, ok = <-c2.Done
	assert.False(t, ok)

	// Emitting after shutdown is dropped without panicking.
	m.Emit(NewHeartbeatEvent())
}

func TestHandler_StreamsEvents(t *testing.T) {
	m := startManager(t)
	srv := httptest.NewServer(NewHandler(m, logger.Discard()))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?runId=run-9", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if line := lines.Text(); line != "" {
				return line
			}
		}
		t.Fatal("stream ended")
		return ""
	}

	assert.Equal(t, "event: connected", next())
	assert.Contains(t, next(), `"message":"SSE connection established"`)

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	m.Report(ctx, importer.Event{Type: importer.EventCompleted, RunID: "run-9", Name: "Links",
		Report: &importer.Report{CollectionID: "col-1"}})

	assert.Equal(t, "event: import.completed", next())
	data := next()
	assert.True(t, strings.HasPrefix(data, "data: "))
	assert.Contains(t, data, `"runId":"run-9"`)
	assert.Contains(t, data, `"collectionId":"col-1"`)
}
