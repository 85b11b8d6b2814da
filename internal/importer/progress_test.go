package importer

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name          string
		index         int
		size          int
		total         int
		duration      time.Duration
		wantDone      int
		wantRemaining int
		wantETA       time.Duration
	}{
		{"first of three", 0, 100, 237, time.Second, 100, 2, 2 * time.Second},
		{"second of three", 1, 100, 237, 3 * time.Second, 200, 1, 3 * time.Second},
		{"last partial", 2, 100, 237, time.Second, 237, 0, 0},
		{"exact multiple", 1, 50, 100, time.Second, 100, 0, 0},
		{"single batch", 0, 50, 1, time.Second, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Estimate(tt.index, tt.size, tt.total, tt.duration)
			assert.Equal(t, tt.wantDone, p.ItemsDone)
			assert.Equal(t, tt.wantRemaining, p.RemainingBatches)
			assert.Equal(t, tt.wantETA, p.ETA)
			assert.Equal(t, tt.index+1, p.Batch)
			assert.Equal(t, tt.index+1+tt.wantRemaining, p.Batches)
		})
	}
}

func TestEstimate_Message(t *testing.T) {
	p := Estimate(1, 100, 237, 1500*time.Millisecond)
	assert.Equal(t, "Imported 200/237 bookmarks (1.50s, estimated remaining 1.50s)", p.Message)
	assert.InDelta(t, 1.5, p.ETASeconds, 0.0001)
}

func TestMulti_FansOutInOrder(t *testing.T) {
	var order []string
	m := Multi{
		ReporterFunc(func(context.Context, Event) { order = append(order, "first") }),
		nil,
		ReporterFunc(func(context.Context, Event) { order = append(order, "second") }),
	}

	m.Report(context.Background(), Event{Type: EventStarted})
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestWriterReporter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterReporter(&buf)

	p := Estimate(0, 100, 150, time.Second)
	w.Report(context.Background(), Event{Type: EventStarted, Name: "Links", Format: "generic"})
	w.Report(context.Background(), Event{Type: EventProgress, Progress: &p})
	w.Report(context.Background(), Event{Type: EventFailed, Report: &Report{Error: "quota", BookmarksImported: 100}})

	assert.Equal(t,
		"Importing \"Links\" (generic format)\n"+
			"Imported 100/150 bookmarks (1.00s, estimated remaining 1.00s)\n"+
			"Import failed: quota (100 bookmarks imported)\n",
		buf.String())
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogReporter(slog.New(slog.NewJSONHandler(&buf, nil)))

	l.Report(context.Background(), Event{Type: EventCompleted, RunID: "run-1", Name: "Links",
		Report: &Report{CollectionID: "col-1", BookmarksImported: 3}})

	assert.Contains(t, buf.String(), `"msg":"import completed"`)
	assert.Contains(t, buf.String(), `"run_id":"run-1"`)
	assert.Contains(t, buf.String(), `"collection_id":"col-1"`)
}
