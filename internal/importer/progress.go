package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pintree/pintree-admin/internal/domain"
)

// Phase is the part of a run a progress update belongs to.
type Phase string

// Run phases.
const (
	PhaseFolders   Phase = "folders"
	PhaseBookmarks Phase = "bookmarks"
)

// Progress describes a run after one committed batch.
type Progress struct {
	Phase            Phase         `json:"phase"`
	Depth            int           `json:"depth,omitempty"`
	Batch            int           `json:"batch"` // 1-based within the phase, or within the level for folders
	Batches          int           `json:"batches"`
	ItemsDone        int           `json:"itemsDone"`
	ItemsTotal       int           `json:"itemsTotal"`
	RemainingBatches int           `json:"remainingBatches"`
	BatchDuration    time.Duration `json:"-"`
	ETA              time.Duration `json:"-"`
	BatchSeconds     float64       `json:"batchSeconds"`
	ETASeconds       float64       `json:"etaSeconds"`
	Message          string        `json:"message"`
}

// Estimate computes bookmark progress after the batch at batchIndex
// (0-based). The ETA is a linear extrapolation from that batch alone:
// its duration times the number of batches still to send.
func Estimate(batchIndex, batchSize, totalItems int, batchDuration time.Duration) Progress {
	done := min((batchIndex+1)*batchSize, totalItems)
	remaining := 0
	if batchSize > 0 && totalItems > done {
		remaining = (totalItems - done + batchSize - 1) / batchSize
	}
	eta := batchDuration * time.Duration(remaining)

	return Progress{
		Phase:            PhaseBookmarks,
		Batch:            batchIndex + 1,
		Batches:          batchIndex + 1 + remaining,
		ItemsDone:        done,
		ItemsTotal:       totalItems,
		RemainingBatches: remaining,
		BatchDuration:    batchDuration,
		ETA:              eta,
		BatchSeconds:     batchDuration.Seconds(),
		ETASeconds:       eta.Seconds(),
		Message: fmt.Sprintf("Imported %d/%d bookmarks (%.2fs, estimated remaining %.2fs)",
			done, totalItems, batchDuration.Seconds(), eta.Seconds()),
	}
}

// folderProgress describes a run after one folder batch.
func folderProgress(depth, batchIndex, batchCount, foldersDone, foldersTotal int, took time.Duration) Progress {
	return Progress{
		Phase:            PhaseFolders,
		Depth:            depth,
		Batch:            batchIndex + 1,
		Batches:          batchCount,
		ItemsDone:        foldersDone,
		ItemsTotal:       foldersTotal,
		RemainingBatches: batchCount - batchIndex - 1,
		BatchDuration:    took,
		BatchSeconds:     took.Seconds(),
		Message:          fmt.Sprintf("Importing level %d: batch %d/%d", depth, batchIndex+1, batchCount),
	}
}

// EventType names a run lifecycle event.
type EventType string

// Run lifecycle events.
const (
	EventStarted   EventType = "import.started"
	EventProgress  EventType = "import.progress"
	EventCompleted EventType = "import.completed"
	EventFailed    EventType = "import.failed"
)

// Event is what reporters receive.
type Event struct {
	Type      EventType          `json:"type"`
	RunID     string             `json:"runId"`
	Name      string             `json:"name"`
	Format    domain.Format      `json:"format,omitempty"`
	State     domain.ImportState `json:"state"`
	Progress  *Progress          `json:"progress,omitempty"`
	Report    *Report            `json:"report,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Reporter receives run events. Reporters observe a run; they cannot
// change its outcome.
type Reporter interface {
	Report(ctx context.Context, ev Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, ev Event)

// Report implements Reporter.
func (f ReporterFunc) Report(ctx context.Context, ev Event) { f(ctx, ev) }

// Multi fans an event out to several reporters in order.
type Multi []Reporter

// Report implements Reporter.
func (m Multi) Report(ctx context.Context, ev Event) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, ev)
		}
	}
}

// LogReporter writes events to a structured logger.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a LogReporter.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report implements Reporter.
func (l *LogReporter) Report(ctx context.Context, ev Event) {
	log := l.logger.With("run_id", ev.RunID, "collection", ev.Name)
	switch ev.Type {
	case EventStarted:
		log.InfoContext(ctx, "import started", "format", ev.Format)
	case EventProgress:
		log.DebugContext(ctx, ev.Progress.Message,
			"phase", ev.Progress.Phase,
			"batch", ev.Progress.Batch,
			"items_done", ev.Progress.ItemsDone,
			"items_total", ev.Progress.ItemsTotal,
			"eta", ev.Progress.ETA,
		)
	case EventCompleted:
		log.InfoContext(ctx, "import completed",
			"collection_id", ev.Report.CollectionID,
			"folders", ev.Report.FoldersImported,
			"bookmarks", ev.Report.BookmarksImported,
			"duration", ev.Report.Duration,
		)
	case EventFailed:
		log.ErrorContext(ctx, "import failed",
			"error", ev.Report.Error,
			"failed_in", ev.Report.FailedIn,
			"bookmarks_imported", ev.Report.BookmarksImported,
		)
	}
}

// WriterReporter prints one human-readable line per event, for terminals.
type WriterReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterReporter creates a WriterReporter.
func NewWriterReporter(w io.Writer) *WriterReporter {
	return &WriterReporter{w: w}
}

// Report implements Reporter.
func (p *WriterReporter) Report(_ context.Context, ev Event) {
	var line string
	switch ev.Type {
	case EventStarted:
		line = fmt.Sprintf("Importing %q (%s format)", ev.Name, ev.Format)
	case EventProgress:
		line = ev.Progress.Message
	case EventCompleted:
		line = fmt.Sprintf("Collection %q imported in %.2fs: %d folders, %d bookmarks (collection %s)",
			ev.Name, ev.Report.Duration.Seconds(), ev.Report.FoldersImported,
			ev.Report.BookmarksImported, ev.Report.CollectionID)
	case EventFailed:
		line = fmt.Sprintf("Import failed: %s (%d bookmarks imported)", ev.Report.Error, ev.Report.BookmarksImported)
	default:
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, line)
}
