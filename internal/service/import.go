package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
	"github.com/pintree/pintree-admin/internal/export"
	"github.com/pintree/pintree-admin/internal/importer"
	"github.com/pintree/pintree-admin/internal/persistence"
	"github.com/pintree/pintree-admin/internal/store/sqlite"
)

// ImportService runs collection imports for the admin API and keeps the
// import history.
type ImportService struct {
	orchestrator *importer.Orchestrator
	exporter     *export.Exporter
	store        *sqlite.Store
	logger       *slog.Logger

	mu     sync.Mutex
	active map[string]bool
}

// NewImportService creates a new import service. Run events go to the
// history, to events (when non-nil) and to the log.
func NewImportService(client persistence.Client, store *sqlite.Store, events importer.Reporter, opts importer.Options, logger *slog.Logger) *ImportService {
	s := &ImportService{
		exporter: export.New(store, export.Options{Marker: opts.NativeMarker}),
		store:    store,
		logger:   logger,
		active:   make(map[string]bool),
	}
	opts.Reporter = importer.Multi{
		importer.ReporterFunc(s.record),
		events,
		importer.NewLogReporter(logger),
	}
	s.orchestrator = importer.New(client, opts, logger)
	return s
}

// MaxFileSize returns the largest accepted import file.
func (s *ImportService) MaxFileSize() int64 {
	return s.orchestrator.MaxFileSize()
}

// Import runs one import to completion. The report is returned on failure
// too; whatever it counts as imported stays in the collection.
//
// Once started, a run is not canceled with ctx: a caller that goes away
// leaves it to finish on its own. A run id that is already running or
// already in the history is rejected with a conflict and no report.
func (s *ImportService) Import(ctx context.Context, req importer.Request) (*importer.Report, error) {
	if err := s.reserve(ctx, req.RunID); err != nil {
		return nil, err
	}
	defer s.release(req.RunID)

	return s.orchestrator.Run(context.WithoutCancel(ctx), req)
}

func (s *ImportService) reserve(ctx context.Context, runID string) error {
	if runID == "" {
		return nil
	}

	s.mu.Lock()
	if s.active[runID] {
		s.mu.Unlock()
		return domainerrors.Conflictf("import run %s is already running", runID)
	}
	s.active[runID] = true
	s.mu.Unlock()

	_, err := s.store.GetImportRun(ctx, runID)
	switch {
	case err == nil:
		s.release(runID)
		return domainerrors.Conflictf("import run %s already exists", runID)
	case !domainerrors.Is(err, domainerrors.ErrNotFound):
		s.release(runID)
		return err
	}
	return nil
}

func (s *ImportService) release(runID string) {
	if runID == "" {
		return
	}
	s.mu.Lock()
	delete(s.active, runID)
	s.mu.Unlock()
}

// ListRuns returns the most recent import runs.
func (s *ImportService) ListRuns(ctx context.Context, limit int) ([]*domain.ImportRun, error) {
	return s.store.ListImportRuns(ctx, limit)
}

// GetRun returns one import run.
func (s *ImportService) GetRun(ctx context.Context, runID string) (*domain.ImportRun, error) {
	return s.store.GetImportRun(ctx, runID)
}

// GetCollection returns a collection with its folder and bookmark counts.
func (s *ImportService) GetCollection(ctx context.Context, collectionID string) (*domain.CollectionSummary, error) {
	return s.store.GetCollectionSummary(ctx, collectionID)
}

// ListCollections returns every collection with its counts.
func (s *ImportService) ListCollections(ctx context.Context) ([]*domain.CollectionSummary, error) {
	return s.store.ListCollectionSummaries(ctx)
}

// ExportCollection lays out a persisted collection in the native export
// format.
func (s *ImportService) ExportCollection(ctx context.Context, collectionID string) (*export.Result, error) {
	return s.exporter.Export(ctx, collectionID)
}

// record writes run lifecycle events to the history. History is written
// even when the run's context has been canceled.
func (s *ImportService) record(ctx context.Context, ev importer.Event) {
	var run *domain.ImportRun
	switch {
	case ev.Type == importer.EventStarted:
		run = &domain.ImportRun{
			ID:        ev.RunID,
			Name:      ev.Name,
			Format:    ev.Format,
			State:     ev.State,
			StartedAt: ev.Timestamp,
		}
	case ev.State.Terminal() && ev.Report != nil:
		run = runFromReport(ev.Report)
	default:
		return
	}

	if err := s.store.SaveImportRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("failed to record import run",
			"run_id", ev.RunID,
			"error", err,
		)
	}
}

func runFromReport(rep *importer.Report) *domain.ImportRun {
	finished := rep.StartedAt.Add(rep.Duration)
	return &domain.ImportRun{
		ID:                rep.RunID,
		CollectionID:      rep.CollectionID,
		Name:              rep.Name,
		Description:       rep.Description,
		Format:            rep.Format,
		State:             rep.State,
		FoldersTotal:      rep.FoldersTotal,
		FoldersImported:   rep.FoldersImported,
		BookmarksTotal:    rep.BookmarksTotal,
		BookmarksImported: rep.BookmarksImported,
		Batches:           rep.Batches,
		Error:             rep.Error,
		StartedAt:         rep.StartedAt,
		FinishedAt:        &finished,
	}
}

