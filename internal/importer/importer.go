// Package importer implements the collection import pipeline: format
// detection, generic tree flattening, level-ordered native folder batches
// with identifier remapping, bookmark batches and progress reporting.
//
// Batches are sent strictly one at a time. Each batch receives the run
// state (collection id and folder map) produced by the previous one, so a
// batch may reference identifiers minted by any earlier batch.
package importer

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
	"github.com/pintree/pintree-admin/internal/id"
	"github.com/pintree/pintree-admin/internal/persistence"
	"github.com/pintree/pintree-admin/internal/validation"
)

// DefaultMaxFileSize is the largest accepted import file.
const DefaultMaxFileSize int64 = 5 << 20

// Options tunes an Orchestrator. Zero values select the defaults.
type Options struct {
	NativeMarker     string
	NativeBatchSize  int
	GenericBatchSize int
	MaxFileSize      int64
	Reporter         Reporter
	Clock            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.NativeMarker == "" {
		o.NativeMarker = DefaultNativeMarker
	}
	if o.NativeBatchSize <= 0 {
		o.NativeBatchSize = DefaultNativeBatchSize
	}
	if o.GenericBatchSize <= 0 {
		o.GenericBatchSize = DefaultGenericBatchSize
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.Reporter == nil {
		o.Reporter = Multi(nil)
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Request starts one import run.
type Request struct {
	RunID       string `json:"-"` // optional; generated when empty
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description" validate:"max=140"`
	Source      []byte `json:"-"`
}

// Report is the outcome of a run. On failure it describes how far the run
// got; everything it counts as imported stays committed.
type Report struct {
	RunID             string             `json:"runId"`
	Name              string             `json:"name"`
	Description       string             `json:"description,omitempty"`
	Format            domain.Format      `json:"format,omitempty"`
	State             domain.ImportState `json:"state"`
	FailedIn          domain.ImportState `json:"failedIn,omitempty"`
	CollectionID      string             `json:"collectionId,omitempty"`
	FolderMap         domain.FolderIDMap `json:"folderMap"`
	FoldersTotal      int                `json:"foldersTotal"`
	FoldersImported   int                `json:"foldersImported"`
	BookmarksTotal    int                `json:"bookmarksTotal"`
	BookmarksImported int                `json:"bookmarksImported"`
	Batches           int                `json:"batches"`
	StartedAt         time.Time          `json:"startedAt"`
	Duration          time.Duration      `json:"-"`
	DurationMillis    int64              `json:"durationMs"`
	Error             string             `json:"error,omitempty"`
}

// Orchestrator runs imports against a persistence API. It keeps no state
// between runs; each Run owns its progress counters.
type Orchestrator struct {
	client    persistence.Client
	opts      Options
	detector  Detector
	validator *validation.Validator
	logger    *slog.Logger
}

// New creates an Orchestrator.
func New(client persistence.Client, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	return &Orchestrator{
		client:    client,
		opts:      opts,
		detector:  Detector{Marker: opts.NativeMarker},
		validator: validation.New(),
		logger:    logger,
	}
}

// MaxFileSize returns the configured upload ceiling.
func (o *Orchestrator) MaxFileSize() int64 {
	return o.opts.MaxFileSize
}

// run carries one invocation's mutable state.
type run struct {
	o      *Orchestrator
	ctx    context.Context
	report *Report
	logger *slog.Logger
}

// Run executes one import: detect the format, import native folders level
// by level, then import bookmarks window by window. It returns the report
// in every case; the error is non-nil when the run did not complete.
// Failed runs are not resumable. Running the same file again creates a
// new collection.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	runID := req.RunID
	if runID == "" {
		runID = id.NewRunID()
	}

	r := &run{
		o:   o,
		ctx: ctx,
		report: &Report{
			RunID:       runID,
			Name:        req.Name,
			Description: req.Description,
			State:       domain.StateIdle,
			FolderMap:   domain.FolderIDMap{},
			StartedAt:   o.opts.Clock(),
		},
		logger: o.logger.With("run_id", runID),
	}

	if err := r.validate(req); err != nil {
		return r.fail(err)
	}

	r.transition(domain.StateDetectingFormat)
	format := o.detector.Detect(req.Source)
	r.report.Format = format
	r.emit(EventStarted, nil)

	meta := CollectionMeta{Name: req.Name, Description: req.Description}
	var err error
	switch format {
	case domain.FormatNative:
		err = r.native(meta, req.Source)
	default:
		err = r.generic(meta, req.Source)
	}
	if err != nil {
		return r.fail(err)
	}

	r.transition(domain.StateCompleted)
	r.finish()
	r.emit(EventCompleted, nil)
	return r.report, nil
}

func (r *run) validate(req Request) error {
	if err := r.o.validator.Validate(req); err != nil {
		return err
	}
	if len(req.Source) == 0 {
		return domainerrors.Validation("import file is required")
	}
	if int64(len(req.Source)) > r.o.opts.MaxFileSize {
		return domainerrors.TooLargef("import file exceeds %s", formatSize(r.o.opts.MaxFileSize))
	}
	return nil
}

func (r *run) native(meta CollectionMeta, source []byte) error {
	export, err := ParseNative(source)
	if err != nil {
		return err
	}
	levels, err := export.Levels()
	if err != nil {
		return domainerrors.Format(err.Error())
	}
	if err := ValidateFolders(levels, export.Bookmarks); err != nil {
		return err
	}

	for _, l := range levels {
		r.report.FoldersTotal += l.FolderCount()
	}
	r.report.BookmarksTotal = len(export.Bookmarks)

	state := domain.RunState{FolderMap: domain.FolderIDMap{}}

	r.transition(domain.StateImportingFolders)
	folders := NewFolderBatchImporter(r.o.client, meta, r.logger)
	for _, level := range levels {
		state, err = folders.ImportLevel(r.ctx, level, state,
			func(depth, batchIndex, batchCount, n int, took time.Duration, next domain.RunState) {
				r.commit(next, n, 0)
				p := folderProgress(depth, batchIndex, batchCount, r.report.FoldersImported, r.report.FoldersTotal, took)
				r.emit(EventProgress, &p)
			})
		if err != nil {
			r.adopt(state)
			return r.batchFailure(err, PhaseFolders, level.Depth)
		}
	}

	r.transition(domain.StateImportingBookmarks)
	bookmarks := NewBookmarkBatchImporter(r.o.client, domain.FormatNative, meta, r.logger)
	return r.bookmarks(bookmarks, export.Bookmarks, r.o.opts.NativeBatchSize, state)
}

func (r *run) generic(meta CollectionMeta, source []byte) error {
	nodes, err := ParseGeneric(source)
	if err != nil {
		return err
	}
	flat := Flatten(nodes)
	r.report.BookmarksTotal = len(flat)
	if len(flat) == 0 {
		r.logger.Warn("generic export contains no bookmarks")
	}

	r.transition(domain.StateImportingBookmarks)
	bookmarks := NewBookmarkBatchImporter(r.o.client, domain.FormatGeneric, meta, r.logger)
	return r.bookmarks(bookmarks, flat, r.o.opts.GenericBatchSize, domain.RunState{FolderMap: domain.FolderIDMap{}})
}

// bookmarks sends windows of size in source order.
func (r *run) bookmarks(imp *BookmarkBatchImporter, all []domain.Bookmark, size int, state domain.RunState) error {
	index := 0
	for window := range slices.Chunk(all, size) {
		start := r.o.opts.Clock()
		next, err := imp.ImportBatch(r.ctx, window, state)
		if err != nil {
			r.adopt(next)
			return r.batchFailure(err, PhaseBookmarks, 0)
		}
		took := r.o.opts.Clock().Sub(start)
		state = next
		r.commit(state, 0, len(window))

		p := Estimate(index, size, len(all), took)
		r.logger.Debug("bookmark batch imported",
			"batch", p.Batch,
			"of", p.Batches,
			"bookmarks", len(window),
			"duration", took,
		)
		r.emit(EventProgress, &p)
		index++
	}
	return nil
}

// commit records a successful batch.
func (r *run) commit(state domain.RunState, folders, bookmarks int) {
	r.report.CollectionID = state.CollectionID
	r.report.FolderMap = state.FolderMap
	r.report.FoldersImported += folders
	r.report.BookmarksImported += bookmarks
	r.report.Batches++
}

// adopt keeps the collection and mappings of a rejected batch without
// counting it.
func (r *run) adopt(state domain.RunState) {
	if state.CollectionID != "" {
		r.report.CollectionID = state.CollectionID
	}
	if len(state.FolderMap) > 0 {
		r.report.FolderMap = state.FolderMap
	}
}

// batchFailure attaches where the run stopped to a batch error.
func (r *run) batchFailure(err error, phase Phase, depth int) error {
	var de *domainerrors.Error
	if !domainerrors.As(err, &de) {
		de = domainerrors.Wrap(err, domainerrors.CodeBatch, err.Error())
	}
	details := map[string]any{
		"phase":             phase,
		"batch":             r.report.Batches + 1,
		"foldersImported":   r.report.FoldersImported,
		"bookmarksImported": r.report.BookmarksImported,
	}
	if phase == PhaseFolders {
		details["depth"] = depth
	}
	if r.report.CollectionID != "" {
		details["collectionId"] = r.report.CollectionID
	}
	return de.WithDetails(details)
}

func (r *run) transition(s domain.ImportState) {
	r.logger.Debug("import state", "from", r.report.State, "to", s)
	r.report.State = s
}

func (r *run) fail(err error) (*Report, error) {
	r.report.FailedIn = r.report.State
	r.report.State = domain.StateFailed
	r.report.Error = domainerrors.Message(err)
	r.finish()
	r.emit(EventFailed, nil)
	return r.report, err
}

func (r *run) finish() {
	r.report.Duration = r.o.opts.Clock().Sub(r.report.StartedAt)
	r.report.DurationMillis = r.report.Duration.Milliseconds()
}

func (r *run) emit(t EventType, p *Progress) {
	ev := Event{
		Type:      t,
		RunID:     r.report.RunID,
		Name:      r.report.Name,
		Format:    r.report.Format,
		State:     r.report.State,
		Progress:  p,
		Timestamp: r.o.opts.Clock(),
	}
	if t == EventCompleted || t == EventFailed {
		snapshot := *r.report
		snapshot.FolderMap = r.report.FolderMap.Clone()
		ev.Report = &snapshot
	}
	r.o.opts.Reporter.Report(r.ctx, ev)
}
