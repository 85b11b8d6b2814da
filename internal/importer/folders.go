package importer

import (
	"context"
	"log/slog"
	"time"

	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
	"github.com/pintree/pintree-admin/internal/persistence"
)

// CollectionMeta names the collection an import run creates.
type CollectionMeta struct {
	Name        string
	Description string
}

// FolderBatchDone is called after each committed folder batch.
type FolderBatchDone func(depth, batchIndex, batchCount, folders int, took time.Duration, state domain.RunState)

// FolderBatchImporter creates native folders one batch at a time.
type FolderBatchImporter struct {
	client persistence.Client
	meta   CollectionMeta
	logger *slog.Logger
}

// NewFolderBatchImporter creates a FolderBatchImporter.
func NewFolderBatchImporter(client persistence.Client, meta CollectionMeta, logger *slog.Logger) *FolderBatchImporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FolderBatchImporter{client: client, meta: meta, logger: logger}
}

// ImportBatch submits one folder batch with the current state and returns
// the state folded with the server's answer. The server must report a
// collection id and map every folder of the batch; otherwise the batch is
// treated as failed. A rejected answer still returns the folded state, so
// a collection the server created is not lost.
func (f *FolderBatchImporter) ImportBatch(ctx context.Context, batch domain.FolderBatch, state domain.RunState) (domain.RunState, error) {
	resp, err := f.client.CreateFolders(ctx, &persistence.FoldersRequest{
		Name:         f.meta.Name,
		Description:  f.meta.Description,
		Folders:      batch,
		CollectionID: state.CollectionID,
		FolderMap:    state.FolderMap,
	})
	if err != nil {
		return state, domainerrors.Wrap(err, domainerrors.CodeBatch, persistence.UserMessage(err))
	}

	next, conflicts := state.Fold(resp.CollectionID, resp.FolderMap)
	if len(conflicts) > 0 {
		f.logger.Warn("server remapped existing folders, keeping first assignment",
			"collection_id", next.CollectionID,
			"folders", conflicts,
		)
	}
	if next.CollectionID == "" {
		return next, domainerrors.Batch("server did not return a collection id")
	}
	for _, folder := range batch {
		if _, ok := next.FolderMap.Resolve(folder.ID); !ok {
			return next, domainerrors.Batchf("server did not assign an id to folder %q", folder.ID)
		}
	}
	return next, nil
}

// ImportLevel submits every batch of one depth level in array order,
// threading the state from each batch into the next. The first failure
// stops the level; batches already sent stay committed.
func (f *FolderBatchImporter) ImportLevel(ctx context.Context, level domain.FolderLevel, state domain.RunState, done FolderBatchDone) (domain.RunState, error) {
	for i, batch := range level.Batches {
		if len(batch) == 0 {
			continue
		}

		start := time.Now()
		next, err := f.ImportBatch(ctx, batch, state)
		if err != nil {
			return next, err
		}
		took := time.Since(start)
		state = next

		f.logger.Debug("folder batch imported",
			"depth", level.Depth,
			"batch", i+1,
			"of", len(level.Batches),
			"folders", len(batch),
			"duration", took,
		)
		if done != nil {
			done(level.Depth, i, len(level.Batches), len(batch), took, state)
		}
	}
	return state, nil
}
