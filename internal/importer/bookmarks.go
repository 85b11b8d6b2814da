package importer

import (
	"context"
	"log/slog"

	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
	"github.com/pintree/pintree-admin/internal/persistence"
)

// Default bookmark window sizes. Native windows are smaller because the
// server resolves a folder for every item.
const (
	DefaultNativeBatchSize  = 50
	DefaultGenericBatchSize = 100
)

// BookmarkBatchImporter sends bookmark windows for one format.
type BookmarkBatchImporter struct {
	client persistence.Client
	format domain.Format
	meta   CollectionMeta
	logger *slog.Logger
}

// NewBookmarkBatchImporter creates a BookmarkBatchImporter.
func NewBookmarkBatchImporter(client persistence.Client, format domain.Format, meta CollectionMeta, logger *slog.Logger) *BookmarkBatchImporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookmarkBatchImporter{client: client, format: format, meta: meta, logger: logger}
}

// ImportBatch submits one window with the current collection id and folder
// map and returns the folded state. Native windows go to the recover
// endpoint. A native export without folders has no collection yet, so its
// first window goes through the generic endpoint, which creates one.
func (b *BookmarkBatchImporter) ImportBatch(ctx context.Context, window []domain.Bookmark, state domain.RunState) (domain.RunState, error) {
	var (
		resp *persistence.BatchResponse
		err  error
	)
	if b.format == domain.FormatNative && state.CollectionID != "" {
		resp, err = b.client.CreateBookmarks(ctx, &persistence.BookmarksRequest{
			Bookmarks:    window,
			CollectionID: state.CollectionID,
			FolderMap:    state.FolderMap,
		})
	} else {
		resp, err = b.client.ImportGeneric(ctx, &persistence.GenericImportRequest{
			Name:         b.meta.Name,
			Description:  b.meta.Description,
			Bookmarks:    window,
			CollectionID: state.CollectionID,
			FolderMap:    state.FolderMap,
		})
	}
	if err != nil {
		return state, domainerrors.Wrap(err, domainerrors.CodeBatch, persistence.UserMessage(err))
	}

	next, conflicts := state.Fold(resp.CollectionID, resp.FolderMap)
	if len(conflicts) > 0 {
		b.logger.Warn("server remapped existing folders, keeping first assignment",
			"collection_id", next.CollectionID,
			"folders", conflicts,
		)
	}
	if next.CollectionID == "" {
		return next, domainerrors.Batch("server did not return a collection id")
	}
	return next, nil
}
