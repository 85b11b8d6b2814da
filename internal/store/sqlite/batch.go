package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
)

// Batch is the write set of one import batch. Everything written through a
// Batch commits or rolls back together, so a rejected batch leaves no rows
// behind while earlier batches stay committed.
type Batch struct {
	tx  *sql.Tx
	now time.Time
}

// InBatch runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (s *Store) InBatch(ctx context.Context, fn func(b *Batch) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Batch{tx: tx, now: time.Now().UTC()}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Now is the timestamp shared by every row the batch writes.
func (b *Batch) Now() time.Time {
	return b.now
}

// CreateCollection inserts a collection.
// Returns a validation error when the slug is already taken.
func (b *Batch) CreateCollection(ctx context.Context, c *domain.Collection) error {
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO collections (id, name, slug, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Slug, c.Description, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return domainerrors.Validationf("collection slug %q already exists", c.Slug)
	}
	return err
}

// SlugTaken reports whether a collection already uses slug.
func (b *Batch) SlugTaken(ctx context.Context, slug string) (bool, error) {
	return b.exists(ctx, `SELECT 1 FROM collections WHERE slug = ?`, slug)
}

// CollectionExists reports whether the collection exists.
func (b *Batch) CollectionExists(ctx context.Context, id string) (bool, error) {
	return b.exists(ctx, `SELECT 1 FROM collections WHERE id = ?`, id)
}

// FolderInCollection reports whether folderID names a folder of the collection.
func (b *Batch) FolderInCollection(ctx context.Context, collectionID, folderID string) (bool, error) {
	return b.exists(ctx, `SELECT 1 FROM folders WHERE id = ? AND collection_id = ?`, folderID, collectionID)
}

// TouchCollection bumps the collection's updated_at to the batch time.
func (b *Batch) TouchCollection(ctx context.Context, id string) error {
	_, err := b.tx.ExecContext(ctx,
		`UPDATE collections SET updated_at = ? WHERE id = ?`, formatTime(b.now), id)
	return err
}

// CreateFolder inserts a folder.
func (b *Batch) CreateFolder(ctx context.Context, f *domain.CollectionFolder) error {
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO folders (id, collection_id, parent_id, name, icon, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.CollectionID, nullString(f.ParentID), f.Name, nullString(f.Icon),
		f.SortOrder, formatTime(f.CreatedAt),
	)
	return err
}

// CreateBookmark inserts a bookmark.
func (b *Batch) CreateBookmark(ctx context.Context, bm *domain.CollectionBookmark) error {
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO bookmarks (id, collection_id, folder_id, title, url, description, icon, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bm.ID, bm.CollectionID, nullString(bm.FolderID), bm.Title, bm.URL,
		nullString(bm.Description), nullString(bm.Icon), bm.SortOrder, formatTime(bm.CreatedAt),
	)
	return err
}

// NextBookmarkOrder returns the sort order for the next bookmark appended to
// the collection.
func (b *Batch) NextBookmarkOrder(ctx context.Context, collectionID string) (int, error) {
	var next int
	err := b.tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM bookmarks WHERE collection_id = ?`,
		collectionID).Scan(&next)
	return next, err
}

func (b *Batch) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := b.tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
