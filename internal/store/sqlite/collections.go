package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
)

// collectionColumns is the ordered list of columns selected in collection queries.
// Must match the scan order in scanCollection.
const collectionColumns = `c.id, c.name, c.slug, c.description, c.created_at, c.updated_at`

// scanCollection scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.CollectionSummary. The query must select collectionColumns followed
// by the folder and bookmark counts.
func scanCollection(scanner interface{ Scan(dest ...any) error }) (*domain.CollectionSummary, error) {
	var (
		c         domain.CollectionSummary
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Description,
		&createdAt,
		&updatedAt,
		&c.FolderCount,
		&c.BookmarkCount,
	)
	if err != nil {
		return nil, err
	}

	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const summaryQuery = `
	SELECT ` + collectionColumns + `,
		(SELECT COUNT(*) FROM folders f WHERE f.collection_id = c.id),
		(SELECT COUNT(*) FROM bookmarks b WHERE b.collection_id = c.id)
	FROM collections c`

// GetCollectionSummary retrieves a collection with its folder and bookmark counts.
// Returns a not-found error if the collection does not exist.
func (s *Store) GetCollectionSummary(ctx context.Context, id string) (*domain.CollectionSummary, error) {
	row := s.db.QueryRowContext(ctx, summaryQuery+` WHERE c.id = ?`, id)

	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("collection %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCollectionSummaries returns every collection, newest first.
func (s *Store) ListCollectionSummaries(ctx context.Context) ([]*domain.CollectionSummary, error) {
	rows, err := s.db.QueryContext(ctx, summaryQuery+` ORDER BY c.created_at DESC, c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.CollectionSummary
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListFolders returns the folders of a collection in creation order.
func (s *Store) ListFolders(ctx context.Context, collectionID string) ([]*domain.CollectionFolder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection_id, parent_id, name, icon, sort_order, created_at
		FROM folders WHERE collection_id = ?
		ORDER BY rowid`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.CollectionFolder
	for rows.Next() {
		var (
			f         domain.CollectionFolder
			parentID  sql.NullString
			icon      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&f.ID, &f.CollectionID, &parentID, &f.Name, &icon, &f.SortOrder, &createdAt); err != nil {
			return nil, err
		}
		f.ParentID = parentID.String
		f.Icon = icon.String
		if f.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// ListBookmarks returns the bookmarks of a collection in sort order.
func (s *Store) ListBookmarks(ctx context.Context, collectionID string) ([]*domain.CollectionBookmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection_id, folder_id, title, url, description, icon, sort_order, created_at
		FROM bookmarks WHERE collection_id = ?
		ORDER BY sort_order, rowid`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.CollectionBookmark
	for rows.Next() {
		var (
			b           domain.CollectionBookmark
			folderID    sql.NullString
			description sql.NullString
			icon        sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&b.ID, &b.CollectionID, &folderID, &b.Title, &b.URL,
			&description, &icon, &b.SortOrder, &createdAt); err != nil {
			return nil, err
		}
		b.FolderID = folderID.String
		b.Description = description.String
		b.Icon = icon.String
		if b.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}
