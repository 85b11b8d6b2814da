package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
)

const importRunColumns = `id, collection_id, name, description, format, state,
	folders_total, folders_imported, bookmarks_total, bookmarks_imported, batches,
	error, started_at, finished_at`

func scanImportRun(scanner interface{ Scan(dest ...any) error }) (*domain.ImportRun, error) {
	var (
		r            domain.ImportRun
		collectionID sql.NullString
		description  sql.NullString
		format       sql.NullString
		state        string
		runErr       sql.NullString
		startedAt    string
		finishedAt   sql.NullString
	)

	err := scanner.Scan(
		&r.ID, &collectionID, &r.Name, &description, &format, &state,
		&r.FoldersTotal, &r.FoldersImported, &r.BookmarksTotal, &r.BookmarksImported, &r.Batches,
		&runErr, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	r.CollectionID = collectionID.String
	r.Description = description.String
	r.Format = domain.Format(format.String)
	r.State = domain.ImportState(state)
	r.Error = runErr.String

	if r.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if r.FinishedAt, err = parseNullableTime(finishedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveImportRun inserts or replaces the record of an import run.
func (s *Store) SaveImportRun(ctx context.Context, r *domain.ImportRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_runs (`+importRunColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			collection_id = excluded.collection_id,
			format = excluded.format,
			state = excluded.state,
			folders_total = excluded.folders_total,
			folders_imported = excluded.folders_imported,
			bookmarks_total = excluded.bookmarks_total,
			bookmarks_imported = excluded.bookmarks_imported,
			batches = excluded.batches,
			error = excluded.error,
			finished_at = excluded.finished_at`,
		r.ID, nullString(r.CollectionID), r.Name, nullString(r.Description),
		nullString(string(r.Format)), string(r.State),
		r.FoldersTotal, r.FoldersImported, r.BookmarksTotal, r.BookmarksImported, r.Batches,
		nullString(r.Error), formatTime(r.StartedAt), nullTimeString(r.FinishedAt),
	)
	return err
}

// GetImportRun retrieves an import run by ID.
func (s *Store) GetImportRun(ctx context.Context, id string) (*domain.ImportRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+importRunColumns+` FROM import_runs WHERE id = ?`, id)
	r, err := scanImportRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("import run %s not found", id)
	}
	return r, err
}

// ListImportRuns returns up to limit runs, most recent first.
func (s *Store) ListImportRuns(ctx context.Context, limit int) ([]*domain.ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+importRunColumns+` FROM import_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ImportRun
	for rows.Next() {
		r, err := scanImportRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
