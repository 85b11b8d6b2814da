package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
)

type memorySource struct {
	summary   *domain.CollectionSummary
	folders   []*domain.CollectionFolder
	bookmarks []*domain.CollectionBookmark
}

func (m *memorySource) GetCollectionSummary(_ context.Context, id string) (*domain.CollectionSummary, error) {
	if m.summary == nil || m.summary.ID != id {
		return nil, domainerrors.NotFoundf("collection %s not found", id)
	}
	return m.summary, nil
}

func (m *memorySource) ListFolders(context.Context, string) ([]*domain.CollectionFolder, error) {
	return m.folders, nil
}

func (m *memorySource) ListBookmarks(context.Context, string) ([]*domain.CollectionBookmark, error) {
	return m.bookmarks, nil
}

func folder(id, parent, name string) *domain.CollectionFolder {
	return &domain.CollectionFolder{ID: id, ParentID: parent, Name: name, CollectionID: "col-1"}
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newSource() *memorySource {
	return &memorySource{
		summary: &domain.CollectionSummary{Collection: domain.Collection{ID: "col-1", Name: "Links", Slug: "links"}},
		folders: []*domain.CollectionFolder{
			folder("f1", "", "Work"),
			folder("f2", "f1", "Docs"),
			folder("f3", "", "Home"),
			folder("f4", "f2", "Specs"),
			folder("f5", "f1", "Tools"),
		},
		bookmarks: []*domain.CollectionBookmark{
			{ID: "b1", FolderID: "f4", Title: "RFC 9110", URL: "https://www.rfc-editor.org/rfc/rfc9110"},
			{ID: "b2", Title: "Root link", URL: "https://example.com"},
		},
	}
}

func TestExport_GroupsByDepthAndParent(t *testing.T) {
	exp := New(newSource(), Options{Clock: fixedClock})

	res, err := exp.Export(context.Background(), "col-1")
	require.NoError(t, err)

	out := res.Export
	assert.Equal(t, "links", res.Collection.Slug)
	assert.Equal(t, domain.ExportMetadata{
		ExportedFrom: "Pintree",
		Version:      FormatVersion,
		ExportedAt:   "2026-03-01T12:00:00Z",
	}, out.Metadata)

	require.Len(t, out.Folders, 3)
	require.Len(t, out.Folders["0"], 1)
	assert.Len(t, out.Folders["0"][0], 2)

	// f2 and f5 share a parent, so they travel together.
	require.Len(t, out.Folders["1"], 1)
	assert.Equal(t, domain.SourceID("f2"), out.Folders["1"][0][0].ID)
	assert.Equal(t, domain.SourceID("f5"), out.Folders["1"][0][1].ID)
	assert.Equal(t, domain.SourceID("f1"), out.Folders["1"][0][0].ParentID)

	require.Len(t, out.Folders["2"], 1)
	assert.Equal(t, domain.SourceID("f4"), out.Folders["2"][0][0].ID)

	require.Len(t, out.Bookmarks, 2)
	assert.Equal(t, domain.SourceID("f4"), out.Bookmarks[0].FolderID)
	assert.Empty(t, out.Bookmarks[1].FolderID)
}

func TestExport_LevelsAreImportable(t *testing.T) {
	res, err := New(newSource(), Options{}).Export(context.Background(), "col-1")
	require.NoError(t, err)

	levels, err := res.Export.Levels()
	require.NoError(t, err)

	seen := map[domain.SourceID]bool{}
	for _, level := range levels {
		for _, batch := range level.Batches {
			for _, f := range batch {
				if f.ParentID != "" {
					assert.True(t, seen[f.ParentID], "parent %s of %s not yet exported", f.ParentID, f.ID)
				}
			}
		}
		for _, batch := range level.Batches {
			for _, f := range batch {
				seen[f.ID] = true
			}
		}
	}
	assert.Len(t, seen, 5)
}

func TestExport_SplitsLargeGroups(t *testing.T) {
	src := newSource()
	src.folders = nil
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		src.folders = append(src.folders, folder(id, "", id))
	}

	res, err := New(src, Options{MaxBatch: 2}).Export(context.Background(), "col-1")
	require.NoError(t, err)

	require.Len(t, res.Export.Folders["0"], 3)
	assert.Len(t, res.Export.Folders["0"][2], 1)
}

func TestExport_DanglingReferencesBecomeTopLevel(t *testing.T) {
	src := newSource()
	src.folders = []*domain.CollectionFolder{folder("f9", "gone", "Orphan")}
	src.bookmarks = []*domain.CollectionBookmark{{ID: "b1", FolderID: "gone", Title: "x", URL: "https://x.test"}}

	res, err := New(src, Options{}).Export(context.Background(), "col-1")
	require.NoError(t, err)

	require.Len(t, res.Export.Folders["0"], 1)
	assert.Empty(t, res.Export.Folders["0"][0][0].ParentID)
	assert.Empty(t, res.Export.Bookmarks[0].FolderID)
}

func TestExport_Cycle(t *testing.T) {
	src := newSource()
	src.folders = []*domain.CollectionFolder{folder("a", "b", "A"), folder("b", "a", "B")}

	_, err := New(src, Options{}).Export(context.Background(), "col-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInternal)
	assert.Contains(t, err.Error(), "its own ancestor")
}

func TestExport_ListFailureIsInternal(t *testing.T) {
	src := &brokenSource{memorySource: newSource()}

	_, err := New(src, Options{}).Export(context.Background(), "col-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInternal)
	assert.ErrorIs(t, err, errDiskGone)
	assert.Equal(t, "list bookmarks of collection col-1", domainerrors.Message(err))
}

var errDiskGone = errors.New("disk gone")

type brokenSource struct {
	*memorySource
}

func (b *brokenSource) ListBookmarks(context.Context, string) ([]*domain.CollectionBookmark, error) {
	return nil, errDiskGone
}

func TestExport_EmptyCollection(t *testing.T) {
	src := newSource()
	src.folders = nil
	src.bookmarks = nil

	res, err := New(src, Options{}).Export(context.Background(), "col-1")
	require.NoError(t, err)
	assert.NotNil(t, res.Export.Folders)
	assert.NotNil(t, res.Export.Bookmarks)
}

func TestExport_NotFound(t *testing.T) {
	_, err := New(newSource(), Options{}).Export(context.Background(), "col-404")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
