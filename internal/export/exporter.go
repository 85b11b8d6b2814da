// Package export writes a persisted collection back out in the native
// export layout, so it can be re-imported elsewhere.
package export

import (
	"context"
	"strconv"
	"time"

	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
)

// FormatVersion is written to metadata.version.
const FormatVersion = "1.0"

// DefaultMaxBatch caps the size of one folder batch.
const DefaultMaxBatch = 50

// Source reads a persisted collection.
type Source interface {
	GetCollectionSummary(ctx context.Context, id string) (*domain.CollectionSummary, error)
	ListFolders(ctx context.Context, collectionID string) ([]*domain.CollectionFolder, error)
	ListBookmarks(ctx context.Context, collectionID string) ([]*domain.CollectionBookmark, error)
}

// Options configures an Exporter.
type Options struct {
	Marker   string
	MaxBatch int
	Clock    func() time.Time
}

// Exporter builds native exports from a Source.
type Exporter struct {
	source Source
	opts   Options
}

// New creates an Exporter.
func New(source Source, opts Options) *Exporter {
	if opts.Marker == "" {
		opts.Marker = "Pintree"
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Exporter{source: source, opts: opts}
}

// Result is a finished export with the collection it was taken from.
type Result struct {
	Collection *domain.CollectionSummary
	Export     *domain.NativeExport
}

// Export reads a collection and lays it out as a native export. Folders are
// keyed by depth and grouped by parent, so a re-import creates every parent
// before its children.
func (e *Exporter) Export(ctx context.Context, collectionID string) (*Result, error) {
	summary, err := e.source.GetCollectionSummary(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	folders, err := e.source.ListFolders(ctx, collectionID)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeInternal, "list folders of collection %s", collectionID)
	}
	bookmarks, err := e.source.ListBookmarks(ctx, collectionID)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeInternal, "list bookmarks of collection %s", collectionID)
	}

	levels, err := e.groupFolders(folders)
	if err != nil {
		return nil, err
	}

	out := &domain.NativeExport{
		Metadata: domain.ExportMetadata{
			ExportedFrom: e.opts.Marker,
			Version:      FormatVersion,
			ExportedAt:   e.opts.Clock().UTC().Format(time.RFC3339),
		},
		Folders:   levels,
		Bookmarks: make([]domain.Bookmark, 0, len(bookmarks)),
	}
	known := make(map[string]bool, len(folders))
	for _, f := range folders {
		known[f.ID] = true
	}
	for _, b := range bookmarks {
		folderID := b.FolderID
		if !known[folderID] {
			folderID = ""
		}
		out.Bookmarks = append(out.Bookmarks, domain.Bookmark{
			Title:       b.Title,
			URL:         b.URL,
			Description: b.Description,
			Icon:        b.Icon,
			FolderID:    domain.SourceID(folderID),
		})
	}

	return &Result{Collection: summary, Export: out}, nil
}

func (e *Exporter) groupFolders(folders []*domain.CollectionFolder) (map[string][]domain.FolderBatch, error) {
	byID := make(map[string]*domain.CollectionFolder, len(folders))
	for _, f := range folders {
		byID[f.ID] = f
	}

	depths := make(map[string]int, len(folders))
	for _, f := range folders {
		if _, err := depthOf(f, byID, depths); err != nil {
			return nil, err
		}
	}

	// Batches at each depth follow the first appearance of their parent.
	type group struct {
		depth   int
		folders []domain.Folder
	}
	var order []string
	groups := make(map[string]*group)
	for _, f := range folders {
		depth := depths[f.ID]
		parentID := f.ParentID
		if _, ok := byID[parentID]; !ok {
			parentID = ""
		}
		key := strconv.Itoa(depth) + "/" + parentID
		g, ok := groups[key]
		if !ok {
			g = &group{depth: depth}
			groups[key] = g
			order = append(order, key)
		}
		sortOrder := f.SortOrder
		g.folders = append(g.folders, domain.Folder{
			ID:        domain.SourceID(f.ID),
			Name:      f.Name,
			Icon:      f.Icon,
			ParentID:  domain.SourceID(parentID),
			SortOrder: &sortOrder,
		})
	}

	levels := make(map[string][]domain.FolderBatch)
	for _, key := range order {
		g := groups[key]
		level := strconv.Itoa(g.depth)
		for start := 0; start < len(g.folders); start += e.opts.MaxBatch {
			end := min(start+e.opts.MaxBatch, len(g.folders))
			levels[level] = append(levels[level], domain.FolderBatch(g.folders[start:end]))
		}
	}
	return levels, nil
}

// depthOf returns the number of ancestors of f. A folder whose parent is
// missing from the collection is treated as top level.
func depthOf(f *domain.CollectionFolder, byID map[string]*domain.CollectionFolder, memo map[string]int) (int, error) {
	if d, ok := memo[f.ID]; ok {
		return d, nil
	}

	var chain []*domain.CollectionFolder
	visiting := make(map[string]bool)
	cur := f
	base := 0
	for {
		if d, ok := memo[cur.ID]; ok {
			base = d + 1
			break
		}
		if visiting[cur.ID] {
			return 0, domainerrors.Internal("folder " + cur.ID + " is its own ancestor")
		}
		visiting[cur.ID] = true
		chain = append(chain, cur)

		parent, ok := byID[cur.ParentID]
		if cur.ParentID == "" || !ok {
			break
		}
		cur = parent
	}

	// chain runs child to root; assign depths from the root down.
	for i := len(chain) - 1; i >= 0; i-- {
		memo[chain[i].ID] = base
		base++
	}
	return memo[f.ID], nil
}
