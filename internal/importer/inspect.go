package importer

import (
	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
)

// Summary describes an import file without importing it.
type Summary struct {
	Format    domain.Format `json:"format"`
	Levels    int           `json:"levels,omitempty"`
	Folders   int           `json:"folders"`
	Bookmarks int           `json:"bookmarks"`
	// Batches is the number of persistence calls an import would make.
	Batches int `json:"batches"`
}

// Inspect detects the file's format and counts what an import would send,
// using the batch sizes in opts. Parse and validation errors are the ones
// Run would return.
func Inspect(data []byte, opts Options) (*Summary, error) {
	opts = opts.withDefaults()
	format := Detector{Marker: opts.NativeMarker}.Detect(data)
	s := &Summary{Format: format}

	if format == domain.FormatNative {
		export, err := ParseNative(data)
		if err != nil {
			return nil, err
		}
		levels, err := export.Levels()
		if err != nil {
			return nil, domainerrors.Format(err.Error())
		}
		if err := ValidateFolders(levels, export.Bookmarks); err != nil {
			return nil, err
		}
		s.Levels = len(levels)
		for _, l := range levels {
			s.Folders += l.FolderCount()
			s.Batches += len(l.Batches)
		}
		s.Bookmarks = len(export.Bookmarks)
		s.Batches += batchCount(s.Bookmarks, opts.NativeBatchSize)
		return s, nil
	}

	nodes, err := ParseGeneric(data)
	if err != nil {
		return nil, err
	}
	s.Folders = countFolders(nodes)
	s.Bookmarks = len(Flatten(nodes))
	s.Batches = batchCount(s.Bookmarks, opts.GenericBatchSize)
	return s, nil
}

func countFolders(nodes []domain.GenericNode) int {
	n := 0
	for i := range nodes {
		if nodes[i].IsFolder() {
			n += 1 + countFolders(nodes[i].Children)
		}
	}
	return n
}

func batchCount(items, size int) int {
	if items == 0 {
		return 0
	}
	return (items + size - 1) / size
}
