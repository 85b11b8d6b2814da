package importer

import (
	"fmt"

	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
)

// maxReportedProblems caps the problems listed in a validation error.
const maxReportedProblems = 20

// ValidateFolders checks a native export before any request is sent.
// Walking the levels in processing order, every folder's parent must already
// have appeared: at a shallower level, or earlier in the same level. This
// rejects unknown parents, parents placed deeper than their children, and
// cycles. Folder ids must be unique and non-empty, and every bookmark
// folderId must name a folder in the export.
func ValidateFolders(levels []domain.FolderLevel, bookmarks []domain.Bookmark) error {
	seen := make(map[domain.SourceID]int)
	var problems []string
	report := func(format string, args ...any) {
		if len(problems) < maxReportedProblems {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	total := 0
	for _, level := range levels {
		for bi, batch := range level.Batches {
			for _, f := range batch {
				total++
				if f.ID == "" {
					report("folder %q at depth %d batch %d has no id", f.Name, level.Depth, bi+1)
					continue
				}
				if prev, dup := seen[f.ID]; dup {
					report("folder %q appears at depth %d and again at depth %d", f.ID, prev, level.Depth)
					continue
				}
				if f.ParentID != "" {
					if _, ok := seen[f.ParentID]; !ok {
						report("folder %q at depth %d references parent %q that is not created before it", f.ID, level.Depth, f.ParentID)
					}
				}
				seen[f.ID] = level.Depth
			}
		}
	}

	for i, b := range bookmarks {
		if b.FolderID == "" {
			continue
		}
		if _, ok := seen[b.FolderID]; !ok {
			report("bookmark %d (%s) references unknown folder %q", i+1, b.URL, b.FolderID)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return domainerrors.Formatf("native export failed validation: %s", problems[0]).
		WithDetails(map[string]any{
			"problems": problems,
			"folders":  total,
		})
}
