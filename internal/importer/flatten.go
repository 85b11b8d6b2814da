package importer

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pintree/pintree-admin/internal/domain"
)

const untitledFolder = "Untitled folder"

// Flatten walks a generic tree depth-first, keeping sibling order, and
// returns its bookmarks in visual top-to-bottom order. Each bookmark is
// tagged with its nearest folder's synthesized id and the full ancestry
// chain. Folders are identified by their index path ("g0", "g0.2", ...),
// which is stable for a given file. Nodes that are neither folders nor
// links are skipped.
func Flatten(nodes []domain.GenericNode) []domain.Bookmark {
	var out []domain.Bookmark
	flattenInto(&out, nodes, nil, "g")
	return out
}

func flattenInto(out *[]domain.Bookmark, nodes []domain.GenericNode, path []domain.FolderRef, prefix string) {
	for i := range nodes {
		n := &nodes[i]

		if n.IsFolder() {
			name := cleanText(n.Label())
			if name == "" {
				name = untitledFolder
			}
			ref := domain.FolderRef{ID: prefix + strconv.Itoa(i), Name: name}
			flattenInto(out, n.Children, append(slices.Clip(path), ref), ref.ID+".")
			continue
		}

		link := strings.TrimSpace(n.Link())
		if link == "" {
			continue
		}

		b := domain.Bookmark{
			Title:       cleanText(n.Label()),
			URL:         link,
			Description: cleanText(n.Description),
			Icon:        strings.TrimSpace(n.Icon),
		}
		if b.Title == "" {
			b.Title = link
		}
		if len(path) > 0 {
			b.FolderID = domain.SourceID(path[len(path)-1].ID)
			b.FolderPath = slices.Clone(path)
		}
		*out = append(*out, b)
	}
}

// cleanText trims and NFC-normalizes display text so visually identical
// titles from different browsers compare equal.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
