package domain

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"slices"
	"strconv"
)

// SourceID is a folder identifier local to an import file. Exports carry it
// either as a string or as a number; it is always re-encoded as a string.
type SourceID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *SourceID) UnmarshalJSON(data []byte) error {
	switch jsontext.Value(data).Kind() {
	case 'n':
		*id = ""
		return nil
	case '0':
		*id = SourceID(data)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = SourceID(s)
		return nil
	default:
		return fmt.Errorf("folder id must be a string or number, got %s", data)
	}
}

// Folder is a folder descriptor as it appears in a native export.
// Members this type does not model are carried through to the server untouched.
type Folder struct {
	ID        SourceID       `json:"id"`
	Name      string         `json:"name"`
	Icon      string         `json:"icon,omitempty"`
	ParentID  SourceID       `json:"parentId,omitzero"`
	SortOrder *int           `json:"sortOrder,omitempty"`
	Extra     jsontext.Value `json:",unknown"`
}

// FolderBatch is one request worth of folder descriptors at a single depth.
type FolderBatch []Folder

// FolderRef names a folder in a bookmark's ancestry chain.
type FolderRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Bookmark is a bookmark record ready for batching. Native exports reference
// their folder by FolderID; flattened generic trees also carry FolderPath,
// the chain of synthesized folders from the root to the nearest ancestor.
type Bookmark struct {
	Title       string         `json:"title"`
	URL         string         `json:"url"`
	Description string         `json:"description,omitempty"`
	Icon        string         `json:"icon,omitempty"`
	FolderID    SourceID       `json:"folderId,omitzero"`
	FolderPath  []FolderRef    `json:"folderPath,omitempty"`
	Extra       jsontext.Value `json:",unknown"`
}

// ExportMetadata is the provenance block of a native export.
type ExportMetadata struct {
	ExportedFrom string `json:"exportedFrom"`
	Version      string `json:"version,omitempty"`
	ExportedAt   string `json:"exportedAt,omitempty"`
}

// NativeExport is the product's own export layout: folders pre-grouped by
// depth (keys are decimal strings) and a flat bookmark list.
type NativeExport struct {
	Metadata  ExportMetadata           `json:"metadata"`
	Folders   map[string][]FolderBatch `json:"folders"`
	Bookmarks []Bookmark               `json:"bookmarks"`
}

// FolderLevel holds every folder batch at one depth.
type FolderLevel struct {
	Depth   int
	Batches []FolderBatch
}

// FolderCount returns the number of folder descriptors in the level.
func (l FolderLevel) FolderCount() int {
	n := 0
	for _, b := range l.Batches {
		n += len(b)
	}
	return n
}

// Levels returns the folder levels sorted by numeric depth, shallowest first.
func (e *NativeExport) Levels() ([]FolderLevel, error) {
	levels := make([]FolderLevel, 0, len(e.Folders))
	seen := make(map[int]string, len(e.Folders))
	for key, batches := range e.Folders {
		depth, err := strconv.Atoi(key)
		if err != nil || depth < 0 {
			return nil, fmt.Errorf("folder level %q is not a depth", key)
		}
		if prev, dup := seen[depth]; dup {
			return nil, fmt.Errorf("folder levels %q and %q name the same depth", prev, key)
		}
		seen[depth] = key
		levels = append(levels, FolderLevel{Depth: depth, Batches: batches})
	}
	slices.SortFunc(levels, func(a, b FolderLevel) int { return a.Depth - b.Depth })
	return levels, nil
}

// GenericNode is one node of a generic bookmark tree. A node with Children
// is a folder, a node with a URL is a bookmark. Chrome names nodes with
// "name" and Firefox stores links under "uri".
type GenericNode struct {
	Title       string        `json:"title"`
	Name        string        `json:"name"`
	URL         string        `json:"url"`
	URI         string        `json:"uri"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Children    []GenericNode `json:"children"`
}

// IsFolder reports whether the node carries a children array.
func (n *GenericNode) IsFolder() bool {
	return n.Children != nil
}

// Link returns the node's target URL.
func (n *GenericNode) Link() string {
	if n.URL != "" {
		return n.URL
	}
	return n.URI
}

// Label returns the node's display title.
func (n *GenericNode) Label() string {
	if n.Title != "" {
		return n.Title
	}
	return n.Name
}
