package domain

import "time"

// Format is the shape of an import file.
type Format string

// Supported import formats.
const (
	FormatNative  Format = "native"
	FormatGeneric Format = "generic"
)

// ImportState is a state of the import orchestrator.
type ImportState string

// Orchestrator states in the order a run visits them. Native runs pass
// through ImportingFolders; generic runs skip it.
const (
	StateIdle               ImportState = "idle"
	StateDetectingFormat    ImportState = "detecting_format"
	StateImportingFolders   ImportState = "importing_folders"
	StateImportingBookmarks ImportState = "importing_bookmarks"
	StateCompleted          ImportState = "completed"
	StateFailed             ImportState = "failed"
)

// Terminal reports whether no further transition is possible.
func (s ImportState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// RunState is the state every batch call receives and returns: the
// collection the run writes into and the folder identifiers minted so far.
type RunState struct {
	CollectionID string
	FolderMap    FolderIDMap
}

// Fold returns the state after a successful batch. The collection id is
// captured from the first batch that reports one and never changes after;
// the returned map is merged append-only.
func (s RunState) Fold(collectionID string, returned FolderIDMap) (RunState, []SourceID) {
	next := RunState{CollectionID: s.CollectionID}
	if next.CollectionID == "" {
		next.CollectionID = collectionID
	}
	var conflicts []SourceID
	next.FolderMap, conflicts = s.FolderMap.Merge(returned)
	return next, conflicts
}

// ImportRun is the persisted record of one import run.
type ImportRun struct {
	ID                string      `json:"id"`
	CollectionID      string      `json:"collectionId,omitempty"`
	Name              string      `json:"name"`
	Description       string      `json:"description,omitempty"`
	Format            Format      `json:"format,omitempty"`
	State             ImportState `json:"state"`
	FoldersTotal      int         `json:"foldersTotal"`
	FoldersImported   int         `json:"foldersImported"`
	BookmarksTotal    int         `json:"bookmarksTotal"`
	BookmarksImported int         `json:"bookmarksImported"`
	Batches           int         `json:"batches"`
	Error             string      `json:"error,omitempty"`
	StartedAt         time.Time   `json:"startedAt"`
	FinishedAt        *time.Time  `json:"finishedAt,omitempty"`
}

// Duration returns how long the run took, or zero while it is in flight.
func (r *ImportRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
