// Package persistence defines the collection persistence API the import
// pipeline writes through, and an HTTP client for a remote deployment.
//
// The API mints every identifier. Each call returns the collection id and
// the folder identifiers it assigned, and the caller threads both into the
// next call.
package persistence

import (
	"context"

	"github.com/pintree/pintree-admin/internal/domain"
)

// Endpoint paths, relative to the API base URL.
const (
	PathRecoverFolders   = "/api/collections/import-recover-data/recover-folders"
	PathRecoverBookmarks = "/api/collections/import-recover-data/recover-bookmarks"
	PathGenericImport    = "/api/collections/import"
)

// Operation names used in errors and logs.
const (
	OpCreateFolders   = "create-folders-batch"
	OpCreateBookmarks = "create-bookmarks-batch"
	OpGenericImport   = "generic-import-batch"
)

// Client is the persistence API contract.
type Client interface {
	// CreateFolders creates one batch of native folders. With an empty
	// CollectionID the server creates the collection first.
	CreateFolders(ctx context.Context, req *FoldersRequest) (*BatchResponse, error)

	// CreateBookmarks adds one batch of native bookmarks to an existing collection.
	CreateBookmarks(ctx context.Context, req *BookmarksRequest) (*BatchResponse, error)

	// ImportGeneric adds one batch of flattened generic bookmarks, creating
	// the collection and any folders named in their paths as needed.
	ImportGeneric(ctx context.Context, req *GenericImportRequest) (*BatchResponse, error)
}

// FoldersRequest is the body of a create-folders-batch call.
type FoldersRequest struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Folders      domain.FolderBatch `json:"folders"`
	CollectionID string             `json:"collectionId,omitempty"`
	FolderMap    domain.FolderIDMap `json:"folderMap"`
}

// BookmarksRequest is the body of a create-bookmarks-batch call.
type BookmarksRequest struct {
	Bookmarks    []domain.Bookmark  `json:"bookmarks"`
	CollectionID string             `json:"collectionId"`
	FolderMap    domain.FolderIDMap `json:"folderMap"`
}

// GenericImportRequest is the body of a generic-import-batch call.
type GenericImportRequest struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Bookmarks    []domain.Bookmark  `json:"bookmarks"`
	CollectionID string             `json:"collectionId,omitempty"`
	FolderMap    domain.FolderIDMap `json:"folderMap"`
}

// BatchResponse is the success body shared by all three calls.
// FolderMap is the server's view of the run's folder map after the batch.
type BatchResponse struct {
	CollectionID string             `json:"collectionId"`
	FolderMap    domain.FolderIDMap `json:"insideFolderMap,omitempty"`
	Created      int                `json:"created,omitempty"`
}

// FailureBody is the error body of a non-2xx response. The folders call
// reports Error and the bookmark calls report Message.
type FailureBody struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
