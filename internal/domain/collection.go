package domain

import "time"

// Collection is a destination for imported bookmarks. The persistence backend
// creates one on the first successful batch of every import run.
type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CollectionSummary is a collection with its denormalized content counts.
type CollectionSummary struct {
	Collection
	FolderCount   int `json:"folderCount"`
	BookmarkCount int `json:"bookmarkCount"`
}

// CollectionFolder is a folder persisted inside a collection, with its
// server-assigned identifier. ParentID is empty for top-level folders.
type CollectionFolder struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collectionId"`
	ParentID     string    `json:"parentId,omitempty"`
	Name         string    `json:"name"`
	Icon         string    `json:"icon,omitempty"`
	SortOrder    int       `json:"sortOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CollectionBookmark is a bookmark persisted inside a collection.
// FolderID is empty for bookmarks placed at the collection root.
type CollectionBookmark struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collectionId"`
	FolderID     string    `json:"folderId,omitempty"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Description  string    `json:"description,omitempty"`
	Icon         string    `json:"icon,omitempty"`
	SortOrder    int       `json:"sortOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}
