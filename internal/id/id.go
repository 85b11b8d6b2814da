// Package id mints the identifiers the persistence backend assigns to
// collections, folders and bookmarks, plus import run ids.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for server-assigned identifiers.
const (
	PrefixCollection = "col"
	PrefixFolder     = "fld"
	PrefixBookmark   = "bm"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "fld-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewRunID returns the identifier of one import run. Run ids are also
// used as SSE event ids, so they are UUIDv7 and sort by start time.
func NewRunID() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}
