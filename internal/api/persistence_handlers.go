package api

import (
	"context"
	"encoding/json/v2"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/pintree/pintree-admin/internal/errors"
	"github.com/pintree/pintree-admin/internal/persistence"
)

// The persistence endpoints read their bodies raw: folders and bookmarks
// carry unknown members through to storage, which a generated schema would
// reject.
func (s *Server) registerPersistenceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:  "recoverFolders",
		Method:       http.MethodPost,
		Path:         persistence.PathRecoverFolders,
		Summary:      "Create a batch of folders",
		Description:  "Creates one batch of native folders, creating the collection first when collectionId is absent. Returns the collection id and the full folder map.",
		Tags:         []string{"Persistence"},
		MaxBodyBytes: s.maxImportBytes(),
	}, s.handleRecoverFolders)

	huma.Register(s.api, huma.Operation{
		OperationID:  "recoverBookmarks",
		Method:       http.MethodPost,
		Path:         persistence.PathRecoverBookmarks,
		Summary:      "Create a batch of bookmarks",
		Description:  "Adds one batch of native bookmarks to an existing collection, placing each in the folder its folderId maps to.",
		Tags:         []string{"Persistence"},
		MaxBodyBytes: s.maxImportBytes(),
	}, s.handleRecoverBookmarks)

	huma.Register(s.api, huma.Operation{
		OperationID:  "importCollection",
		Method:       http.MethodPost,
		Path:         persistence.PathGenericImport,
		Summary:      "Import a batch of flattened bookmarks",
		Description:  "Adds one batch of generic bookmarks, creating the collection and any folders named in their paths as needed.",
		Tags:         []string{"Persistence"},
		MaxBodyBytes: s.maxImportBytes(),
	}, s.handleImportCollection)
}

// PersistenceInput is the raw JSON body of a persistence call.
type PersistenceInput struct {
	RawBody []byte
}

// BatchOutput wraps the shared persistence response for huma.
type BatchOutput struct {
	Body *persistence.BatchResponse
}

func (s *Server) handleRecoverFolders(ctx context.Context, input *PersistenceInput) (*BatchOutput, error) {
	var req persistence.FoldersRequest
	if err := decodeBody(input.RawBody, &req); err != nil {
		return nil, err
	}
	resp, err := s.services.Collections.RecoverFolders(ctx, &req)
	if err != nil {
		return nil, err
	}
	return &BatchOutput{Body: resp}, nil
}

func (s *Server) handleRecoverBookmarks(ctx context.Context, input *PersistenceInput) (*BatchOutput, error) {
	var req persistence.BookmarksRequest
	if err := decodeBody(input.RawBody, &req); err != nil {
		return nil, err
	}
	resp, err := s.services.Collections.RecoverBookmarks(ctx, &req)
	if err != nil {
		return nil, err
	}
	return &BatchOutput{Body: resp}, nil
}

func (s *Server) handleImportCollection(ctx context.Context, input *PersistenceInput) (*BatchOutput, error) {
	var req persistence.GenericImportRequest
	if err := decodeBody(input.RawBody, &req); err != nil {
		return nil, err
	}
	resp, err := s.services.Collections.ImportGeneric(ctx, &req)
	if err != nil {
		return nil, err
	}
	return &BatchOutput{Body: resp}, nil
}

func decodeBody(raw []byte, v any) error {
	if len(raw) == 0 {
		return domainerrors.Validation("request body is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return domainerrors.Validationf("invalid request body: %v", err)
	}
	return nil
}
