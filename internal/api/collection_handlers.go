package api

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pintree/pintree-admin/internal/domain"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCollections",
		Method:      http.MethodGet,
		Path:        "/api/admin/collections",
		Summary:     "List collections",
		Description: "Returns every collection with its folder and bookmark counts",
		Tags:        []string{"Collections"},
	}, s.handleListCollections)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCollection",
		Method:      http.MethodGet,
		Path:        "/api/admin/collections/{id}",
		Summary:     "Get collection",
		Description: "Returns a collection with its folder and bookmark counts",
		Tags:        []string{"Collections"},
	}, s.handleGetCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportCollection",
		Method:      http.MethodGet,
		Path:        "/api/admin/collections/{id}/export",
		Summary:     "Export collection",
		Description: "Downloads a collection in the native export format, ready to import elsewhere",
		Tags:        []string{"Collections"},
	}, s.handleExportCollection)
}

// CollectionsResponse contains a list of collections.
type CollectionsResponse struct {
	Collections []*domain.CollectionSummary `json:"collections" doc:"Collections, newest first"`
}

// ListCollectionsOutput wraps the collection list for huma.
type ListCollectionsOutput struct {
	Body CollectionsResponse
}

func (s *Server) handleListCollections(ctx context.Context, _ *struct{}) (*ListCollectionsOutput, error) {
	collections, err := s.services.Import.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	if collections == nil {
		collections = []*domain.CollectionSummary{}
	}
	return &ListCollectionsOutput{Body: CollectionsResponse{Collections: collections}}, nil
}

// GetCollectionInput contains parameters for getting a collection.
type GetCollectionInput struct {
	ID string `path:"id" doc:"Collection ID"`
}

// CollectionOutput wraps a collection summary for huma.
type CollectionOutput struct {
	Body *domain.CollectionSummary
}

func (s *Server) handleGetCollection(ctx context.Context, input *GetCollectionInput) (*CollectionOutput, error) {
	collection, err := s.services.Import.GetCollection(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CollectionOutput{Body: collection}, nil
}

// ExportCollectionOutput is a native export file.
type ExportCollectionOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func (s *Server) handleExportCollection(ctx context.Context, input *GetCollectionInput) (*ExportCollectionOutput, error) {
	res, err := s.services.Import.ExportCollection(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	// Marshaled here so unknown members on folders and bookmarks survive.
	body, err := json.Marshal(res.Export, jsontext.WithIndent("  "))
	if err != nil {
		return nil, err
	}

	return &ExportCollectionOutput{
		ContentType:        "application/json",
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", res.Collection.Slug+".json"),
		Body:               body,
	}, nil
}
