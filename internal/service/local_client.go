package service

import (
	"context"
	"log/slog"
	"net/http"

	domainerrors "github.com/pintree/pintree-admin/internal/errors"
	"github.com/pintree/pintree-admin/internal/persistence"
)

// LocalClient implements persistence.Client in-process against the bundled
// backend. Backend rejections surface as *persistence.Error with the status
// the HTTP endpoints would have answered, so the pipeline behaves the same
// whether it talks to this server or a remote one.
type LocalClient struct {
	backend *CollectionImportService
	logger  *slog.Logger
}

var _ persistence.Client = (*LocalClient)(nil)

// NewLocalClient creates a new in-process persistence client.
func NewLocalClient(backend *CollectionImportService, logger *slog.Logger) *LocalClient {
	return &LocalClient{backend: backend, logger: logger}
}

// CreateFolders implements persistence.Client.
func (c *LocalClient) CreateFolders(ctx context.Context, req *persistence.FoldersRequest) (*persistence.BatchResponse, error) {
	resp, err := c.backend.RecoverFolders(ctx, req)
	return resp, c.translate(persistence.OpCreateFolders, err)
}

// CreateBookmarks implements persistence.Client.
func (c *LocalClient) CreateBookmarks(ctx context.Context, req *persistence.BookmarksRequest) (*persistence.BatchResponse, error) {
	resp, err := c.backend.RecoverBookmarks(ctx, req)
	return resp, c.translate(persistence.OpCreateBookmarks, err)
}

// ImportGeneric implements persistence.Client.
func (c *LocalClient) ImportGeneric(ctx context.Context, req *persistence.GenericImportRequest) (*persistence.BatchResponse, error) {
	resp, err := c.backend.ImportGeneric(ctx, req)
	return resp, c.translate(persistence.OpGenericImport, err)
}

func (c *LocalClient) translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if domainerrors.Is(err, context.Canceled) || domainerrors.Is(err, context.DeadlineExceeded) {
		return &persistence.Error{Op: op, Err: err}
	}

	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		return persistence.StatusError(op, domainErr.HTTPStatus(), domainErr.Message)
	}

	c.logger.Error("persistence backend failed", "op", op, "error", err)
	return persistence.StatusError(op, http.StatusInternalServerError, "")
}
