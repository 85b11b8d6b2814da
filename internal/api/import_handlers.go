package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
	"github.com/pintree/pintree-admin/internal/importer"
)

const importsPath = "/api/admin/imports"

func (s *Server) registerImportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:  "runImport",
		Method:       http.MethodPost,
		Path:         importsPath,
		Summary:      "Import a bookmark file",
		Description:  "Imports a native Pintree export or a generic browser bookmark tree into a new collection. The request body is the raw JSON file. Runs to completion before responding; progress is published on the event stream.",
		Tags:         []string{"Imports"},
		MaxBodyBytes: s.maxImportBytes(),
	}, s.handleRunImport)

	huma.Register(s.api, huma.Operation{
		OperationID: "listImports",
		Method:      http.MethodGet,
		Path:        importsPath,
		Summary:     "List import runs",
		Description: "Returns the most recent import runs, newest first",
		Tags:        []string{"Imports"},
	}, s.handleListImports)

	huma.Register(s.api, huma.Operation{
		OperationID: "getImport",
		Method:      http.MethodGet,
		Path:        "/api/admin/imports/{id}",
		Summary:     "Get import run",
		Description: "Returns one import run",
		Tags:        []string{"Imports"},
	}, s.handleGetImport)
}

func (s *Server) maxImportBytes() int64 {
	if s.services == nil || s.services.Import == nil {
		return importer.DefaultMaxFileSize
	}
	return s.services.Import.MaxFileSize()
}

// RunImportInput carries the collection metadata and the raw import file.
type RunImportInput struct {
	Name        string `query:"name" doc:"Name of the collection to create"`
	Description string `query:"description" doc:"Optional collection description"`
	RunID       string `query:"runId" doc:"Optional client-chosen run id (UUID), so the event stream can be followed before the request completes. A run id already in use is rejected."`
	RawBody     []byte
}

// RunImportOutput wraps the import report for huma.
type RunImportOutput struct {
	Body *importer.Report
}

// ImportFailure is the error detail of a failed import run.
type ImportFailure struct {
	Report *importer.Report `json:"report" doc:"How far the run got; everything it counts as imported stays committed"`
	Batch  any              `json:"batch,omitempty" doc:"Where the failing batch sat in the run"`
}

func (s *Server) handleRunImport(ctx context.Context, input *RunImportInput) (*RunImportOutput, error) {
	if input.RunID != "" {
		if _, err := uuid.Parse(input.RunID); err != nil {
			return nil, domainerrors.Validationf("run id %q is not a valid UUID", input.RunID)
		}
	}

	source, err := importer.ReadSource(bytes.NewReader(input.RawBody), s.maxImportBytes())
	if err != nil {
		return nil, err
	}

	report, err := s.services.Import.Import(ctx, importer.Request{
		RunID:       input.RunID,
		Name:        input.Name,
		Description: input.Description,
		Source:      source,
	})
	if err != nil {
		var de *domainerrors.Error
		if report == nil || !errors.As(err, &de) {
			return nil, err
		}
		return nil, de.WithDetails(ImportFailure{Report: report, Batch: de.Details})
	}

	return &RunImportOutput{Body: report}, nil
}

// ListImportsInput contains parameters for listing import runs.
type ListImportsInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum number of runs to return"`
}

// ImportRunsResponse contains the import history.
type ImportRunsResponse struct {
	Runs []*domain.ImportRun `json:"runs" doc:"Import runs, newest first"`
}

// ListImportsOutput wraps the import history for huma.
type ListImportsOutput struct {
	Body ImportRunsResponse
}

func (s *Server) handleListImports(ctx context.Context, input *ListImportsInput) (*ListImportsOutput, error) {
	runs, err := s.services.Import.ListRuns(ctx, input.Limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []*domain.ImportRun{}
	}
	return &ListImportsOutput{Body: ImportRunsResponse{Runs: runs}}, nil
}

// GetImportInput contains parameters for getting an import run.
type GetImportInput struct {
	ID string `path:"id" doc:"Import run ID"`
}

// ImportRunOutput wraps one import run for huma.
type ImportRunOutput struct {
	Body *domain.ImportRun
}

func (s *Server) handleGetImport(ctx context.Context, input *GetImportInput) (*ImportRunOutput, error) {
	run, err := s.services.Import.GetRun(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ImportRunOutput{Body: run}, nil
}
