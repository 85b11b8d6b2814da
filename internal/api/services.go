package api

import "github.com/pintree/pintree-admin/internal/service"

// Services groups the service layer the handlers call into.
type Services struct {
	Import      *service.ImportService
	Collections *service.CollectionImportService
}
