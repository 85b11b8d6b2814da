package providers

import (
	"github.com/samber/do/v2"

	"github.com/pintree/pintree-admin/internal/config"
	"github.com/pintree/pintree-admin/internal/importer"
	"github.com/pintree/pintree-admin/internal/logger"
	"github.com/pintree/pintree-admin/internal/persistence"
	"github.com/pintree/pintree-admin/internal/service"
)

// ProvideCollectionImportService provides the bundled persistence backend.
func ProvideCollectionImportService(i do.Injector) (*service.CollectionImportService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCollectionImportService(storeHandle.Store, log.Logger), nil
}

// ProvidePersistenceClient provides the client imports write through: the
// remote API when one is configured, the bundled backend otherwise.
func ProvidePersistenceClient(i do.Injector) (persistence.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Persistence.Remote() {
		log.Info("Imports use remote persistence API",
			"base_url", cfg.Persistence.BaseURL,
			"timeout", cfg.Persistence.Timeout,
			"rps", cfg.Persistence.RequestsPerSecond,
		)
		return persistence.NewHTTPClient(persistence.HTTPConfig{
			BaseURL:           cfg.Persistence.BaseURL,
			Timeout:           cfg.Persistence.Timeout,
			RequestsPerSecond: cfg.Persistence.RequestsPerSecond,
		}, log.Logger), nil
	}

	backend := do.MustInvoke[*service.CollectionImportService](i)
	return service.NewLocalClient(backend, log.Logger), nil
}

// ProvideImportService provides the import service. Run events are
// published on the SSE stream.
func ProvideImportService(i do.Injector) (*service.ImportService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	client := do.MustInvoke[persistence.Client](i)
	log := do.MustInvoke[*logger.Logger](i)

	opts := importer.Options{
		NativeMarker:     cfg.Import.NativeMarker,
		NativeBatchSize:  cfg.Import.NativeBatchSize,
		GenericBatchSize: cfg.Import.GenericBatchSize,
		MaxFileSize:      cfg.Import.MaxFileSize,
	}

	return service.NewImportService(client, storeHandle.Store, sseHandle.Manager, opts, log.Logger), nil
}
