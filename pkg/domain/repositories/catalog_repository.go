package repositories

import (
	"context"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
)

// CatalogRepository provides the master data of a run
type CatalogRepository interface {
	LoadCatalog(ctx context.Context) (*entities.Catalog, error)
}
