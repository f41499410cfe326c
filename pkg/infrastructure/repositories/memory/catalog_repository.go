package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/repositories"
)

// CatalogRepository provides in-memory master data storage
type CatalogRepository struct {
	mu      sync.RWMutex
	catalog *entities.Catalog
}

// NewCatalogRepository creates a repository holding a copy of catalog
func NewCatalogRepository(catalog *entities.Catalog) *CatalogRepository {
	r := &CatalogRepository{}
	if catalog != nil {
		r.catalog = catalog.Clone()
	}
	return r
}

// Verify interface compliance
var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// SaveCatalog replaces the stored catalog
func (r *CatalogRepository) SaveCatalog(catalog *entities.Catalog) error {
	if err := catalog.Validate(); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog = catalog.Clone()
	return nil
}

// LoadCatalog returns a copy of the stored catalog
func (r *CatalogRepository) LoadCatalog(ctx context.Context) (*entities.Catalog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.catalog == nil {
		return nil, fmt.Errorf("no catalog loaded")
	}
	return r.catalog.Clone(), nil
}
