package repositories

import "github.com/vsinha/rollalloc/pkg/domain/entities"

// InventoryLedger tracks the remaining volume of every supply line as an append-only history
type InventoryLedger interface {
	// Realize replaces the estimated volume of a supply line by its actual volume
	Realize(day entities.Day, key entities.InventoryKey, actual entities.Volume) error
	// Allocate deducts shipped boxes; the balance may never go negative
	Allocate(day entities.Day, key entities.InventoryKey, volume entities.Volume) error
	Balance(key entities.InventoryKey) (entities.Volume, bool)
	IsRealized(key entities.InventoryKey) bool
	Version() int
}
