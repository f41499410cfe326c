package ledger

import "github.com/vsinha/rollalloc/pkg/domain/entities"

// Snapshot is an immutable view of the ledger balances at one version
type Snapshot struct {
	version  int
	balances map[entities.InventoryKey]entities.Volume
}

// Version returns the ledger version the snapshot was taken at
func (s Snapshot) Version() int { return s.version }

// Volume returns the balance of a supply line, zero when unknown
func (s Snapshot) Volume(key entities.InventoryKey) entities.Volume {
	return s.balances[key]
}

// Apply returns a copy of catalog whose supply volumes are the snapshot balances. Lines the ledger
// does not know keep their catalog volume.
func (s Snapshot) Apply(catalog *entities.Catalog) *entities.Catalog {
	return catalog.WithSupplyVolumes(func(key entities.InventoryKey, line entities.SupplyLine) entities.Volume {
		if balance, ok := s.balances[key]; ok {
			return balance
		}
		return line.Volume
	})
}
