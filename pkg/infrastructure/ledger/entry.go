package ledger

import (
	"fmt"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
)

// EntryKind is the type of a ledger movement
type EntryKind int

const (
	// Opened books the estimated volume of a supply line
	Opened EntryKind = iota
	// Realized replaces the estimate by the actual delivered volume
	Realized
	// Allocated deducts boxes shipped to customers
	Allocated
)

// String method for EntryKind enum
func (k EntryKind) String() string {
	switch k {
	case Opened:
		return "opened"
	case Realized:
		return "realized"
	case Allocated:
		return "allocated"
	default:
		return "unknown"
	}
}

// Entry is one append-only movement on a supply line
type Entry struct {
	Kind EntryKind
	Key  entities.InventoryKey
	Day  entities.Day
	// Delta is the signed change applied to the balance
	Delta   entities.Volume
	Balance entities.Volume
	// Version is the entry's position within its supply line, starting at 1
	Version int
	// Position is the entry's position across the whole ledger, starting at 1
	Position int
}

func (e Entry) String() string {
	return fmt.Sprintf("#%d %s %s day %d %+d -> %d", e.Position, e.Key, e.Kind, e.Day, e.Delta, e.Balance)
}
