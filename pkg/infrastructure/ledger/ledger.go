// Package ledger keeps delivery inventory as an append-only history of movements. Balances are derived
// from the history, so replaying the same entries always yields the same state.
package ledger

import (
	"fmt"
	"sync"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/repositories"
)

// Ledger is an in-memory inventory ledger
type Ledger struct {
	mutex      sync.RWMutex
	streams    map[entities.InventoryKey][]Entry
	allEntries []Entry
	balances   map[entities.InventoryKey]entities.Volume
	allocated  map[entities.InventoryKey]entities.Volume
	realized   map[entities.InventoryKey]bool
}

// Verify interface compliance
var _ repositories.InventoryLedger = (*Ledger)(nil)

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{
		streams:   make(map[entities.InventoryKey][]Entry),
		balances:  make(map[entities.InventoryKey]entities.Volume),
		allocated: make(map[entities.InventoryKey]entities.Volume),
		realized:  make(map[entities.InventoryKey]bool),
	}
}

// NewFromCatalog opens every supply line of the catalog at its estimated volume
func NewFromCatalog(catalog *entities.Catalog) (*Ledger, error) {
	l := New()
	for _, vendor := range catalog.Vendors {
		for _, delivery := range vendor.Deliveries {
			for _, line := range delivery.Supply {
				key := entities.InventoryKey{Vendor: vendor.ID, Delivery: delivery.Number, Product: line.ProductType}
				if err := l.Open(delivery.ArrivalDay, key, line.Volume); err != nil {
					return nil, err
				}
			}
		}
	}
	return l, nil
}

// Open books the estimated volume of a new supply line
func (l *Ledger) Open(day entities.Day, key entities.InventoryKey, volume entities.Volume) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if _, exists := l.streams[key]; exists {
		return fmt.Errorf("supply line %s already opened", key)
	}
	if volume < 0 {
		return fmt.Errorf("opening volume for %s cannot be negative, got %d", key, volume)
	}
	l.append(Entry{Kind: Opened, Key: key, Day: day, Delta: volume})
	return nil
}

// Realize replaces the estimate of a supply line by the actual volume. Boxes already shipped from the
// line stay deducted.
func (l *Ledger) Realize(day entities.Day, key entities.InventoryKey, actual entities.Volume) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if _, exists := l.streams[key]; !exists {
		return fmt.Errorf("supply line %s not found", key)
	}
	if l.realized[key] {
		return fmt.Errorf("supply line %s already realized", key)
	}
	if actual < 0 {
		return fmt.Errorf("actual volume for %s cannot be negative, got %d", key, actual)
	}
	target := actual - l.allocated[key]
	if target < 0 {
		return fmt.Errorf(
			"actual volume %d for %s is below the %d boxes already shipped",
			actual, key, l.allocated[key],
		)
	}
	l.append(Entry{Kind: Realized, Key: key, Day: day, Delta: target - l.balances[key]})
	return nil
}

// Allocate deducts shipped boxes from a supply line
func (l *Ledger) Allocate(day entities.Day, key entities.InventoryKey, volume entities.Volume) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if _, exists := l.streams[key]; !exists {
		return fmt.Errorf("supply line %s not found", key)
	}
	if volume <= 0 {
		return fmt.Errorf("allocated volume for %s must be positive, got %d", key, volume)
	}
	if volume > l.balances[key] {
		return fmt.Errorf("cannot allocate %d from %s, only %d left", volume, key, l.balances[key])
	}
	l.append(Entry{Kind: Allocated, Key: key, Day: day, Delta: -volume})
	return nil
}

// append applies an entry; the caller holds the write lock
func (l *Ledger) append(entry Entry) {
	switch entry.Kind {
	case Realized:
		l.realized[entry.Key] = true
	case Allocated:
		l.allocated[entry.Key] -= entry.Delta
	}
	l.balances[entry.Key] += entry.Delta
	entry.Balance = l.balances[entry.Key]
	entry.Version = len(l.streams[entry.Key]) + 1
	entry.Position = len(l.allEntries) + 1
	l.streams[entry.Key] = append(l.streams[entry.Key], entry)
	l.allEntries = append(l.allEntries, entry)
}

// Balance returns the remaining volume of a supply line
func (l *Ledger) Balance(key entities.InventoryKey) (entities.Volume, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	balance, ok := l.balances[key]
	return balance, ok
}

// IsRealized reports whether the actual volume of a supply line has been booked
func (l *Ledger) IsRealized(key entities.InventoryKey) bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.realized[key]
}

// Version returns the number of entries booked so far
func (l *Ledger) Version() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return len(l.allEntries)
}

// ReadEntries returns the history of one supply line from a version on
func (l *Ledger) ReadEntries(key entities.InventoryKey, fromVersion int) []Entry {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	entries := l.streams[key]
	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(entries) {
		return []Entry{}
	}
	return append([]Entry(nil), entries[fromVersion-1:]...)
}

// ReadAllEntries returns the whole history from a position on
func (l *Ledger) ReadAllEntries(fromPosition int) []Entry {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if fromPosition < 1 {
		fromPosition = 1
	}
	if fromPosition > len(l.allEntries) {
		return []Entry{}
	}
	return append([]Entry(nil), l.allEntries[fromPosition-1:]...)
}

// Snapshot captures the current balances
func (l *Ledger) Snapshot() Snapshot {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	balances := make(map[entities.InventoryKey]entities.Volume, len(l.balances))
	for key, balance := range l.balances {
		balances[key] = balance
	}
	return Snapshot{version: len(l.allEntries), balances: balances}
}

// Replay rebuilds a ledger from a history
func Replay(entries []Entry) (*Ledger, error) {
	l := New()
	for _, entry := range entries {
		var err error
		switch entry.Kind {
		case Opened:
			err = l.Open(entry.Day, entry.Key, entry.Delta)
		case Realized:
			l.mutex.RLock()
			actual := l.balances[entry.Key] + entry.Delta + l.allocated[entry.Key]
			l.mutex.RUnlock()
			err = l.Realize(entry.Day, entry.Key, actual)
		case Allocated:
			err = l.Allocate(entry.Day, entry.Key, -entry.Delta)
		default:
			err = fmt.Errorf("unknown entry kind %d", entry.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("replay entry %d: %w", entry.Position, err)
		}
	}
	return l, nil
}
