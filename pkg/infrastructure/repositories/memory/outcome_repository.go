package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/repositories"
)

// OutcomeRepository provides in-memory outcome set storage
type OutcomeRepository struct {
	mu   sync.RWMutex
	sets map[int]entities.OutcomeSet
}

// NewOutcomeRepository creates a new in-memory outcome repository
func NewOutcomeRepository() *OutcomeRepository {
	return &OutcomeRepository{sets: make(map[int]entities.OutcomeSet)}
}

// Verify interface compliance
var _ repositories.OutcomeRepository = (*OutcomeRepository)(nil)

// SaveOutcomeSet stores a set, replacing any set with the same index
func (r *OutcomeRepository) SaveOutcomeSet(ctx context.Context, set *entities.OutcomeSet) error {
	if set.Index < 0 {
		return fmt.Errorf("outcome set index cannot be negative, got %d", set.Index)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[set.Index] = entities.OutcomeSet{
		Index:    set.Index,
		Outcomes: append([]entities.ScenarioOutcome(nil), set.Outcomes...),
	}
	return nil
}

// GetOutcomeSet returns the set with the given index
func (r *OutcomeRepository) GetOutcomeSet(ctx context.Context, index int) (*entities.OutcomeSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.sets[index]
	if !ok {
		return nil, fmt.Errorf("outcome set %d not found", index)
	}
	return &set, nil
}

// ListOutcomeSets returns the stored indices in ascending order
func (r *OutcomeRepository) ListOutcomeSets(ctx context.Context) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	indices := make([]int, 0, len(r.sets))
	for index := range r.sets {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices, nil
}
