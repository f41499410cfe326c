package repositories

import (
	"context"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
)

// OutcomeRepository provides the realized-volume sets produced by the offline generator
type OutcomeRepository interface {
	GetOutcomeSet(ctx context.Context, index int) (*entities.OutcomeSet, error)
	ListOutcomeSets(ctx context.Context) ([]int, error)
	SaveOutcomeSet(ctx context.Context, set *entities.OutcomeSet) error
}
