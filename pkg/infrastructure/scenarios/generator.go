package scenarios

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/services/scenariotree"
)

// Generator draws realized delivery volumes around the catalog estimates
type Generator struct {
	rule scenariotree.SigmaRule
	src  rand.Source
}

// NewGenerator creates a seeded generator; equal seeds give equal outcome sets
func NewGenerator(seed uint64, rule scenariotree.SigmaRule) *Generator {
	return &Generator{rule: rule, src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// Generate draws count outcome sets indexed from first. Every supply line gets
// max(0, trunc(Normal(estimate, sigma))), sigma following the generator's rule and the grade's
// average deviation.
func (g *Generator) Generate(catalog *entities.Catalog, first, count int) ([]*entities.OutcomeSet, error) {
	if count < 1 {
		return nil, fmt.Errorf("outcome set count must be positive, got %d", count)
	}

	sets := make([]*entities.OutcomeSet, 0, count)
	for n := 0; n < count; n++ {
		set := &entities.OutcomeSet{Index: first + n}
		for _, vendor := range catalog.Vendors {
			for _, delivery := range vendor.Deliveries {
				for _, line := range delivery.Supply {
					spec, err := catalog.Product(line.ProductType)
					if err != nil {
						return nil, err
					}
					set.Outcomes = append(set.Outcomes, entities.ScenarioOutcome{
						VendorID:       vendor.ID,
						DeliveryNumber: delivery.Number,
						ProductType:    line.ProductType,
						ActualVolume:   g.draw(float64(line.Volume), spec.AverageDeviationPercent),
					})
				}
			}
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func (g *Generator) draw(estimate, averageDeviationPercent float64) entities.Volume {
	sigma := g.rule.Sigma(estimate, averageDeviationPercent)
	if sigma <= 0 {
		return entities.Volume(estimate)
	}
	normal := distuv.Normal{Mu: estimate, Sigma: sigma, Src: g.src}
	actual := int(normal.Rand())
	if actual < 0 {
		return 0
	}
	return entities.Volume(actual)
}
