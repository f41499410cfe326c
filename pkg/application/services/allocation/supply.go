package allocation

import (
	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/services/scenariotree"
)

// SupplyEstimator gives the volume of a supply line in a scenario. Deliveries that have already
// arrived keep their booked volume; later arrivals are resampled at the scenario's level for that day.
type SupplyEstimator struct {
	Tree   *scenariotree.Tree
	Window Window
	Rule   scenariotree.SigmaRule
}

// Volume returns supply(v, d, p, s)
func (e SupplyEstimator) Volume(
	delivery *entities.Delivery,
	line entities.SupplyLine,
	averageDeviationPercent float64,
	scenario int,
) float64 {
	expected := float64(line.Volume)
	if delivery.ArrivalDay <= e.Window.Today {
		return expected
	}
	level := e.Tree.Level(scenario, e.Window.Index(delivery.ArrivalDay))
	return scenariotree.Volume(expected, level, averageDeviationPercent, e.Rule)
}
