// Package profit computes the realized economics of committed actions. The terminal cost here is the
// discrete full-load rule; the allocation model only carries a linear approximation of it.
package profit

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/rollalloc/pkg/application/dto"
	"github.com/vsinha/rollalloc/pkg/domain"
	"github.com/vsinha/rollalloc/pkg/domain/entities"
)

// Accountant prices actions against the catalog
type Accountant struct {
	params entities.ModelParameters
}

// NewAccountant creates an accountant
func NewAccountant(params entities.ModelParameters) *Accountant {
	return &Accountant{params: params}
}

type shipment struct {
	vendor   entities.VendorID
	delivery entities.DeliveryNumber
	customer entities.CustomerID
	order    entities.OrderNumber
}

// Calculate returns the breakdown of a set of actions: revenue less extra purchase cost (outside
// purchases only), customer transport, customs (out of country only) and terminal cost. A shipment
// from one delivery to one order below the full-load threshold pays (vendor rate + terminal fee) on
// every box; a full load pays nothing.
func (a *Accountant) Calculate(catalog *entities.Catalog, actions []entities.Action) (dto.ProfitBreakdown, error) {
	breakdown := dto.ProfitBreakdown{
		Revenue:       decimal.Zero,
		ExtraCost:     decimal.Zero,
		TransportCost: decimal.Zero,
		CustomsCost:   decimal.Zero,
		TerminalCost:  decimal.Zero,
	}

	shipped := make(map[shipment]entities.Volume)
	for _, action := range actions {
		customer, order, err := catalog.Order(action.CustomerID, action.OrderNumber)
		if err != nil {
			return dto.ProfitBreakdown{}, err
		}
		line, ok := order.Line(action.ProductType)
		if !ok {
			return dto.ProfitBreakdown{}, &domain.LookupError{
				Kind:        "demand line",
				ID:          fmt.Sprintf("%s/%d", action.CustomerID, action.OrderNumber),
				ProductType: action.ProductType.String(),
			}
		}
		spec, err := catalog.Product(action.ProductType)
		if err != nil {
			return dto.ProfitBreakdown{}, err
		}
		transport, ok := customer.TransportCosts.Lookup(action.ProductType)
		if !ok {
			return dto.ProfitBreakdown{}, &domain.LookupError{
				Kind:        "customer transport rate",
				ID:          string(customer.ID),
				ProductType: action.ProductType.String(),
			}
		}

		volume := decimal.NewFromInt(int64(action.Volume))
		breakdown.Revenue = breakdown.Revenue.Add(line.UnitPrice.Mul(volume))
		breakdown.TransportCost = breakdown.TransportCost.Add(transport.Mul(volume))
		if customer.OutOfCountry {
			breakdown.CustomsCost = breakdown.CustomsCost.Add(spec.CustomsCost.Mul(volume))
		}
		if !action.Internal {
			breakdown.ExtraCost = breakdown.ExtraCost.Add(spec.ExtraCost.Mul(volume))
			continue
		}
		if action.Source == nil {
			return dto.ProfitBreakdown{}, fmt.Errorf("internal action %s has no source delivery", &action)
		}
		shipped[shipmentOf(action)] += action.Volume
	}

	for _, action := range actions {
		if !action.Internal || shipped[shipmentOf(action)] >= a.params.FullLoadThreshold {
			continue
		}
		vendor, err := catalog.Vendor(action.Source.VendorID)
		if err != nil {
			return dto.ProfitBreakdown{}, err
		}
		rate, ok := vendor.TransportCosts.Lookup(action.ProductType)
		if !ok {
			return dto.ProfitBreakdown{}, &domain.LookupError{
				Kind:        "vendor transport rate",
				ID:          string(vendor.ID),
				ProductType: action.ProductType.String(),
			}
		}
		volume := decimal.NewFromInt(int64(action.Volume))
		breakdown.TerminalCost = breakdown.TerminalCost.Add(rate.Add(a.params.TerminalFee).Mul(volume))
	}

	breakdown.Profit = breakdown.Revenue.
		Sub(breakdown.ExtraCost).
		Sub(breakdown.TransportCost).
		Sub(breakdown.CustomsCost).
		Sub(breakdown.TerminalCost)
	return breakdown, nil
}

func shipmentOf(action entities.Action) shipment {
	return shipment{action.Source.VendorID, action.Source.DeliveryNumber, action.CustomerID, action.OrderNumber}
}
