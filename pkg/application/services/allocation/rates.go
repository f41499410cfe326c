package allocation

import (
	"github.com/vsinha/rollalloc/pkg/domain"
	"github.com/vsinha/rollalloc/pkg/domain/entities"
)

type vendorProduct struct {
	vendor  entities.VendorID
	product entities.ProductType
}

type demandLine struct {
	volume    float64
	price     float64
	transport float64
	customs   float64
	extra     float64
	category  entities.CustomerCategory
}

// rateBook resolves every per-unit rate the model needs up front, so a missing rate fails the solve
// before any row is generated.
type rateBook struct {
	demand  map[DemandKey]demandLine
	vendor  map[vendorProduct]float64
	fee     float64
	deviate map[entities.ProductType]float64
}

func newRateBook(catalog *entities.Catalog, vars *Variables, params entities.ModelParameters) (*rateBook, error) {
	book := &rateBook{
		demand:  make(map[DemandKey]demandLine, len(vars.Demands)),
		vendor:  make(map[vendorProduct]float64),
		fee:     params.TerminalFee.InexactFloat64(),
		deviate: make(map[entities.ProductType]float64),
	}

	for _, customer := range catalog.Customers {
		for _, order := range customer.Orders {
			for _, line := range order.Demand {
				spec, err := catalog.Product(line.ProductType)
				if err != nil {
					return nil, err
				}
				transport, ok := customer.TransportCosts.Lookup(line.ProductType)
				if !ok {
					return nil, &domain.LookupError{
						Kind:        "customer transport rate",
						ID:          string(customer.ID),
						ProductType: line.ProductType.String(),
					}
				}
				entry := demandLine{
					volume:    float64(line.Volume),
					price:     line.UnitPrice.InexactFloat64(),
					transport: transport.InexactFloat64(),
					extra:     spec.ExtraCost.InexactFloat64(),
					category:  customer.Category,
				}
				if customer.OutOfCountry {
					entry.customs = spec.CustomsCost.InexactFloat64()
				}
				book.demand[DemandKey{0, customer.ID, order.Number, line.ProductType}] = entry
				book.deviate[line.ProductType] = spec.AverageDeviationPercent
			}
		}
	}

	for _, flow := range vars.Flows {
		key := vendorProduct{flow.Vendor, flow.Product}
		if _, done := book.vendor[key]; done {
			continue
		}
		vendor, err := catalog.Vendor(flow.Vendor)
		if err != nil {
			return nil, err
		}
		rate, ok := vendor.TransportCosts.Lookup(flow.Product)
		if !ok {
			return nil, &domain.LookupError{
				Kind:        "vendor transport rate",
				ID:          string(flow.Vendor),
				ProductType: flow.Product.String(),
			}
		}
		book.vendor[key] = rate.InexactFloat64()
	}
	return book, nil
}

func (b *rateBook) line(k DemandKey) demandLine {
	return b.demand[k.In(0)]
}

// internalMargin is the per-box objective value of serving a line from a vendor delivery
func (b *rateBook) internalMargin(k DemandKey) float64 {
	line := b.line(k)
	return line.price - line.transport - line.customs
}

// externalMargin is the per-box objective value of covering a line with an outside purchase
func (b *rateBook) externalMargin(k DemandKey) float64 {
	return b.internalMargin(k) - b.line(k).extra
}

// terminalRate is the per-box cross-dock cost of a flow
func (b *rateBook) terminalRate(k FlowKey) float64 {
	return b.vendor[vendorProduct{k.Vendor, k.Product}] + b.fee
}
