package testing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/infrastructure/repositories/memory"
)

// TestParameters are model constants sized for the small fixtures below. BigM is kept small so the
// relaxations stay well conditioned.
func TestParameters() entities.ModelParameters {
	return entities.ModelParameters{
		BigM:              10_000,
		FullLoadThreshold: 864,
		TerminalFee:       decimal.NewFromInt(10),
	}
}

// CatalogBuilder assembles catalogs for tests. Transport rates are flat across grades.
type CatalogBuilder struct {
	catalog entities.Catalog
}

// NewCatalogBuilder creates an empty builder
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{}
}

func flatRates(cost float64) entities.RateTable {
	rates := make(entities.RateTable, 0, len(entities.ProductTypes))
	for _, p := range entities.ProductTypes {
		rates = append(rates, entities.Rate{ProductType: p, Cost: decimal.NewFromFloat(cost)})
	}
	return rates
}

// Product adds the cost parameters of a grade
func (b *CatalogBuilder) Product(p entities.ProductType, customs, extra, deviationPercent float64) *CatalogBuilder {
	b.catalog.Products = append(b.catalog.Products, entities.ProductSpec{
		ProductType:             p,
		CustomsCost:             decimal.NewFromFloat(customs),
		ExtraCost:               decimal.NewFromFloat(extra),
		AverageDeviationPercent: deviationPercent,
	})
	return b
}

// Vendor adds a vendor with a flat transport rate
func (b *CatalogBuilder) Vendor(id entities.VendorID, transport float64) *CatalogBuilder {
	b.catalog.Vendors = append(b.catalog.Vendors, entities.Vendor{ID: id, TransportCosts: flatRates(transport)})
	return b
}

// VendorWithoutRates adds a vendor with an empty transport table
func (b *CatalogBuilder) VendorWithoutRates(id entities.VendorID) *CatalogBuilder {
	b.catalog.Vendors = append(b.catalog.Vendors, entities.Vendor{ID: id})
	return b
}

// Supply adds a supply line, creating the delivery on first use
func (b *CatalogBuilder) Supply(
	vendorID entities.VendorID,
	number entities.DeliveryNumber,
	arrival entities.Day,
	p entities.ProductType,
	volume entities.Volume,
	unitCost float64,
) *CatalogBuilder {
	vendor := b.vendor(vendorID)
	delivery, ok := vendor.Delivery(number)
	if !ok {
		vendor.Deliveries = append(vendor.Deliveries, entities.Delivery{Number: number, ArrivalDay: arrival})
		delivery = &vendor.Deliveries[len(vendor.Deliveries)-1]
	}
	delivery.Supply = append(delivery.Supply, entities.SupplyLine{
		ProductType: p,
		Volume:      volume,
		UnitCost:    decimal.NewFromFloat(unitCost),
	})
	return b
}

// Customer adds a customer with a flat transport rate
func (b *CatalogBuilder) Customer(
	id entities.CustomerID,
	category entities.CustomerCategory,
	outOfCountry bool,
	transport float64,
) *CatalogBuilder {
	b.catalog.Customers = append(b.catalog.Customers, entities.Customer{
		ID:             id,
		Category:       category,
		OutOfCountry:   outOfCountry,
		TransportCosts: flatRates(transport),
	})
	return b
}

// Demand adds a demand line, creating the order on first use
func (b *CatalogBuilder) Demand(
	customerID entities.CustomerID,
	number entities.OrderNumber,
	departure entities.Day,
	p entities.ProductType,
	volume entities.Volume,
	price float64,
) *CatalogBuilder {
	customer := b.customer(customerID)
	order, ok := customer.Order(number)
	if !ok {
		customer.Orders = append(customer.Orders, entities.Order{Number: number, DepartureDay: departure})
		order = &customer.Orders[len(customer.Orders)-1]
	}
	order.Demand = append(order.Demand, entities.DemandLine{
		ProductType: p,
		Volume:      volume,
		UnitPrice:   decimal.NewFromFloat(price),
	})
	return b
}

// Build returns a copy of the assembled catalog
func (b *CatalogBuilder) Build() *entities.Catalog {
	return b.catalog.Clone()
}

func (b *CatalogBuilder) vendor(id entities.VendorID) *entities.Vendor {
	for i := range b.catalog.Vendors {
		if b.catalog.Vendors[i].ID == id {
			return &b.catalog.Vendors[i]
		}
	}
	panic(fmt.Sprintf("vendor %s not declared", id))
}

func (b *CatalogBuilder) customer(id entities.CustomerID) *entities.Customer {
	for i := range b.catalog.Customers {
		if b.catalog.Customers[i].ID == id {
			return &b.catalog.Customers[i]
		}
	}
	panic(fmt.Sprintf("customer %s not declared", id))
}

// BuildSingleContractCatalog is one vendor delivering 100 boxes on day 0 at unit cost 5 and one
// contract customer ordering all 100 at price 12 on day 0, with no transport or customs cost.
func BuildSingleContractCatalog() *entities.Catalog {
	return NewCatalogBuilder().
		Product(entities.Salmon1To2, 0, 20, 10).
		Vendor("V1", 0).
		Supply("V1", 0, 0, entities.Salmon1To2, 100, 5).
		Customer("C1", entities.Contract, false, 0).
		Demand("C1", 0, 0, entities.Salmon1To2, 100, 12).
		Build()
}

// BuildPriorityCatalog has 10 boxes on day 0, an A order for 15 at price 12 and a B order for 10 at
// the better price 15, both departing day 0.
func BuildPriorityCatalog() *entities.Catalog {
	return NewCatalogBuilder().
		Product(entities.Salmon1To2, 0, 20, 10).
		Vendor("V1", 0).
		Supply("V1", 0, 0, entities.Salmon1To2, 10, 5).
		Customer("CA", entities.CategoryA, false, 0).
		Demand("CA", 0, 0, entities.Salmon1To2, 15, 12).
		Customer("CB", entities.CategoryB, false, 0).
		Demand("CB", 0, 0, entities.Salmon1To2, 10, 15).
		Build()
}

// BuildTwoDayCatalog has deliveries of 50 (day 0) and 40 (day 1), a contract order for 30 leaving day 0
// and an A order for 60 leaving day 1. The only optimal plan ships 30 then 20 + 40.
func BuildTwoDayCatalog() *entities.Catalog {
	return NewCatalogBuilder().
		Product(entities.Salmon1To2, 0, 100, 10).
		Vendor("V1", 0).
		Supply("V1", 0, 0, entities.Salmon1To2, 50, 5).
		Supply("V1", 1, 1, entities.Salmon1To2, 40, 5).
		Customer("C1", entities.Contract, false, 1).
		Demand("C1", 0, 0, entities.Salmon1To2, 30, 20).
		Customer("C2", entities.CategoryA, false, 1).
		Demand("C2", 0, 1, entities.Salmon1To2, 60, 15).
		Build()
}

// BuildSalmonTestData is a three-day, two-grade catalog with every customer category, together with
// two outcome sets, loaded into in-memory repositories.
func BuildSalmonTestData() (*memory.CatalogRepository, *memory.OutcomeRepository) {
	catalog := NewCatalogBuilder().
		Product(entities.Salmon1To2, 20, 80, 10).
		Product(entities.Salmon2To3, 20, 80, 10).
		Vendor("NORD", 2).
		Vendor("VEST", 3).
		Supply("NORD", 0, 0, entities.Salmon1To2, 120, 40).
		Supply("NORD", 0, 0, entities.Salmon2To3, 60, 45).
		Supply("NORD", 1, 1, entities.Salmon1To2, 90, 40).
		Supply("VEST", 0, 1, entities.Salmon2To3, 80, 44).
		Supply("VEST", 1, 2, entities.Salmon1To2, 100, 41).
		Customer("OSLO", entities.Contract, false, 4).
		Demand("OSLO", 0, 0, entities.Salmon1To2, 50, 70).
		Demand("OSLO", 1, 2, entities.Salmon1To2, 60, 70).
		Customer("PARIS", entities.CategoryA, true, 9).
		Demand("PARIS", 0, 1, entities.Salmon1To2, 80, 95).
		Demand("PARIS", 0, 1, entities.Salmon2To3, 40, 99).
		Customer("MADRID", entities.CategoryB, true, 11).
		Demand("MADRID", 0, 1, entities.Salmon2To3, 50, 105).
		Demand("MADRID", 1, 2, entities.Salmon1To2, 70, 100).
		Build()

	catalogRepo := memory.NewCatalogRepository(catalog)
	outcomeRepo := memory.NewOutcomeRepository()
	for index, factor := range []float64{0.9, 1.1} {
		set := &entities.OutcomeSet{Index: index}
		for _, vendor := range catalog.Vendors {
			for _, delivery := range vendor.Deliveries {
				for _, line := range delivery.Supply {
					set.Outcomes = append(set.Outcomes, entities.ScenarioOutcome{
						VendorID:       vendor.ID,
						DeliveryNumber: delivery.Number,
						ProductType:    line.ProductType,
						ActualVolume:   entities.Volume(float64(line.Volume) * factor),
					})
				}
			}
		}
		if err := outcomeRepo.SaveOutcomeSet(context.Background(), set); err != nil {
			panic(err)
		}
	}
	return catalogRepo, outcomeRepo
}
