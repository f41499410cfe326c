package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/rollalloc/pkg/domain"
)

// CustomerID identifies a customer
type CustomerID string

// OrderNumber identifies an order within its customer
type OrderNumber int

// CustomerCategory is the fulfilment priority class of a customer
type CustomerCategory int

const (
	Contract CustomerCategory = iota
	CategoryA
	CategoryB
)

// String method for CustomerCategory enum
func (c CustomerCategory) String() string {
	switch c {
	case Contract:
		return "Contract"
	case CategoryA:
		return "A"
	case CategoryB:
		return "B"
	default:
		return "Unknown"
	}
}

// ParseCustomerCategory reads the input codes contract, a and b
func ParseCustomerCategory(s string) (CustomerCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contract":
		return Contract, nil
	case "a":
		return CategoryA, nil
	case "b":
		return CategoryB, nil
	default:
		return 0, domain.NewConfigurationError("category", "unknown customer category %q", s)
	}
}

// DemandLine is the ordered volume and agreed price of one grade
type DemandLine struct {
	ProductType ProductType
	Volume      Volume
	UnitPrice   decimal.Decimal
}

// Order is a shipment to a customer leaving on a given day
type Order struct {
	Number       OrderNumber
	DepartureDay Day
	Demand       []DemandLine
}

// Line returns the demand line for a grade
func (o *Order) Line(p ProductType) (DemandLine, bool) {
	for _, line := range o.Demand {
		if line.ProductType == p {
			return line, true
		}
	}
	return DemandLine{}, false
}

// TotalVolume sums the ordered boxes across grades
func (o *Order) TotalVolume() Volume {
	var total Volume
	for _, line := range o.Demand {
		total += line.Volume
	}
	return total
}

// Customer groups orders under one priority class and transport zone
type Customer struct {
	ID             CustomerID
	Category       CustomerCategory
	OutOfCountry   bool
	TransportCosts RateTable
	Orders         []Order
}

// NewOrder creates a validated order
func NewOrder(number OrderNumber, departureDay Day, demand []DemandLine) (*Order, error) {
	if departureDay < 0 {
		return nil, fmt.Errorf("departure day cannot be negative, got %d", departureDay)
	}
	seen := make(map[ProductType]bool, len(demand))
	for _, line := range demand {
		if line.Volume < 0 {
			return nil, fmt.Errorf(
				"demand volume for %s cannot be negative, got %d",
				line.ProductType,
				line.Volume,
			)
		}
		if line.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("unit price for %s cannot be negative", line.ProductType)
		}
		if seen[line.ProductType] {
			return nil, fmt.Errorf("duplicate demand line for %s", line.ProductType)
		}
		seen[line.ProductType] = true
	}

	return &Order{Number: number, DepartureDay: departureDay, Demand: demand}, nil
}

// NewCustomer creates a validated customer
func NewCustomer(
	id CustomerID,
	category CustomerCategory,
	outOfCountry bool,
	transportCosts RateTable,
	orders []Order,
) (*Customer, error) {
	if id == "" {
		return nil, fmt.Errorf("customer id cannot be empty")
	}
	if category.String() == "Unknown" {
		return nil, fmt.Errorf("invalid customer category %d", int(category))
	}
	seen := make(map[OrderNumber]bool, len(orders))
	for _, order := range orders {
		if seen[order.Number] {
			return nil, fmt.Errorf("duplicate order number %d for customer %s", order.Number, id)
		}
		seen[order.Number] = true
	}

	return &Customer{
		ID:             id,
		Category:       category,
		OutOfCountry:   outOfCountry,
		TransportCosts: transportCosts,
		Orders:         orders,
	}, nil
}

// Order returns the order with the given number
func (c *Customer) Order(number OrderNumber) (*Order, bool) {
	for i := range c.Orders {
		if c.Orders[i].Number == number {
			return &c.Orders[i], true
		}
	}
	return nil, false
}
