package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VendorID identifies a supplier
type VendorID string

// DeliveryNumber identifies a delivery within its vendor
type DeliveryNumber int

// SupplyLine is the estimated volume of one grade on a delivery
type SupplyLine struct {
	ProductType ProductType
	Volume      Volume
	UnitCost    decimal.Decimal
}

// Delivery is a single vendor shipment arriving on a given day
type Delivery struct {
	Number     DeliveryNumber
	ArrivalDay Day
	Supply     []SupplyLine
}

// Line returns the supply line for a grade
func (d *Delivery) Line(p ProductType) (SupplyLine, bool) {
	for _, line := range d.Supply {
		if line.ProductType == p {
			return line, true
		}
	}
	return SupplyLine{}, false
}

// Vendor owns its deliveries and the per-grade cost of moving boxes from it
type Vendor struct {
	ID             VendorID
	Deliveries     []Delivery
	TransportCosts RateTable
}

// NewDelivery creates a validated delivery
func NewDelivery(number DeliveryNumber, arrivalDay Day, supply []SupplyLine) (*Delivery, error) {
	if arrivalDay < 0 {
		return nil, fmt.Errorf("arrival day cannot be negative, got %d", arrivalDay)
	}
	seen := make(map[ProductType]bool, len(supply))
	for _, line := range supply {
		if line.Volume < 0 {
			return nil, fmt.Errorf(
				"supply volume for %s cannot be negative, got %d",
				line.ProductType,
				line.Volume,
			)
		}
		if seen[line.ProductType] {
			return nil, fmt.Errorf("duplicate supply line for %s", line.ProductType)
		}
		seen[line.ProductType] = true
	}

	return &Delivery{Number: number, ArrivalDay: arrivalDay, Supply: supply}, nil
}

// NewVendor creates a validated vendor
func NewVendor(id VendorID, deliveries []Delivery, transportCosts RateTable) (*Vendor, error) {
	if id == "" {
		return nil, fmt.Errorf("vendor id cannot be empty")
	}
	seen := make(map[DeliveryNumber]bool, len(deliveries))
	for _, delivery := range deliveries {
		if seen[delivery.Number] {
			return nil, fmt.Errorf("duplicate delivery number %d for vendor %s", delivery.Number, id)
		}
		seen[delivery.Number] = true
	}

	return &Vendor{ID: id, Deliveries: deliveries, TransportCosts: transportCosts}, nil
}

// Delivery returns the delivery with the given number
func (v *Vendor) Delivery(number DeliveryNumber) (*Delivery, bool) {
	for i := range v.Deliveries {
		if v.Deliveries[i].Number == number {
			return &v.Deliveries[i], true
		}
	}
	return nil, false
}
