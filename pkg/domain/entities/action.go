package entities

import "fmt"

// DeliverySource names the vendor delivery an internal action draws from
type DeliverySource struct {
	VendorID       VendorID       `json:"vendor_id"`
	DeliveryNumber DeliveryNumber `json:"delivery_number"`
}

// Action is one committed allocation: boxes of a grade sent to a customer's order on a given day,
// drawn either from a vendor delivery (internal) or bought from outside.
type Action struct {
	Volume            Volume          `json:"volume_delivered"`
	OrderNumber       OrderNumber     `json:"order_number"`
	CustomerID        CustomerID      `json:"customer_id"`
	Source            *DeliverySource `json:"source,omitempty"`
	ProductType       ProductType     `json:"product_type"`
	Internal          bool            `json:"internal_delivery"`
	TransportationDay Day             `json:"transportation_day"`
}

// NewInternalAction creates an action served from a vendor delivery
func NewInternalAction(
	volume Volume,
	customerID CustomerID,
	orderNumber OrderNumber,
	vendorID VendorID,
	deliveryNumber DeliveryNumber,
	productType ProductType,
	day Day,
) (*Action, error) {
	if volume <= 0 {
		return nil, fmt.Errorf("action volume must be positive, got %d", volume)
	}
	if customerID == "" {
		return nil, fmt.Errorf("customer id cannot be empty")
	}
	if vendorID == "" {
		return nil, fmt.Errorf("vendor id cannot be empty")
	}

	return &Action{
		Volume:            volume,
		OrderNumber:       orderNumber,
		CustomerID:        customerID,
		Source:            &DeliverySource{VendorID: vendorID, DeliveryNumber: deliveryNumber},
		ProductType:       productType,
		Internal:          true,
		TransportationDay: day,
	}, nil
}

// NewExternalAction creates an action covered by an outside purchase
func NewExternalAction(
	volume Volume,
	customerID CustomerID,
	orderNumber OrderNumber,
	productType ProductType,
	day Day,
) (*Action, error) {
	if volume <= 0 {
		return nil, fmt.Errorf("action volume must be positive, got %d", volume)
	}
	if customerID == "" {
		return nil, fmt.Errorf("customer id cannot be empty")
	}

	return &Action{
		Volume:            volume,
		OrderNumber:       orderNumber,
		CustomerID:        customerID,
		ProductType:       productType,
		TransportationDay: day,
	}, nil
}

// InventoryKey returns the supply line an internal action depletes
func (a *Action) InventoryKey() (InventoryKey, bool) {
	if !a.Internal || a.Source == nil {
		return InventoryKey{}, false
	}
	return InventoryKey{
		Vendor:   a.Source.VendorID,
		Delivery: a.Source.DeliveryNumber,
		Product:  a.ProductType,
	}, true
}

func (a *Action) String() string {
	if a.Internal && a.Source != nil {
		return fmt.Sprintf(
			"day %d: %d x %s %s/%d -> %s/%d",
			a.TransportationDay, a.Volume, a.ProductType,
			a.Source.VendorID, a.Source.DeliveryNumber, a.CustomerID, a.OrderNumber,
		)
	}
	return fmt.Sprintf(
		"day %d: %d x %s external -> %s/%d",
		a.TransportationDay, a.Volume, a.ProductType, a.CustomerID, a.OrderNumber,
	)
}
