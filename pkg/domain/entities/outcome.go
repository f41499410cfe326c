package entities

// ScenarioOutcome is the realized volume of one supply line in one simulated world
type ScenarioOutcome struct {
	VendorID       VendorID       `json:"vendor_id" yaml:"vendor_id"`
	DeliveryNumber DeliveryNumber `json:"delivery_number" yaml:"delivery_number"`
	ProductType    ProductType    `json:"product_type" yaml:"product_type"`
	ActualVolume   Volume         `json:"actual_delivery_volume" yaml:"actual_delivery_volume"`
}

// Key returns the supply line the outcome realizes
func (o ScenarioOutcome) Key() InventoryKey {
	return InventoryKey{Vendor: o.VendorID, Delivery: o.DeliveryNumber, Product: o.ProductType}
}

// OutcomeSet is every realized volume of one simulated world, identified by its index
type OutcomeSet struct {
	Index    int
	Outcomes []ScenarioOutcome
}

// Volumes indexes the outcomes by supply line
func (s *OutcomeSet) Volumes() map[InventoryKey]Volume {
	if s == nil {
		return map[InventoryKey]Volume{}
	}
	volumes := make(map[InventoryKey]Volume, len(s.Outcomes))
	for _, outcome := range s.Outcomes {
		volumes[outcome.Key()] = outcome.ActualVolume
	}
	return volumes
}
