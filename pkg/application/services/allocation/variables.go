package allocation

import (
	"fmt"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/infrastructure/solver"
)

// FlowKey indexes x: boxes of a grade moving from a vendor delivery to a customer order
type FlowKey struct {
	Scenario int
	Vendor   entities.VendorID
	Delivery entities.DeliveryNumber
	Customer entities.CustomerID
	Order    entities.OrderNumber
	Product  entities.ProductType
}

// DemandKey indexes y and t: one demand line of a customer order
type DemandKey struct {
	Scenario int
	Customer entities.CustomerID
	Order    entities.OrderNumber
	Product  entities.ProductType
}

// ShipmentKey indexes z, d and o_term: everything moving from one delivery to one order
type ShipmentKey struct {
	Scenario int
	Vendor   entities.VendorID
	Delivery entities.DeliveryNumber
	Customer entities.CustomerID
	Order    entities.OrderNumber
}

// OrderRef identifies an order across customers
type OrderRef struct {
	Customer entities.CustomerID
	Order    entities.OrderNumber
}

// Variables is the bundle of the six variable families of one solve. The ordered key slices hold the
// scenario 0 keys in catalog order; use In to move a key to another scenario.
type Variables struct {
	Scenarios int

	X map[FlowKey]solver.Var
	Y map[DemandKey]solver.Var
	Z map[ShipmentKey]solver.Var
	D map[ShipmentKey]solver.Var
	O map[ShipmentKey]solver.Var
	T map[DemandKey]solver.Var

	Flows     []FlowKey
	Demands   []DemandKey
	Shipments []ShipmentKey
	Gates     []DemandKey

	// shipmentFlows lists the flow keys (scenario 0) of each shipment
	shipmentFlows map[ShipmentKey][]FlowKey
	// demandFlows lists the flow keys (scenario 0) feeding each demand line
	demandFlows map[DemandKey][]FlowKey
	departures  map[OrderRef]entities.Day
	arrivals    map[ShipmentKey]entities.Day
}

// In returns the key for scenario s
func (k FlowKey) In(s int) FlowKey { k.Scenario = s; return k }

// In returns the key for scenario s
func (k DemandKey) In(s int) DemandKey { k.Scenario = s; return k }

// In returns the key for scenario s
func (k ShipmentKey) In(s int) ShipmentKey { k.Scenario = s; return k }

// Shipment returns the shipment a flow belongs to
func (k FlowKey) Shipment() ShipmentKey {
	return ShipmentKey{k.Scenario, k.Vendor, k.Delivery, k.Customer, k.Order}
}

// Demand returns the demand line a flow feeds
func (k FlowKey) Demand() DemandKey {
	return DemandKey{k.Scenario, k.Customer, k.Order, k.Product}
}

// OrderRef returns the order a key belongs to
func (k FlowKey) OrderRef() OrderRef { return OrderRef{k.Customer, k.Order} }

// OrderRef returns the order a key belongs to
func (k DemandKey) OrderRef() OrderRef { return OrderRef{k.Customer, k.Order} }

// OrderRef returns the order a key belongs to
func (k ShipmentKey) OrderRef() OrderRef { return OrderRef{k.Customer, k.Order} }

// DecisionDay is the departure day of the order a key belongs to
func (v *Variables) DecisionDay(ref OrderRef) entities.Day {
	return v.departures[ref]
}

// ArrivalDay is the arrival day of the delivery a shipment draws from
func (v *Variables) ArrivalDay(k ShipmentKey) entities.Day {
	return v.arrivals[k.In(0)]
}

// ShipmentFlows returns the scenario 0 flows of a shipment
func (v *Variables) ShipmentFlows(k ShipmentKey) []FlowKey {
	return v.shipmentFlows[k.In(0)]
}

// DemandFlows returns the scenario 0 flows feeding a demand line
func (v *Variables) DemandFlows(k DemandKey) []FlowKey {
	return v.demandFlows[k.In(0)]
}

// Count returns the number of declared variables
func (v *Variables) Count() int {
	return len(v.X) + len(v.Y) + len(v.Z) + len(v.D) + len(v.O) + len(v.T)
}

// DeclareVariables creates the six families for every scenario. x exists only where the delivery
// carries the grade and the order demands it; z, d and o_term only for shipments with at least one x;
// t only on B-category demand lines.
func DeclareVariables(m *solver.Model, catalog *entities.Catalog, scenarios int) *Variables {
	v := &Variables{
		Scenarios:     scenarios,
		X:             make(map[FlowKey]solver.Var),
		Y:             make(map[DemandKey]solver.Var),
		Z:             make(map[ShipmentKey]solver.Var),
		D:             make(map[ShipmentKey]solver.Var),
		O:             make(map[ShipmentKey]solver.Var),
		T:             make(map[DemandKey]solver.Var),
		shipmentFlows: make(map[ShipmentKey][]FlowKey),
		demandFlows:   make(map[DemandKey][]FlowKey),
		departures:    make(map[OrderRef]entities.Day),
		arrivals:      make(map[ShipmentKey]entities.Day),
	}

	for _, customer := range catalog.Customers {
		for _, order := range customer.Orders {
			v.departures[OrderRef{customer.ID, order.Number}] = order.DepartureDay
			for _, line := range order.Demand {
				key := DemandKey{0, customer.ID, order.Number, line.ProductType}
				v.Demands = append(v.Demands, key)
				if customer.Category == entities.CategoryB {
					v.Gates = append(v.Gates, key)
				}
			}
		}
	}

	for _, vendor := range catalog.Vendors {
		for _, delivery := range vendor.Deliveries {
			for _, customer := range catalog.Customers {
				for _, order := range customer.Orders {
					shipment := ShipmentKey{0, vendor.ID, delivery.Number, customer.ID, order.Number}
					for _, line := range order.Demand {
						if _, ok := delivery.Line(line.ProductType); !ok {
							continue
						}
						flow := FlowKey{0, vendor.ID, delivery.Number, customer.ID, order.Number, line.ProductType}
						v.Flows = append(v.Flows, flow)
						v.shipmentFlows[shipment] = append(v.shipmentFlows[shipment], flow)
						v.demandFlows[flow.Demand()] = append(v.demandFlows[flow.Demand()], flow)
					}
					if len(v.shipmentFlows[shipment]) > 0 {
						v.Shipments = append(v.Shipments, shipment)
						v.arrivals[shipment] = delivery.ArrivalDay
					}
				}
			}
		}
	}

	for s := 0; s < scenarios; s++ {
		for _, k := range v.Flows {
			v.X[k.In(s)] = m.NewInteger(fmt.Sprintf(
				"x_s%d_%s_%d_%s_%d_%s", s, k.Vendor, k.Delivery, k.Customer, k.Order, k.Product,
			))
		}
		for _, k := range v.Demands {
			v.Y[k.In(s)] = m.NewInteger(fmt.Sprintf("y_s%d_%s_%d_%s", s, k.Customer, k.Order, k.Product))
		}
		for _, k := range v.Shipments {
			suffix := fmt.Sprintf("s%d_%s_%d_%s_%d", s, k.Vendor, k.Delivery, k.Customer, k.Order)
			v.Z[k.In(s)] = m.NewBinary("z_" + suffix)
			v.D[k.In(s)] = m.NewBinary("d_" + suffix)
			v.O[k.In(s)] = m.NewContinuous("o_" + suffix)
		}
		for _, k := range v.Gates {
			v.T[k.In(s)] = m.NewBinary(fmt.Sprintf("t_s%d_%s_%d_%s", s, k.Customer, k.Order, k.Product))
		}
	}
	return v
}
