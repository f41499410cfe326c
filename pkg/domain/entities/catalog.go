package entities

import (
	"fmt"

	"github.com/vsinha/rollalloc/pkg/domain"
)

// Catalog is the master data of one run: vendors with their deliveries, customers with their orders,
// and the per-grade cost parameters.
type Catalog struct {
	Vendors   []Vendor
	Customers []Customer
	Products  []ProductSpec
}

// InventoryKey identifies one supply line: a grade on a vendor's delivery
type InventoryKey struct {
	Vendor   VendorID
	Delivery DeliveryNumber
	Product  ProductType
}

func (k InventoryKey) String() string {
	return fmt.Sprintf("%s/%d/%s", k.Vendor, k.Delivery, k.Product)
}

// Validate checks identifier uniqueness across the catalog, including delivery numbers per vendor
// and order numbers per customer
func (c *Catalog) Validate() error {
	vendors := make(map[VendorID]bool, len(c.Vendors))
	for _, vendor := range c.Vendors {
		if vendors[vendor.ID] {
			return fmt.Errorf("duplicate vendor %s", vendor.ID)
		}
		vendors[vendor.ID] = true
		deliveries := make(map[DeliveryNumber]bool, len(vendor.Deliveries))
		for _, delivery := range vendor.Deliveries {
			if deliveries[delivery.Number] {
				return fmt.Errorf("duplicate delivery number %d for vendor %s", delivery.Number, vendor.ID)
			}
			deliveries[delivery.Number] = true
		}
	}
	customers := make(map[CustomerID]bool, len(c.Customers))
	for _, customer := range c.Customers {
		if customers[customer.ID] {
			return fmt.Errorf("duplicate customer %s", customer.ID)
		}
		customers[customer.ID] = true
		orders := make(map[OrderNumber]bool, len(customer.Orders))
		for _, order := range customer.Orders {
			if orders[order.Number] {
				return fmt.Errorf("duplicate order number %d for customer %s", order.Number, customer.ID)
			}
			orders[order.Number] = true
		}
	}
	products := make(map[ProductType]bool, len(c.Products))
	for _, spec := range c.Products {
		if products[spec.ProductType] {
			return fmt.Errorf("duplicate product spec %s", spec.ProductType)
		}
		products[spec.ProductType] = true
	}
	return nil
}

// Vendor looks up a vendor by id
func (c *Catalog) Vendor(id VendorID) (*Vendor, error) {
	for i := range c.Vendors {
		if c.Vendors[i].ID == id {
			return &c.Vendors[i], nil
		}
	}
	return nil, &domain.LookupError{Kind: "vendor", ID: string(id)}
}

// Customer looks up a customer by id
func (c *Catalog) Customer(id CustomerID) (*Customer, error) {
	for i := range c.Customers {
		if c.Customers[i].ID == id {
			return &c.Customers[i], nil
		}
	}
	return nil, &domain.LookupError{Kind: "customer", ID: string(id)}
}

// Order looks up a customer's order
func (c *Catalog) Order(customerID CustomerID, number OrderNumber) (*Customer, *Order, error) {
	customer, err := c.Customer(customerID)
	if err != nil {
		return nil, nil, err
	}
	order, ok := customer.Order(number)
	if !ok {
		return nil, nil, &domain.LookupError{
			Kind: "order",
			ID:   fmt.Sprintf("%s/%d", customerID, number),
		}
	}
	return customer, order, nil
}

// Product looks up the cost parameters of a grade
func (c *Catalog) Product(p ProductType) (*ProductSpec, error) {
	for i := range c.Products {
		if c.Products[i].ProductType == p {
			return &c.Products[i], nil
		}
	}
	return nil, &domain.LookupError{Kind: "product spec", ID: p.String()}
}

// SupplyKeys lists every supply line in catalog order
func (c *Catalog) SupplyKeys() []InventoryKey {
	var keys []InventoryKey
	for _, vendor := range c.Vendors {
		for _, delivery := range vendor.Deliveries {
			for _, line := range delivery.Supply {
				keys = append(keys, InventoryKey{vendor.ID, delivery.Number, line.ProductType})
			}
		}
	}
	return keys
}

// Narrow returns a copy restricted to deliveries arriving on or before end and orders departing within
// [start, end]. Vendors and customers are kept even when nothing of theirs falls in the window.
func (c *Catalog) Narrow(start, end Day) *Catalog {
	return c.filter(
		func(d *Delivery) bool { return d.ArrivalDay <= end },
		func(o *Order) bool { return o.DepartureDay >= start && o.DepartureDay <= end },
		func(ProductType) bool { return true },
	)
}

// OnlyProduct returns a copy holding only the supply and demand lines of one grade
func (c *Catalog) OnlyProduct(p ProductType) *Catalog {
	return c.filter(
		func(*Delivery) bool { return true },
		func(*Order) bool { return true },
		func(pt ProductType) bool { return pt == p },
	)
}

// WithSupplyVolumes returns a copy whose supply volumes are replaced by volume(key, line)
func (c *Catalog) WithSupplyVolumes(volume func(InventoryKey, SupplyLine) Volume) *Catalog {
	out := c.Clone()
	for vi := range out.Vendors {
		vendor := &out.Vendors[vi]
		for di := range vendor.Deliveries {
			delivery := &vendor.Deliveries[di]
			for li := range delivery.Supply {
				line := &delivery.Supply[li]
				line.Volume = volume(InventoryKey{vendor.ID, delivery.Number, line.ProductType}, *line)
			}
		}
	}
	return out
}

// Clone returns a deep copy
func (c *Catalog) Clone() *Catalog {
	return c.filter(
		func(*Delivery) bool { return true },
		func(*Order) bool { return true },
		func(ProductType) bool { return true },
	)
}

// LastDepartureDay returns the latest order departure day, 0 when there are no orders
func (c *Catalog) LastDepartureDay() Day {
	var last Day
	for _, customer := range c.Customers {
		for _, order := range customer.Orders {
			if order.DepartureDay > last {
				last = order.DepartureDay
			}
		}
	}
	return last
}

// DemandProducts lists the grades that appear on at least one order, in declaration order
func (c *Catalog) DemandProducts() []ProductType {
	present := make(map[ProductType]bool)
	for _, customer := range c.Customers {
		for _, order := range customer.Orders {
			for _, line := range order.Demand {
				present[line.ProductType] = true
			}
		}
	}
	var out []ProductType
	for _, p := range ProductTypes {
		if present[p] {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) filter(
	keepDelivery func(*Delivery) bool,
	keepOrder func(*Order) bool,
	keepProduct func(ProductType) bool,
) *Catalog {
	out := &Catalog{
		Vendors:   make([]Vendor, 0, len(c.Vendors)),
		Customers: make([]Customer, 0, len(c.Customers)),
		Products:  make([]ProductSpec, 0, len(c.Products)),
	}

	for _, vendor := range c.Vendors {
		copied := Vendor{ID: vendor.ID, TransportCosts: append(RateTable(nil), vendor.TransportCosts...)}
		for i := range vendor.Deliveries {
			delivery := &vendor.Deliveries[i]
			if !keepDelivery(delivery) {
				continue
			}
			d := Delivery{Number: delivery.Number, ArrivalDay: delivery.ArrivalDay}
			for _, line := range delivery.Supply {
				if keepProduct(line.ProductType) {
					d.Supply = append(d.Supply, line)
				}
			}
			copied.Deliveries = append(copied.Deliveries, d)
		}
		out.Vendors = append(out.Vendors, copied)
	}

	for _, customer := range c.Customers {
		copied := customer
		copied.TransportCosts = append(RateTable(nil), customer.TransportCosts...)
		copied.Orders = nil
		for i := range customer.Orders {
			order := &customer.Orders[i]
			if !keepOrder(order) {
				continue
			}
			o := Order{Number: order.Number, DepartureDay: order.DepartureDay}
			for _, line := range order.Demand {
				if keepProduct(line.ProductType) {
					o.Demand = append(o.Demand, line)
				}
			}
			copied.Orders = append(copied.Orders, o)
		}
		out.Customers = append(out.Customers, copied)
	}

	for _, spec := range c.Products {
		if keepProduct(spec.ProductType) {
			out.Products = append(out.Products, spec)
		}
	}
	return out
}
