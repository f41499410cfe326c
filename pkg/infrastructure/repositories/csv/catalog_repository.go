// Package csv loads the master catalog from a directory of CSV files.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vsinha/rollalloc/pkg/domain"
	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/repositories"
)

// File names inside a catalog directory
const (
	ProductsFile          = "products.csv"
	DeliveriesFile        = "deliveries.csv"
	VendorTransportFile   = "vendor_transport.csv"
	CustomersFile         = "customers.csv"
	OrdersFile            = "orders.csv"
	CustomerTransportFile = "customer_transport.csv"
)

var (
	productsHeader   = []string{"product_type", "customs_cost", "extra_cost", "average_deviation_percent"}
	deliveriesHeader = []string{"vendor_id", "delivery_number", "arrival_day", "product_type", "volume", "unit_cost"}
	vendorRateHeader = []string{"vendor_id", "product_type", "cost"}
	customersHeader  = []string{"customer_id", "out_of_country", "category"}
	ordersHeader     = []string{"customer_id", "order_number", "volume", "product_type", "departure_day", "price"}
	customerRateHdr  = []string{"customer_id", "product_type", "cost"}
)

// CatalogRepository reads a catalog directory
type CatalogRepository struct {
	dir      string
	adjust   float64
	validate *validator.Validate
}

// Verify interface compliance
var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository creates a loader for a catalog directory
func NewCatalogRepository(dir string) *CatalogRepository {
	return &CatalogRepository{dir: dir, validate: validator.New()}
}

// WithEstimateAdjustment scales every estimated delivery volume by (1 + percent/100)
func (r *CatalogRepository) WithEstimateAdjustment(percent float64) *CatalogRepository {
	r.adjust = percent
	return r
}

// LoadCatalog reads and assembles the catalog
func (r *CatalogRepository) LoadCatalog(ctx context.Context) (*entities.Catalog, error) {
	catalog := &entities.Catalog{}

	if err := r.loadProducts(catalog); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.loadVendors(catalog); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.loadCustomers(catalog); err != nil {
		return nil, err
	}

	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog in %s: %w", r.dir, err)
	}
	return catalog, nil
}

func (r *CatalogRepository) loadProducts(catalog *entities.Catalog) error {
	return r.each(ProductsFile, productsHeader, func(record []string) error {
		row, err := parseProductRow(record)
		if err != nil {
			return err
		}
		if err := r.validate.Struct(row); err != nil {
			return err
		}
		spec, err := entities.NewProductSpec(row.ProductType, row.CustomsCost, row.ExtraCost, row.AverageDeviationPercent)
		if err != nil {
			return err
		}
		catalog.Products = append(catalog.Products, *spec)
		return nil
	})
}

func (r *CatalogRepository) loadVendors(catalog *entities.Catalog) error {
	vendorIndex := make(map[entities.VendorID]int)
	vendor := func(id entities.VendorID) *entities.Vendor {
		i, ok := vendorIndex[id]
		if !ok {
			i = len(catalog.Vendors)
			vendorIndex[id] = i
			catalog.Vendors = append(catalog.Vendors, entities.Vendor{ID: id})
		}
		return &catalog.Vendors[i]
	}

	err := r.each(DeliveriesFile, deliveriesHeader, func(record []string) error {
		row, err := parseDeliveryRow(record)
		if err != nil {
			return err
		}
		if err := r.validate.Struct(row); err != nil {
			return err
		}

		v := vendor(entities.VendorID(row.VendorID))
		number := entities.DeliveryNumber(row.DeliveryNumber)
		delivery, ok := v.Delivery(number)
		if !ok {
			v.Deliveries = append(v.Deliveries, entities.Delivery{Number: number, ArrivalDay: entities.Day(row.ArrivalDay)})
			delivery = &v.Deliveries[len(v.Deliveries)-1]
		}
		if delivery.ArrivalDay != entities.Day(row.ArrivalDay) {
			return fmt.Errorf(
				"delivery %s/%d arrives on day %d, row says day %d",
				v.ID, number, delivery.ArrivalDay, row.ArrivalDay,
			)
		}
		if _, dup := delivery.Line(row.ProductType); dup {
			return fmt.Errorf("delivery %s/%d lists %s twice", v.ID, number, row.ProductType)
		}
		delivery.Supply = append(delivery.Supply, entities.SupplyLine{
			ProductType: row.ProductType,
			Volume:      r.adjusted(row.Volume),
			UnitCost:    row.UnitCost,
		})
		return nil
	})
	if err != nil {
		return err
	}

	return r.each(VendorTransportFile, vendorRateHeader, func(record []string) error {
		row, err := parseRateRow(record)
		if err != nil {
			return err
		}
		if err := r.validate.Struct(row); err != nil {
			return err
		}
		v := vendor(entities.VendorID(row.OwnerID))
		v.TransportCosts = append(v.TransportCosts, entities.Rate{ProductType: row.ProductType, Cost: row.Cost})
		return nil
	})
}

func (r *CatalogRepository) loadCustomers(catalog *entities.Catalog) error {
	customerIndex := make(map[entities.CustomerID]int)
	customer := func(id string) (*entities.Customer, error) {
		i, ok := customerIndex[entities.CustomerID(id)]
		if !ok {
			return nil, &domain.LookupError{Kind: "customer", ID: id}
		}
		return &catalog.Customers[i], nil
	}

	err := r.each(CustomersFile, customersHeader, func(record []string) error {
		row, err := parseCustomerRow(record)
		if err != nil {
			return err
		}
		if err := r.validate.Struct(row); err != nil {
			return err
		}
		id := entities.CustomerID(row.CustomerID)
		if _, dup := customerIndex[id]; dup {
			return fmt.Errorf("duplicate customer %s", id)
		}
		customerIndex[id] = len(catalog.Customers)
		catalog.Customers = append(catalog.Customers, entities.Customer{
			ID:           id,
			Category:     row.Category,
			OutOfCountry: row.OutOfCountry,
		})
		return nil
	})
	if err != nil {
		return err
	}

	err = r.each(OrdersFile, ordersHeader, func(record []string) error {
		row, err := parseOrderRow(record)
		if err != nil {
			return err
		}
		if err := r.validate.Struct(row); err != nil {
			return err
		}
		c, err := customer(row.CustomerID)
		if err != nil {
			return err
		}

		number := entities.OrderNumber(row.OrderNumber)
		order, ok := c.Order(number)
		if !ok {
			c.Orders = append(c.Orders, entities.Order{Number: number, DepartureDay: entities.Day(row.DepartureDay)})
			order = &c.Orders[len(c.Orders)-1]
		}
		if order.DepartureDay != entities.Day(row.DepartureDay) {
			return fmt.Errorf(
				"order %s/%d departs on day %d, row says day %d",
				c.ID, number, order.DepartureDay, row.DepartureDay,
			)
		}
		if _, dup := order.Line(row.ProductType); dup {
			return fmt.Errorf("order %s/%d lists %s twice", c.ID, number, row.ProductType)
		}
		order.Demand = append(order.Demand, entities.DemandLine{
			ProductType: row.ProductType,
			Volume:      entities.Volume(row.Volume),
			UnitPrice:   row.Price,
		})
		return nil
	})
	if err != nil {
		return err
	}

	return r.each(CustomerTransportFile, customerRateHdr, func(record []string) error {
		row, err := parseRateRow(record)
		if err != nil {
			return err
		}
		if err := r.validate.Struct(row); err != nil {
			return err
		}
		c, err := customer(row.OwnerID)
		if err != nil {
			return err
		}
		c.TransportCosts = append(c.TransportCosts, entities.Rate{ProductType: row.ProductType, Cost: row.Cost})
		return nil
	})
}

func (r *CatalogRepository) adjusted(volume int) entities.Volume {
	if r.adjust == 0 {
		return entities.Volume(volume)
	}
	return entities.Volume(math.Max(0, math.Round(float64(volume)*(1+r.adjust/100))))
}

// each reads one file, checks its header and hands every data row to fn. Row numbers in errors count
// the header as row 1.
func (r *CatalogRepository) each(name string, header []string, fn func([]string) error) error {
	path := filepath.Join(r.dir, name)
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%s is empty, expected header %v", name, header)
	}
	if !validateHeader(records[0], header) {
		return fmt.Errorf("%s header mismatch. Expected: %v, Got: %v", name, header, records[0])
	}

	for i, record := range records[1:] {
		if len(record) != len(header) {
			return fmt.Errorf("%s row %d: expected %d columns, got %d", name, i+2, len(header), len(record))
		}
		if err := fn(record); err != nil {
			return fmt.Errorf("%s row %d: %w", name, i+2, err)
		}
	}
	return nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, column := range expected {
		if strings.TrimSpace(strings.TrimPrefix(actual[i], "\ufeff")) != column {
			return false
		}
	}
	return true
}
