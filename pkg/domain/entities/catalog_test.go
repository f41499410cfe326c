package entities

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/rollalloc/pkg/domain"
)

func sampleCatalog() *Catalog {
	price := decimal.NewFromInt(10)
	return &Catalog{
		Vendors: []Vendor{{
			ID: "V1",
			Deliveries: []Delivery{
				{Number: 0, ArrivalDay: 0, Supply: []SupplyLine{{Salmon1To2, 100, price}, {Salmon2To3, 50, price}}},
				{Number: 1, ArrivalDay: 3, Supply: []SupplyLine{{Salmon1To2, 80, price}}},
			},
			TransportCosts: RateTable{{Salmon1To2, decimal.NewFromInt(2)}},
		}},
		Customers: []Customer{{
			ID:       "C1",
			Category: CategoryA,
			Orders: []Order{
				{Number: 0, DepartureDay: 0, Demand: []DemandLine{{Salmon1To2, 40, price}}},
				{Number: 1, DepartureDay: 2, Demand: []DemandLine{{Salmon1To2, 30, price}, {Salmon2To3, 20, price}}},
				{Number: 2, DepartureDay: 5, Demand: []DemandLine{{Salmon2To3, 10, price}}},
			},
		}},
		Products: []ProductSpec{{ProductType: Salmon1To2}, {ProductType: Salmon2To3}},
	}
}

func TestCatalog_Narrow(t *testing.T) {
	catalog := sampleCatalog()

	narrowed := catalog.Narrow(1, 2)
	require.Len(t, narrowed.Vendors, 1)
	require.Len(t, narrowed.Vendors[0].Deliveries, 1)
	assert.Equal(t, DeliveryNumber(0), narrowed.Vendors[0].Deliveries[0].Number)
	require.Len(t, narrowed.Customers[0].Orders, 1)
	assert.Equal(t, OrderNumber(1), narrowed.Customers[0].Orders[0].Number)

	// narrowing copies, the source keeps every order
	narrowed.Customers[0].Orders[0].Demand[0].Volume = 1
	assert.Len(t, catalog.Customers[0].Orders, 3)
	assert.Equal(t, Volume(30), catalog.Customers[0].Orders[1].Demand[0].Volume)
}

func TestCatalog_OnlyProduct(t *testing.T) {
	only := sampleCatalog().OnlyProduct(Salmon2To3)

	assert.Len(t, only.Vendors[0].Deliveries, 2)
	assert.Len(t, only.Vendors[0].Deliveries[0].Supply, 1)
	assert.Empty(t, only.Vendors[0].Deliveries[1].Supply)
	assert.Empty(t, only.Customers[0].Orders[0].Demand)
	require.Len(t, only.Products, 1)
	assert.Equal(t, Salmon2To3, only.Products[0].ProductType)
	assert.Equal(t, []ProductType{Salmon2To3}, only.DemandProducts())
}

func TestCatalog_WithSupplyVolumes(t *testing.T) {
	catalog := sampleCatalog()
	doubled := catalog.WithSupplyVolumes(func(_ InventoryKey, line SupplyLine) Volume {
		return line.Volume * 2
	})

	assert.Equal(t, Volume(200), doubled.Vendors[0].Deliveries[0].Supply[0].Volume)
	assert.Equal(t, Volume(100), catalog.Vendors[0].Deliveries[0].Supply[0].Volume)
	assert.Len(t, catalog.SupplyKeys(), 3)
}

func TestCatalog_Lookups(t *testing.T) {
	catalog := sampleCatalog()
	require.NoError(t, catalog.Validate())

	_, err := catalog.Vendor("V2")
	assert.True(t, errors.Is(err, domain.ErrLookup))

	_, _, err = catalog.Order("C1", 9)
	var lookup *domain.LookupError
	require.True(t, errors.As(err, &lookup))
	assert.Equal(t, "order", lookup.Kind)

	_, order, err := catalog.Order("C1", 2)
	require.NoError(t, err)
	assert.Equal(t, Day(5), order.DepartureDay)

	_, err = catalog.Product(Salmon5To6)
	assert.True(t, errors.Is(err, domain.ErrLookup))

	catalog.Customers = append(catalog.Customers, Customer{ID: "C1"})
	assert.EqualError(t, catalog.Validate(), "duplicate customer C1")
}

func TestCatalog_ValidateRejectsDuplicateNumbers(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(c *Catalog)
		expected string
	}{
		{
			name: "delivery number",
			mutate: func(c *Catalog) {
				c.Vendors[0].Deliveries = append(c.Vendors[0].Deliveries, Delivery{Number: 1, ArrivalDay: 4})
			},
			expected: "duplicate delivery number 1 for vendor V1",
		},
		{
			name: "order number",
			mutate: func(c *Catalog) {
				c.Customers[0].Orders = append(c.Customers[0].Orders, Order{Number: 0, DepartureDay: 6})
			},
			expected: "duplicate order number 0 for customer C1",
		},
		{
			name: "same numbers on different owners",
			mutate: func(c *Catalog) {
				c.Vendors = append(c.Vendors, Vendor{ID: "V2", Deliveries: []Delivery{{Number: 0}, {Number: 1}}})
				c.Customers = append(c.Customers, Customer{ID: "C2", Orders: []Order{{Number: 0}}})
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := sampleCatalog()
			tc.mutate(catalog)
			err := catalog.Validate()
			if tc.expected == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.expected)
		})
	}
}
