package csv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/rollalloc/pkg/domain/entities"
)

type productRow struct {
	ProductType             entities.ProductType
	CustomsCost             decimal.Decimal
	ExtraCost               decimal.Decimal
	AverageDeviationPercent float64 `validate:"gte=0,lte=100"`
}

type deliveryRow struct {
	VendorID       string `validate:"required"`
	DeliveryNumber int    `validate:"gte=0"`
	ArrivalDay     int    `validate:"gte=0"`
	ProductType    entities.ProductType
	Volume         int `validate:"gte=0"`
	UnitCost       decimal.Decimal
}

type rateRow struct {
	OwnerID     string `validate:"required"`
	ProductType entities.ProductType
	Cost        decimal.Decimal
}

type customerRow struct {
	CustomerID   string `validate:"required"`
	OutOfCountry bool
	Category     entities.CustomerCategory
}

type orderRow struct {
	CustomerID   string `validate:"required"`
	OrderNumber  int    `validate:"gte=0"`
	Volume       int    `validate:"gte=0"`
	ProductType  entities.ProductType
	DepartureDay int `validate:"gte=0"`
	Price        decimal.Decimal
}

func parseProductRow(record []string) (productRow, error) {
	var row productRow
	var err error
	if row.ProductType, err = entities.ParseProductType(record[0]); err != nil {
		return row, err
	}
	if row.CustomsCost, err = parseMoney("customs_cost", record[1]); err != nil {
		return row, err
	}
	if row.ExtraCost, err = parseMoney("extra_cost", record[2]); err != nil {
		return row, err
	}
	if row.AverageDeviationPercent, err = strconv.ParseFloat(strings.TrimSpace(record[3]), 64); err != nil {
		return row, fmt.Errorf("invalid average_deviation_percent: %w", err)
	}
	return row, nil
}

func parseDeliveryRow(record []string) (deliveryRow, error) {
	row := deliveryRow{VendorID: strings.TrimSpace(record[0])}
	var err error
	if row.DeliveryNumber, err = parseInt("delivery_number", record[1]); err != nil {
		return row, err
	}
	if row.ArrivalDay, err = parseInt("arrival_day", record[2]); err != nil {
		return row, err
	}
	if row.ProductType, err = entities.ParseProductType(record[3]); err != nil {
		return row, err
	}
	if row.Volume, err = parseInt("volume", record[4]); err != nil {
		return row, err
	}
	if row.UnitCost, err = parseMoney("unit_cost", record[5]); err != nil {
		return row, err
	}
	return row, nil
}

func parseRateRow(record []string) (rateRow, error) {
	row := rateRow{OwnerID: strings.TrimSpace(record[0])}
	var err error
	if row.ProductType, err = entities.ParseProductType(record[1]); err != nil {
		return row, err
	}
	if row.Cost, err = parseMoney("cost", record[2]); err != nil {
		return row, err
	}
	return row, nil
}

func parseCustomerRow(record []string) (customerRow, error) {
	row := customerRow{CustomerID: strings.TrimSpace(record[0])}
	var err error
	if row.OutOfCountry, err = parseFlag("out_of_country", record[1]); err != nil {
		return row, err
	}
	if row.Category, err = entities.ParseCustomerCategory(record[2]); err != nil {
		return row, err
	}
	return row, nil
}

func parseOrderRow(record []string) (orderRow, error) {
	row := orderRow{CustomerID: strings.TrimSpace(record[0])}
	var err error
	if row.OrderNumber, err = parseInt("order_number", record[1]); err != nil {
		return row, err
	}
	if row.Volume, err = parseInt("volume", record[2]); err != nil {
		return row, err
	}
	if row.ProductType, err = entities.ParseProductType(record[3]); err != nil {
		return row, err
	}
	if row.DepartureDay, err = parseInt("departure_day", record[4]); err != nil {
		return row, err
	}
	if row.Price, err = parseMoney("price", record[5]); err != nil {
		return row, err
	}
	return row, nil
}

func parseInt(field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	return n, nil
}

func parseMoney(field, value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", field, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s cannot be negative, got %s", field, amount)
	}
	return amount, nil
}

// parseFlag accepts 1/0 as the upstream sheets write them, and true/false
func parseFlag(field, value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s: %q", field, value)
	}
}
