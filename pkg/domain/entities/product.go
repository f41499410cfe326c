package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/rollalloc/pkg/domain"
)

// Day is a whole day index on the planning calendar
type Day int

// Volume is a count of boxes
type Volume int64

// ProductType is a salmon weight grade
type ProductType int

const (
	Salmon1To2 ProductType = iota
	Salmon2To3
	Salmon3To4
	Salmon4To5
	Salmon5To6
	Salmon6To7
	Salmon7To8
	Salmon8To9
)

// ProductTypes lists every grade in declaration order
var ProductTypes = []ProductType{
	Salmon1To2, Salmon2To3, Salmon3To4, Salmon4To5,
	Salmon5To6, Salmon6To7, Salmon7To8, Salmon8To9,
}

// String method for ProductType enum
func (p ProductType) String() string {
	switch p {
	case Salmon1To2:
		return "SALMON_1_2"
	case Salmon2To3:
		return "SALMON_2_3"
	case Salmon3To4:
		return "SALMON_3_4"
	case Salmon4To5:
		return "SALMON_4_5"
	case Salmon5To6:
		return "SALMON_5_6"
	case Salmon6To7:
		return "SALMON_6_7"
	case Salmon7To8:
		return "SALMON_7_8"
	case Salmon8To9:
		return "SALMON_8_9"
	default:
		return "Unknown"
	}
}

// Code returns the short input code used by the upstream order and delivery sheets
func (p ProductType) Code() string {
	switch p {
	case Salmon1To2:
		return "fisk1til2"
	case Salmon2To3:
		return "fisk2til3"
	case Salmon3To4:
		return "fisk3til4"
	case Salmon4To5:
		return "fisk4til5"
	case Salmon5To6:
		return "fisk5til6"
	case Salmon6To7:
		return "fisk6til7"
	case Salmon7To8:
		return "fisk7til8"
	case Salmon8To9:
		return "fisk8til9"
	default:
		return ""
	}
}

// ParseProductType accepts either the enum name (SALMON_1_2) or the input code (fisk1til2)
func ParseProductType(s string) (ProductType, error) {
	value := strings.TrimSpace(s)
	for _, p := range ProductTypes {
		if strings.EqualFold(value, p.String()) || strings.EqualFold(value, p.Code()) {
			return p, nil
		}
	}
	return 0, domain.NewConfigurationError("product_type", "unknown product type %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (p ProductType) MarshalText() ([]byte, error) {
	if p.Code() == "" {
		return nil, fmt.Errorf("invalid product type %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *ProductType) UnmarshalText(text []byte) error {
	parsed, err := ParseProductType(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ProductSpec carries the per-grade cost parameters
type ProductSpec struct {
	ProductType ProductType
	CustomsCost decimal.Decimal
	ExtraCost   decimal.Decimal
	// AverageDeviationPercent sizes the supply uncertainty of estimated deliveries
	AverageDeviationPercent float64
}

// NewProductSpec creates a validated product spec
func NewProductSpec(
	productType ProductType,
	customsCost, extraCost decimal.Decimal,
	averageDeviationPercent float64,
) (*ProductSpec, error) {
	if productType.Code() == "" {
		return nil, fmt.Errorf("invalid product type %d", int(productType))
	}
	if customsCost.IsNegative() {
		return nil, fmt.Errorf("customs cost cannot be negative, got %s", customsCost)
	}
	if extraCost.IsNegative() {
		return nil, fmt.Errorf("extra cost cannot be negative, got %s", extraCost)
	}
	if averageDeviationPercent < 0 {
		return nil, fmt.Errorf(
			"average deviation percent cannot be negative, got %g",
			averageDeviationPercent,
		)
	}

	return &ProductSpec{
		ProductType:             productType,
		CustomsCost:             customsCost,
		ExtraCost:               extraCost,
		AverageDeviationPercent: averageDeviationPercent,
	}, nil
}

// Rate is one entry of a per-grade transport cost table
type Rate struct {
	ProductType ProductType
	Cost        decimal.Decimal
}

// RateTable is a per-grade transport cost table, cost per box
type RateTable []Rate

// Lookup returns the cost for a grade
func (r RateTable) Lookup(p ProductType) (decimal.Decimal, bool) {
	for _, rate := range r {
		if rate.ProductType == p {
			return rate.Cost, true
		}
	}
	return decimal.Zero, false
}
