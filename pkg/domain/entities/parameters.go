package entities

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/rollalloc/pkg/domain"
)

// ModelParameters holds the constants shared by the model builders and the profit accountant
type ModelParameters struct {
	// BigM disables or enables gated constraints; it must dominate every volume in the catalog
	BigM float64
	// FullLoadThreshold is the smallest shipment, in boxes, that travels direct instead of cross-docked
	FullLoadThreshold Volume
	// TerminalFee is charged per box on cross-docked shipments on top of the vendor transport rate
	TerminalFee decimal.Decimal
}

// DefaultModelParameters returns the production constants
func DefaultModelParameters() ModelParameters {
	return ModelParameters{
		BigM:              1_000_000,
		FullLoadThreshold: 864,
		TerminalFee:       decimal.NewFromInt(10),
	}
}

// Validate rejects parameters the constraint system cannot work with
func (p ModelParameters) Validate() error {
	if p.BigM <= 0 {
		return domain.NewConfigurationError("big_m", "must be positive, got %g", p.BigM)
	}
	if p.FullLoadThreshold < 1 {
		return domain.NewConfigurationError(
			"full_load_threshold", "must be at least 1, got %d", p.FullLoadThreshold,
		)
	}
	if float64(p.FullLoadThreshold) > p.BigM {
		return domain.NewConfigurationError(
			"full_load_threshold", "%d exceeds big_m %g", p.FullLoadThreshold, p.BigM,
		)
	}
	if p.TerminalFee.IsNegative() {
		return domain.NewConfigurationError("terminal_fee", "cannot be negative, got %s", p.TerminalFee)
	}
	return nil
}
