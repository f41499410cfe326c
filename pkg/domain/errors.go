package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below unwrap to one of these so callers can use errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrLookup        = errors.New("lookup error")
	ErrInfeasible    = errors.New("infeasible model")
)

// ConfigurationError reports an invalid setting or an unknown code read from input
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfigurationError builds a ConfigurationError with a formatted reason
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// LookupError reports a referenced id or rate missing from the catalog
type LookupError struct {
	Kind        string
	ID          string
	ProductType string
}

func (e *LookupError) Error() string {
	if e.ProductType == "" {
		return fmt.Sprintf("lookup error: no %s found for %q", e.Kind, e.ID)
	}
	return fmt.Sprintf("lookup error: no %s found for %q and product type %s", e.Kind, e.ID, e.ProductType)
}

func (e *LookupError) Unwrap() error { return ErrLookup }

// InfeasibleModelError reports a day whose solve returned neither an optimal nor a feasible assignment
type InfeasibleModelError struct {
	Day    int
	Status string
}

func (e *InfeasibleModelError) Error() string {
	return fmt.Sprintf("infeasible model on day %d (solver status %s)", e.Day, e.Status)
}

func (e *InfeasibleModelError) Unwrap() error { return ErrInfeasible }
