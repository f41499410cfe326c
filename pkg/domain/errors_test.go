package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/rollalloc/pkg/domain"
)

func TestErrors_UnwrapToSentinels(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			"configuration",
			domain.NewConfigurationError("window_days", "must be at least 1, got %d", 0),
			domain.ErrConfiguration,
			"configuration error: window_days: must be at least 1, got 0",
		},
		{
			"lookup with product",
			&domain.LookupError{Kind: "customer transport rate", ID: "C1", ProductType: "SALMON_1_2"},
			domain.ErrLookup,
			`lookup error: no customer transport rate found for "C1" and product type SALMON_1_2`,
		},
		{
			"lookup without product",
			&domain.LookupError{Kind: "vendor", ID: "V9"},
			domain.ErrLookup,
			`lookup error: no vendor found for "V9"`,
		},
		{
			"infeasible",
			&domain.InfeasibleModelError{Day: 4, Status: "infeasible"},
			domain.ErrInfeasible,
			"infeasible model on day 4 (solver status infeasible)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("solve day: %w", tc.err)
			assert.True(t, errors.Is(wrapped, tc.sentinel))
			assert.Equal(t, tc.message, tc.err.Error())
		})
	}
}

func TestErrors_As(t *testing.T) {
	err := fmt.Errorf("build model: %w", &domain.LookupError{Kind: "product spec", ID: "SALMON_3_4"})

	var lookup *domain.LookupError
	require.True(t, errors.As(err, &lookup))
	assert.Equal(t, "product spec", lookup.Kind)
	assert.False(t, errors.Is(err, domain.ErrInfeasible))
}
