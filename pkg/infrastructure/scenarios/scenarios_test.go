package scenarios

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/rollalloc/pkg/domain"
	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/services/scenariotree"
	testhelpers "github.com/vsinha/rollalloc/pkg/infrastructure/testing"
)

func TestFileStore_SaveAndList(t *testing.T) {
	for _, format := range []Format{JSON, YAML} {
		t.Run(format.String(), func(t *testing.T) {
			store := NewFileStore(t.TempDir(), format)
			ctx := context.Background()

			set := &entities.OutcomeSet{Index: 3, Outcomes: []entities.ScenarioOutcome{
				{VendorID: "V1", DeliveryNumber: 0, ProductType: entities.Salmon2To3, ActualVolume: 41},
			}}
			require.NoError(t, store.SaveOutcomeSet(ctx, set))
			require.NoError(t, store.SaveOutcomeSet(ctx, &entities.OutcomeSet{Index: 1}))

			indices, err := store.ListOutcomeSets(ctx)
			require.NoError(t, err)
			assert.Equal(t, []int{1, 3}, indices)

			loaded, err := store.GetOutcomeSet(ctx, 3)
			require.NoError(t, err)
			assert.Equal(t, set.Outcomes, loaded.Outcomes)
			assert.Equal(t, 3, loaded.Index)
		})
	}
}

func TestFileStore_ReadsHandWrittenFiles(t *testing.T) {
	dir := t.TempDir()
	content := `{"results": [
		{"vendor_id": "vendor_1", "delivery_number": 0, "actual_delivery_volume": 850, "product_type": "SALMON_1_2"},
		{"vendor_id": "vendor_2", "delivery_number": 1, "actual_delivery_volume": 3, "product_type": "SALMON_2_3"}
	]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenario0.json"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenario_x.json"), []byte("{}"), 0o644))

	store := NewFileStore(dir, JSON)
	indices, err := store.ListOutcomeSets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0}, indices)

	set, err := store.GetOutcomeSet(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, set.Outcomes, 2)
	assert.Equal(t, entities.Volume(850), set.Volumes()[entities.InventoryKey{Vendor: "vendor_1", Delivery: 0, Product: entities.Salmon1To2}])
	assert.Equal(t, entities.Salmon2To3, set.Outcomes[1].ProductType)
}

func TestFileStore_Errors(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, YAML)

	_, err := store.GetOutcomeSet(context.Background(), 7)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenario2.yaml"),
		[]byte("results:\n  - vendor_id: V1\n    product_type: SALMON_0_1\n"), 0o644))
	_, err = store.GetOutcomeSet(context.Background(), 2)
	assert.Error(t, err)

	assert.Error(t, store.SaveOutcomeSet(context.Background(), &entities.OutcomeSet{Index: -1}))
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("yml")
	require.NoError(t, err)
	assert.Equal(t, YAML, format)

	_, err = ParseFormat("xml")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestGenerator_Reproducible(t *testing.T) {
	repo, _ := testhelpers.BuildSalmonTestData()
	catalog, err := repo.LoadCatalog(context.Background())
	require.NoError(t, err)

	first, err := NewGenerator(42, scenariotree.SigmaSqrt).Generate(catalog, 0, 3)
	require.NoError(t, err)
	second, err := NewGenerator(42, scenariotree.SigmaSqrt).Generate(catalog, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first, 3)
	for i, set := range first {
		assert.Equal(t, i, set.Index)
		assert.Len(t, set.Outcomes, len(catalog.SupplyKeys()))
		for _, outcome := range set.Outcomes {
			assert.GreaterOrEqual(t, int(outcome.ActualVolume), 0)
		}
	}
}

func TestGenerator_ClampsAtZero(t *testing.T) {
	catalog := testhelpers.NewCatalogBuilder().
		Product(entities.Salmon1To2, 0, 0, 100).
		Vendor("V1", 0).
		Supply("V1", 0, 0, entities.Salmon1To2, 1, 1).
		Build()

	sets, err := NewGenerator(7, scenariotree.SigmaHalvedVariance).Generate(catalog, 10, 200)
	require.NoError(t, err)
	assert.Equal(t, 10, sets[0].Index)
	for _, set := range sets {
		assert.GreaterOrEqual(t, int(set.Outcomes[0].ActualVolume), 0)
	}
}

func TestGenerator_NoDeviationKeepsEstimate(t *testing.T) {
	catalog := testhelpers.NewCatalogBuilder().
		Product(entities.Salmon1To2, 0, 0, 0).
		Vendor("V1", 0).
		Supply("V1", 0, 0, entities.Salmon1To2, 864, 1).
		Build()

	sets, err := NewGenerator(1, scenariotree.SigmaSqrt).Generate(catalog, 0, 2)
	require.NoError(t, err)
	for _, set := range sets {
		assert.Equal(t, entities.Volume(864), set.Outcomes[0].ActualVolume)
	}
}

func TestGenerator_MissingProductSpec(t *testing.T) {
	catalog := testhelpers.NewCatalogBuilder().
		Vendor("V1", 0).
		Supply("V1", 0, 0, entities.Salmon3To4, 10, 1).
		Build()

	_, err := NewGenerator(1, scenariotree.SigmaSqrt).Generate(catalog, 0, 1)
	assert.True(t, errors.Is(err, domain.ErrLookup))

	_, err = NewGenerator(1, scenariotree.SigmaSqrt).Generate(catalog, 0, 0)
	assert.Error(t, err)
}
