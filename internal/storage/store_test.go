package storage

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenditure/internal/config"
	"expenditure/pkg/contracts/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), config.DatabaseConfig{
		Enabled: true,
		Driver:  "sqlite3",
		DSN:     filepath.Join(t.TempDir(), "expenditure.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func educationTable(values ...float64) *domain.CleanedTable {
	table := &domain.CleanedTable{Category: "Education"}
	states := []string{"Bihar", "Goa", "Kerala"}
	for i, v := range values {
		table.Records = append(table.Records, domain.CleanRecord{
			Category: "Education",
			State:    states[i%len(states)],
			Year:     "2019-20",
			Value:    v,
			Imputed:  i == 0,
		})
	}
	return table
}

func TestReplaceCategory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceCategory(ctx, educationTable(10, 4.5, math.NaN())))

	records, err := store.Records(ctx, "Education")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Bihar", records[0].State)
	assert.True(t, records[0].Imputed)
	assert.Equal(t, 10.0, records[0].Value.Float64)
	assert.Equal(t, 4.5, records[1].Value.Float64)
	assert.False(t, records[2].Value.Valid)

	// A second load replaces, not appends
	require.NoError(t, store.ReplaceCategory(ctx, educationTable(7)))
	records, err = store.Records(ctx, "Education")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 7.0, records[0].Value.Float64)
}

func TestCategories(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	health := educationTable(1, 2)
	health.Category = "Health"
	require.NoError(t, store.ReplaceCategory(ctx, health))
	require.NoError(t, store.ReplaceCategory(ctx, educationTable(1, 2, 3)))

	categories, err := store.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	assert.Equal(t, CategorySummary{Category: "Education", Records: 3, States: 3, Years: 1, Imputed: 1}, categories[0])
	assert.Equal(t, "Health", categories[1].Category)
	assert.Equal(t, 2, categories[1].Records)
}

func TestRecordsUnknownCategory(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Records(context.Background(), "Defence")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, store.Ping(context.Background()))
}

func TestEmptyCategoryIsStillLoaded(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceCategory(ctx, &domain.CleanedTable{Category: "Health"}))

	categories, err := store.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []CategorySummary{{Category: "Health"}}, categories)

	records, err := store.Records(ctx, "Health")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	// Reloading with rows and then empty again keeps a single entry
	health := educationTable(3, 4)
	health.Category = "Health"
	require.NoError(t, store.ReplaceCategory(ctx, health))
	require.NoError(t, store.ReplaceCategory(ctx, &domain.CleanedTable{Category: "Health"}))

	categories, err = store.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, 0, categories[0].Records)
}

func TestMigrateBackfillsCategories(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceCategory(ctx, educationTable(1, 2)))
	_, err := store.db.ExecContext(ctx, `DELETE FROM categories`)
	require.NoError(t, err)

	require.NoError(t, store.Migrate(ctx))

	records, err := store.Records(ctx, "Education")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
