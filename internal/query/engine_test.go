package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subgrid/internal/storage/memory"
	"subgrid/pkg/model"
)

func seedStore(t *testing.T, n int) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	for i := 0; i < n; i++ {
		status := "active"
		if i%5 == 0 {
			status = "terminated"
		}
		sub := &model.Subscription{
			SubscriptionID: uuid.New(),
			CustomerID:     uuid.New(),
			Description:    fmt.Sprintf("circuit %02d", i),
			Status:         status,
			InSync:         i%2 == 0,
			Product: model.Product{
				ProductID: uuid.New(),
				Name:      fmt.Sprintf("product-%d", i%3),
				Tag:       "lp",
			},
			SearchText: fmt.Sprintf("circuit %02d %s", i, status),
		}
		require.NoError(t, store.Upsert(context.Background(), sub))
	}
	return store
}

func TestEngineListWithRange(t *testing.T) {
	engine := NewEngine(seedStore(t, 25), DefaultFilterOptions())

	page, cr, err := engine.List(context.Background(), ListParams{
		Range: []string{"0", "10"},
	})
	require.NoError(t, err)
	require.NotNil(t, cr)

	assert.Len(t, page, 10)
	assert.Equal(t, "subscriptions 0-10/25", cr.String())
}

func TestEngineListRangeTotalReflectsFilters(t *testing.T) {
	engine := NewEngine(seedStore(t, 25), DefaultFilterOptions())

	// 5 of 25 records are terminated; the total counts the filtered set,
	// not the slice and not the whole store.
	page, cr, err := engine.List(context.Background(), ListParams{
		Filter: []string{"status", "terminated"},
		Range:  []string{"0", "2"},
	})
	require.NoError(t, err)
	require.NotNil(t, cr)

	assert.Len(t, page, 2)
	assert.Equal(t, 5, cr.Total)
	assert.Equal(t, "subscriptions 0-2/5", cr.String())
}

func TestEngineListWithoutRange(t *testing.T) {
	engine := NewEngine(seedStore(t, 7), DefaultFilterOptions())

	page, cr, err := engine.List(context.Background(), ListParams{})
	require.NoError(t, err)

	assert.Nil(t, cr)
	assert.Len(t, page, 7)
}

func TestEngineListSortOrder(t *testing.T) {
	engine := NewEngine(seedStore(t, 9), DefaultFilterOptions())

	page, _, err := engine.List(context.Background(), ListParams{
		Sort: []string{"product", "desc", "description", "asc"},
	})
	require.NoError(t, err)
	require.Len(t, page, 9)

	for i := 1; i < len(page); i++ {
		prev, cur := page[i-1], page[i]
		assert.GreaterOrEqual(t, prev.Product.Name, cur.Product.Name)
		if prev.Product.Name == cur.Product.Name {
			assert.LessOrEqual(t, prev.Description, cur.Description)
		}
	}
}

func TestEngineListBadRangeRejected(t *testing.T) {
	engine := NewEngine(seedStore(t, 3), DefaultFilterOptions())

	_, _, err := engine.List(context.Background(), ListParams{
		Range: []string{"10", "3"},
	})
	assert.ErrorIs(t, err, model.ErrBadRequest)
}

func TestEngineListTextSearch(t *testing.T) {
	engine := NewEngine(seedStore(t, 10), DefaultFilterOptions())

	page, _, err := engine.List(context.Background(), ListParams{
		Filter: []string{"tsv", "circuit 03"},
	})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "circuit 03", page[0].Description)
}
