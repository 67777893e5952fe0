package wishlist

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushovancpp/urmart/internal/domain/product"
)

type memRepo struct {
	entries map[string]bool
}

func (m *memRepo) List(_ context.Context, userID string) ([]Item, error) {
	var out []Item
	for key := range m.entries {
		if rest, ok := strings.CutPrefix(key, userID+"/"); ok {
			out = append(out, Item{ProductID: rest})
		}
	}
	return out, nil
}

func (m *memRepo) Toggle(_ context.Context, _, userID, productID string, _ time.Time) (bool, error) {
	key := userID + "/" + productID
	if m.entries[key] {
		delete(m.entries, key)
		return false, nil
	}
	m.entries[key] = true
	return true, nil
}

type mockProducts map[string]bool

func (m mockProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	if !m[id] {
		return nil, product.ErrNotFound
	}
	return &product.Product{ID: id, Active: true}, nil
}

func TestToggle(t *testing.T) {
	svc := NewService(&memRepo{entries: map[string]bool{}}, mockProducts{"p1": true})
	ctx := context.Background()

	on, err := svc.Toggle(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, on)

	items, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)

	on, err = svc.Toggle(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.False(t, on)

	items, err = svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestToggle_UnknownProduct(t *testing.T) {
	svc := NewService(&memRepo{entries: map[string]bool{}}, mockProducts{})

	_, err := svc.Toggle(context.Background(), "u1", "nope")
	require.ErrorIs(t, err, product.ErrNotFound)
}
