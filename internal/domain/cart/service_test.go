package cart

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushovancpp/urmart/internal/domain/pricing"
	"github.com/sushovancpp/urmart/internal/domain/product"
)

// --- Mock implementations ---

type mockProducts struct {
	byID map[string]*product.Product
}

func (m *mockProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok || !p.Active {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type memLines struct {
	mu       sync.Mutex
	products *mockProducts
	lines    map[string]*Line
}

func (m *memLines) Lines(_ context.Context, userID string) ([]Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Line
	for key, l := range m.lines {
		if strings.HasPrefix(key, userID+"/") {
			out = append(out, m.join(*l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	return out, nil
}

func (m *memLines) Line(_ context.Context, userID, lineID string) (*Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, l := range m.lines {
		if l.ID == lineID && strings.HasPrefix(key, userID+"/") {
			joined := m.join(*l)
			return &joined, nil
		}
	}
	return nil, ErrLineNotFound
}

func (m *memLines) Add(_ context.Context, p AddParams) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := p.UserID + "/" + p.ProductID
	if l, ok := m.lines[key]; ok {
		if l.Qty+p.Qty > p.Limit {
			return 0, false, nil
		}
		l.Qty += p.Qty
		return l.Qty, true, nil
	}
	m.lines[key] = &Line{ID: p.LineID, ProductID: p.ProductID, Qty: p.Qty, AddedAt: p.AddedAt}
	return p.Qty, true, nil
}

func (m *memLines) SetQty(_ context.Context, userID, lineID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, l := range m.lines {
		if l.ID == lineID && strings.HasPrefix(key, userID+"/") {
			l.Qty = qty
			return nil
		}
	}
	return ErrLineNotFound
}

func (m *memLines) Remove(_ context.Context, userID, lineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, l := range m.lines {
		if l.ID == lineID && strings.HasPrefix(key, userID+"/") {
			delete(m.lines, key)
		}
	}
	return nil
}

func (m *memLines) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.lines {
		if strings.HasPrefix(key, userID+"/") {
			delete(m.lines, key)
		}
	}
	return nil
}

func (m *memLines) join(l Line) Line {
	p := m.products.byID[l.ProductID]
	l.Name, l.Emoji, l.Weight, l.Price, l.Stock = p.Name, p.Emoji, p.Weight, p.Price, p.Stock
	return l
}

// --- Helpers ---

func newTestService(products ...product.Product) (*Service, *memLines) {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	mp := &mockProducts{byID: byID}
	lines := &memLines{products: mp, lines: make(map[string]*Line)}
	svc := NewService(lines, mp, pricing.DefaultPolicy())

	tick := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return svc, lines
}

func newTestProduct(id string, price int64, stock int) product.Product {
	return product.Product{
		ID: id, Name: "Product " + id, Emoji: "🥑", Weight: "1kg",
		Price: decimal.NewFromInt(price), MRP: decimal.NewFromInt(price), Stock: stock, Active: true,
	}
}

// --- Tests ---

func TestAddItem_Validation(t *testing.T) {
	svc, _ := newTestService(newTestProduct("p1", 100, 5))
	ctx := context.Background()

	var vErr *ValidationError
	require.ErrorAs(t, svc.AddItem(ctx, "u1", "", 1), &vErr)
	assert.Equal(t, "product_id required", vErr.Message)

	require.ErrorAs(t, svc.AddItem(ctx, "u1", "p1", 0), &vErr)
	assert.Equal(t, "qty must be >= 1", vErr.Message)

	require.ErrorIs(t, svc.AddItem(ctx, "u1", "missing", 1), product.ErrNotFound)
}

func TestAddItem_InactiveProduct(t *testing.T) {
	p := newTestProduct("p1", 100, 5)
	p.Active = false
	svc, _ := newTestService(p)

	require.ErrorIs(t, svc.AddItem(context.Background(), "u1", "p1", 1), product.ErrNotFound)
}

func TestAddItem_NeverExceedsStock(t *testing.T) {
	svc, lines := newTestService(newTestProduct("p1", 100, 3))
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "u1", "p1", 2))
	require.NoError(t, svc.AddItem(ctx, "u1", "p1", 1))

	var sErr *StockExceededError
	require.ErrorAs(t, svc.AddItem(ctx, "u1", "p1", 1), &sErr)
	assert.Equal(t, 3, sErr.Available)
	assert.Equal(t, "Only 3 in stock", sErr.Error())

	got, err := lines.Lines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Qty)
}

func TestAddItem_NewLineAboveStock(t *testing.T) {
	svc, lines := newTestService(newTestProduct("p1", 100, 2))
	ctx := context.Background()

	var sErr *StockExceededError
	require.ErrorAs(t, svc.AddItem(ctx, "u1", "p1", 3), &sErr)

	got, err := lines.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSetQuantity(t *testing.T) {
	svc, lines := newTestService(newTestProduct("p1", 100, 4))
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, "u1", "p1", 1))
	got, _ := lines.Lines(ctx, "u1")
	lineID := got[0].ID

	var vErr *ValidationError
	require.ErrorAs(t, svc.SetQuantity(ctx, "u1", lineID, 0), &vErr)

	var sErr *StockExceededError
	require.ErrorAs(t, svc.SetQuantity(ctx, "u1", lineID, 5), &sErr)

	require.ErrorIs(t, svc.SetQuantity(ctx, "u2", lineID, 2), ErrLineNotFound)

	require.NoError(t, svc.SetQuantity(ctx, "u1", lineID, 4))
	got, _ = lines.Lines(ctx, "u1")
	assert.Equal(t, 4, got[0].Qty)
}

func TestRemoveAndClear(t *testing.T) {
	svc, lines := newTestService(newTestProduct("p1", 100, 4), newTestProduct("p2", 50, 4))
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, "u1", "p1", 1))
	require.NoError(t, svc.AddItem(ctx, "u1", "p2", 1))

	got, _ := lines.Lines(ctx, "u1")
	require.Len(t, got, 2)
	require.NoError(t, svc.Remove(ctx, "u1", got[0].ID))
	got, _ = lines.Lines(ctx, "u1")
	require.Len(t, got, 1)

	require.NoError(t, svc.Clear(ctx, "u1"))
	got, _ = lines.Lines(ctx, "u1")
	assert.Empty(t, got)
}

func TestView_PricesCartAndIsIdempotent(t *testing.T) {
	svc, _ := newTestService(newTestProduct("p1", 100, 10), newTestProduct("p2", 50, 10))
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, "u1", "p1", 2))
	require.NoError(t, svc.AddItem(ctx, "u1", "p2", 1))

	first, err := svc.View(ctx, "u1")
	require.NoError(t, err)
	second, err := svc.View(ctx, "u1")
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(250).Equal(first.Subtotal))
	assert.True(t, decimal.NewFromInt(49).Equal(first.DeliveryFee))
	assert.True(t, decimal.NewFromInt(13).Equal(first.LoyaltyDiscount))
	assert.True(t, decimal.NewFromInt(286).Equal(first.Total))
	assert.Equal(t, 3, first.Count)
	assert.Equal(t, first, second)
}

func TestView_EmptyCart(t *testing.T) {
	svc, _ := newTestService()

	v, err := svc.View(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, v.Items)
	assert.Empty(t, v.Items)
	assert.Equal(t, 0, v.Count)
}

func TestSyncGuestCart(t *testing.T) {
	svc, lines := newTestService(newTestProduct("p1", 100, 5), newTestProduct("p2", 50, 2))
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, "u1", "p1", 2))

	res, err := svc.SyncGuestCart(ctx, "u1", []GuestItem{
		{ProductID: "p1", Qty: 1},
		{ProductID: "", Qty: 3},
		{ProductID: "ghost", Qty: 1},
		{ProductID: "p2", Qty: 10},
		{ProductID: "p2", Qty: 1},
		{ProductID: "p1", Qty: -4},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Merged)
	assert.Equal(t, 4, res.Skipped)

	got, err := lines.Lines(ctx, "u1")
	require.NoError(t, err)
	qty := map[string]int{}
	for _, l := range got {
		qty[l.ProductID] = l.Qty
	}
	assert.Equal(t, map[string]int{"p1": 3, "p2": 2}, qty)
}
