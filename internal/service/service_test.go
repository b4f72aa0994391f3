package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theplant/luhn"

	"github.com/zgoda02/LasCartasZamow/internal/model"
	"github.com/zgoda02/LasCartasZamow/internal/store"
)

// Хранилище в памяти для тестов сервиса

type mockStore struct {
	items     map[string]model.Item
	orders    []model.Order
	commitErr error
}

func newMockStore(items ...model.Item) *mockStore {
	m := &mockStore{items: make(map[string]model.Item)}
	for _, item := range items {
		m.items[item.ID] = item
	}
	return m
}

func (m *mockStore) CatalogGet(ctx context.Context, id string) (model.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return model.Item{}, store.ErrNoRows
	}
	return item, nil
}

func (m *mockStore) CatalogList(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	for _, item := range m.items {
		items = append(items, item)
	}
	return items, nil
}

func (m *mockStore) CatalogAdd(ctx context.Context, item model.Item) error {
	if _, ok := m.items[item.ID]; ok {
		return store.ErrAlreadyExists
	}
	m.items[item.ID] = item
	return nil
}

func (m *mockStore) CatalogUpdate(ctx context.Context, id string, patch model.ItemPatch) error {
	item, ok := m.items[id]
	if !ok {
		return store.ErrNoRows
	}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Unit != nil {
		item.Unit = *patch.Unit
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.PriceHere != nil {
		item.PriceHere = *patch.PriceHere
	}
	if patch.PriceAway != nil {
		item.PriceAway = *patch.PriceAway
	}
	m.items[id] = item
	return nil
}

func (m *mockStore) CatalogDelete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func (m *mockStore) OrderCommit(ctx context.Context, order model.Order) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockStore) OrderList(ctx context.Context) ([]model.Order, error) {
	return m.orders, nil
}

func (m *mockStore) OrderDelete(ctx context.Context, id string) error {
	for i, order := range m.orders {
		if order.ID == id {
			m.orders = append(m.orders[:i], m.orders[i+1:]...)
			break
		}
	}
	return nil
}

// Кэш в памяти со счетчиками обращений

type mockCache struct {
	items  map[string]model.Item
	hits   int
	misses int
}

func newMockCache() *mockCache {
	return &mockCache{items: make(map[string]model.Item)}
}

func (m *mockCache) Get(ctx context.Context, id string) (model.Item, bool, error) {
	item, ok := m.items[id]
	if ok {
		m.hits++
	} else {
		m.misses++
	}
	return item, ok, nil
}

func (m *mockCache) Set(ctx context.Context, item model.Item) error {
	m.items[item.ID] = item
	return nil
}

func (m *mockCache) Invalidate(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func testItems() []model.Item {
	return []model.Item{
		{ID: "espresso", Name: "Espresso", Unit: "cup", Category: "coffee", PriceHere: 500, PriceAway: 450},
		{ID: "cheesecake", Name: "Cheesecake", Unit: "pc", Category: "dessert", PriceHere: 900, PriceAway: 900},
	}
}

func TestCreateOrderTierPricing(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		tier     model.Tier
		price    int
		subtotal int
	}{
		{name: "here", tier: model.TierHere, price: 500, subtotal: 1000},
		{name: "away", tier: model.TierAway, price: 450, subtotal: 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newMockStore(testItems()...), newMockCache())

			order, err := svc.CreateOrder(ctx, tt.tier,
				[]model.OrderLineRequest{{ItemID: "espresso", Qty: 2}})
			require.NoError(t, err)

			require.Len(t, order.Lines, 1)
			require.Equal(t, tt.price, order.Lines[0].Price)
			require.Equal(t, tt.subtotal, order.Lines[0].Subtotal)
			require.Equal(t, tt.subtotal, order.Total)
			require.Equal(t, "Espresso", order.Lines[0].Name)
		})
	}
}

func TestCreateOrderTotalReconciliation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockStore(testItems()...), newMockCache())

	order, err := svc.CreateOrder(ctx, model.TierHere, []model.OrderLineRequest{
		{ItemID: "espresso", Qty: 3},
		{ItemID: "cheesecake", Qty: 1},
		{ItemID: "espresso", Qty: 0},
	})
	require.NoError(t, err)

	sum := 0
	for _, line := range order.Lines {
		require.Equal(t, line.Price*line.Qty, line.Subtotal)
		sum += line.Subtotal
	}
	require.Equal(t, sum, order.Total)
	require.Equal(t, 500*3+900, order.Total)
}

func TestCreateOrderUnknownItem(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore(testItems()...)
	svc := NewService(mock, newMockCache())

	_, err := svc.CreateOrder(ctx, model.TierHere, []model.OrderLineRequest{
		{ItemID: "espresso", Qty: 1},
		{ItemID: "unicorn", Qty: 1},
	})
	require.ErrorIs(t, err, ErrItemNotFound)
	require.Contains(t, err.Error(), "unicorn")

	// заказ отклонен целиком, в хранилище ничего не записано
	require.Empty(t, mock.orders)
}

func TestCreateOrderQtyClamp(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore(testItems()...)
	svc := NewService(mock, newMockCache())

	order, err := svc.CreateOrder(ctx, model.TierHere,
		[]model.OrderLineRequest{{ItemID: "espresso", Qty: -5}})
	require.NoError(t, err)

	// отрицательное количество не ошибка: строка остается с нулем
	require.Len(t, order.Lines, 1)
	require.Equal(t, 0, order.Lines[0].Qty)
	require.Equal(t, 0, order.Lines[0].Subtotal)
	require.Equal(t, 0, order.Total)
	require.Len(t, mock.orders, 1)
}

func TestCreateOrderStorageFailure(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore(testItems()...)
	mock.commitErr = errors.New("connection reset")
	svc := NewService(mock, newMockCache())

	_, err := svc.CreateOrder(ctx, model.TierHere,
		[]model.OrderLineRequest{{ItemID: "espresso", Qty: 1}})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidRequest)
	require.NotErrorIs(t, err, ErrItemNotFound)
	require.Empty(t, mock.orders)
}

func TestCreateOrderInvalidTier(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore(testItems()...)
	svc := NewService(mock, newMockCache())

	_, err := svc.CreateOrder(ctx, model.Tier("X"),
		[]model.OrderLineRequest{{ItemID: "espresso", Qty: 1}})
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.Empty(t, mock.orders)
}

func TestCreateOrderEmptyLines(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore(testItems()...)
	svc := NewService(mock, newMockCache())

	order, err := svc.CreateOrder(ctx, model.TierAway, []model.OrderLineRequest{})
	require.NoError(t, err)
	require.Equal(t, 0, order.Total)
	require.Empty(t, order.Lines)
	require.Len(t, mock.orders, 1)
}

func TestCreateOrderDistinctIdentifiers(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockStore(testItems()...), newMockCache())

	lines := []model.OrderLineRequest{{ItemID: "espresso", Qty: 1}}

	first, err := svc.CreateOrder(ctx, model.TierHere, lines)
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, model.TierHere, lines)
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	require.NotEmpty(t, first.ID)
	require.NotEmpty(t, second.ID)
}

func TestCreateOrderReceiptLuhn(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockStore(testItems()...), newMockCache())

	order, err := svc.CreateOrder(ctx, model.TierHere,
		[]model.OrderLineRequest{{ItemID: "espresso", Qty: 1}})
	require.NoError(t, err)

	receipt, err := strconv.Atoi(order.Receipt)
	require.NoError(t, err)
	require.True(t, luhn.Valid(receipt))
}

func TestCreateOrderReadThroughCache(t *testing.T) {
	ctx := context.Background()
	cache := newMockCache()
	svc := NewService(newMockStore(testItems()...), cache)

	lines := []model.OrderLineRequest{{ItemID: "espresso", Qty: 1}}

	_, err := svc.CreateOrder(ctx, model.TierHere, lines)
	require.NoError(t, err)
	require.Equal(t, 1, cache.misses)

	// второй заказ берет позицию уже из кэша
	_, err = svc.CreateOrder(ctx, model.TierHere, lines)
	require.NoError(t, err)
	require.Equal(t, 1, cache.hits)
}

func TestUpdateItemInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	cache := newMockCache()
	svc := NewService(newMockStore(testItems()...), cache)

	_, err := svc.CreateOrder(ctx, model.TierHere,
		[]model.OrderLineRequest{{ItemID: "espresso", Qty: 1}})
	require.NoError(t, err)

	newPrice := 600
	err = svc.UpdateItem(ctx, "espresso", model.ItemPatch{PriceHere: &newPrice})
	require.NoError(t, err)

	order, err := svc.CreateOrder(ctx, model.TierHere,
		[]model.OrderLineRequest{{ItemID: "espresso", Qty: 1}})
	require.NoError(t, err)
	require.Equal(t, 600, order.Lines[0].Price)
}

func TestAddItemValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockStore(), newMockCache())

	tests := []struct {
		name string
		item model.Item
	}{
		{name: "empty id", item: model.Item{Name: "Tea", Category: "coffee", PriceHere: 1, PriceAway: 1}},
		{name: "empty name", item: model.Item{ID: "tea", Category: "coffee", PriceHere: 1, PriceAway: 1}},
		{name: "empty category", item: model.Item{ID: "tea", Name: "Tea", PriceHere: 1, PriceAway: 1}},
		{name: "negative price here", item: model.Item{ID: "tea", Name: "Tea", Category: "coffee", PriceHere: -1}},
		{name: "negative price away", item: model.Item{ID: "tea", Name: "Tea", Category: "coffee", PriceAway: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.AddItem(ctx, tt.item)
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestAddItemDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockStore(testItems()...), newMockCache())

	err := svc.AddItem(ctx, model.Item{ID: "espresso", Name: "Espresso", Category: "coffee"})
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdateItemUnknown(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockStore(), newMockCache())

	name := "Tea"
	err := svc.UpdateItem(ctx, "tea", model.ItemPatch{Name: &name})
	require.ErrorIs(t, err, ErrItemNotFound)
}
