package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/theplant/luhn"

	"github.com/zgoda02/LasCartasZamow/internal/catalogcache"
	"github.com/zgoda02/LasCartasZamow/internal/model"
	"github.com/zgoda02/LasCartasZamow/internal/store"
)

type Service interface {
	CreateOrder(ctx context.Context, tier model.Tier, lines []model.OrderLineRequest) (model.Order, error)
	GetOrders(ctx context.Context) ([]model.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	GetItems(ctx context.Context) ([]model.Item, error)
	AddItem(ctx context.Context, item model.Item) error
	UpdateItem(ctx context.Context, id string, patch model.ItemPatch) error
	DeleteItem(ctx context.Context, id string) error
}

var (
	ErrInvalidRequest = errors.New("invalid_body")
	ErrItemNotFound   = errors.New("item_not_found")
	ErrAlreadyExists  = errors.New("already exists")
)

type service struct {
	store store.Store
	cache catalogcache.Cache
}

func NewService(store store.Store, cache catalogcache.Cache) Service {
	return &service{
		store: store,
		cache: cache,
	}
}

// CreateOrder - оформление заказа.
// Сначала все строки разрешаются по каталогу: цена по режиму заказа,
// количество срезается до неотрицательного, имя позиции фиксируется.
// Любая неизвестная позиция отклоняет заказ целиком еще до записи.
// Затем заголовок и строки пишутся одной транзакцией
func (service *service) CreateOrder(ctx context.Context, tier model.Tier, lines []model.OrderLineRequest) (model.Order, error) {
	if !tier.Valid() {
		return model.Order{}, ErrInvalidRequest
	}

	var total int
	resolved := make([]model.OrderLine, 0, len(lines))
	for _, req := range lines {
		item, err := service.getItem(ctx, req.ItemID)
		if err != nil {
			if errors.Is(err, store.ErrNoRows) {
				return model.Order{}, fmt.Errorf("%w:%s", ErrItemNotFound, req.ItemID)
			}
			return model.Order{}, err
		}

		price := item.PriceAway
		if tier == model.TierHere {
			price = item.PriceHere
		}

		qty := req.Qty
		if qty < 0 {
			qty = 0
		}

		subtotal := price * qty
		total += subtotal

		resolved = append(resolved, model.OrderLine{
			ItemID:   item.ID,
			Name:     item.Name,
			Qty:      qty,
			Price:    price,
			Subtotal: subtotal,
		})
	}

	order := model.Order{
		ID:      uuid.NewString(),
		Receipt: newReceipt(),
		At:      time.Now().UTC(),
		Tier:    tier,
		Total:   total,
		Lines:   resolved,
	}

	if err := service.store.OrderCommit(ctx, order); err != nil {
		return model.Order{}, fmt.Errorf("commit order: %w", err)
	}

	return order, nil
}

func (service *service) GetOrders(ctx context.Context) ([]model.Order, error) {
	return service.store.OrderList(ctx)
}

func (service *service) DeleteOrder(ctx context.Context, id string) error {
	return service.store.OrderDelete(ctx, id)
}

func (service *service) GetItems(ctx context.Context) ([]model.Item, error) {
	return service.store.CatalogList(ctx)
}

func (service *service) AddItem(ctx context.Context, item model.Item) error {
	if item.ID == "" || item.Name == "" || item.Category == "" {
		return ErrInvalidRequest
	}
	if item.PriceHere < 0 || item.PriceAway < 0 {
		return ErrInvalidRequest
	}

	err := service.store.CatalogAdd(ctx, item)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return ErrAlreadyExists
		default:
			return err
		}
	}
	return nil
}

func (service *service) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) error {
	if patch.PriceHere != nil && *patch.PriceHere < 0 {
		return ErrInvalidRequest
	}
	if patch.PriceAway != nil && *patch.PriceAway < 0 {
		return ErrInvalidRequest
	}

	err := service.store.CatalogUpdate(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNoRows):
			return fmt.Errorf("%w:%s", ErrItemNotFound, id)
		default:
			return err
		}
	}

	// запись в каталоге поменялась - снимок в кэше больше не верен
	service.cache.Invalidate(ctx, id)

	return nil
}

func (service *service) DeleteItem(ctx context.Context, id string) error {
	if err := service.store.CatalogDelete(ctx, id); err != nil {
		return err
	}
	service.cache.Invalidate(ctx, id)
	return nil
}

// getItem читает позицию через кэш. Ошибка кэша приравнивается к промаху:
// источник истины - база
func (service *service) getItem(ctx context.Context, id string) (model.Item, error) {
	item, ok, err := service.cache.Get(ctx, id)
	if err == nil && ok {
		return item, nil
	}

	item, err = service.store.CatalogGet(ctx, id)
	if err != nil {
		return model.Item{}, err
	}

	service.cache.Set(ctx, item)

	return item, nil
}

// Номер чека: девятизначное число плюс контрольная цифра по Луну
func newReceipt() string {
	payload := 100000000 + rand.Intn(900000000)
	return strconv.Itoa(payload*10 + luhn.CalculateLuhn(payload))
}
