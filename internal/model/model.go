package model

import "time"

// Режим цены заказа: на месте / с собой

type Tier string

const (
	TierHere Tier = "H"
	TierAway Tier = "S"
)

func (t Tier) Valid() bool {
	return t == TierHere || t == TierAway
}

// Позиция каталога. Цены в минимальных единицах валюты

type Item struct {
	ID        string
	Name      string
	Unit      string
	Category  string
	PriceHere int
	PriceAway int
}

// Частичное обновление позиции: nil-поле сохраняет прежнее значение

type ItemPatch struct {
	Name      *string
	Unit      *string
	Category  *string
	PriceHere *int
	PriceAway *int
}

// Заказ и его строки. Строки создаются и удаляются вместе с заказом.
// Имя и цена позиции зафиксированы на момент продажи

type Order struct {
	ID      string
	Receipt string
	At      time.Time
	Tier    Tier
	Total   int
	Lines   []OrderLine
}

type OrderLine struct {
	ItemID   string
	Name     string
	Qty      int
	Price    int
	Subtotal int
}

// Запрошенная строка заказа до разрешения цены

type OrderLineRequest struct {
	ItemID string
	Qty    int
}
