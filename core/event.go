package core

import "time"

// ItemSnapshot 是事件发生时的商品快照。
// 行为日志不回查目录：快照随事件落盘，保证偏好分析不依赖目录可用性。
type ItemSnapshot struct {
	Name     string  `json:"name,omitempty"`
	Category string  `json:"category,omitempty"`
	Brand    string  `json:"brand,omitempty"`
	Price    float64 `json:"price,omitempty"`
	IsHot    bool    `json:"is_hot,omitempty"`
}

// InteractionEvent 是一条用户交互事件，写入后不可变。
type InteractionEvent struct {
	UserID   string    `json:"user_id"`
	ItemID   string    `json:"product_id"`
	Name     string    `json:"name,omitempty"`
	Category string    `json:"category,omitempty"`
	Brand    string    `json:"brand,omitempty"`
	Price    float64   `json:"price,omitempty"`
	IsHot    bool      `json:"is_hot,omitempty"`
	ViewedAt time.Time `json:"viewed_at"`
}

// SnapshotOf 从目录商品构建事件快照。
func SnapshotOf(item *CatalogItem) ItemSnapshot {
	if item == nil {
		return ItemSnapshot{}
	}
	return ItemSnapshot{
		Name:     item.Name,
		Category: item.Category,
		Brand:    item.Brand,
		Price:    item.Price,
		IsHot:    item.IsHot,
	}
}
