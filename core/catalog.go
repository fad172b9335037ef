package core

import "context"

// CatalogItem 是商品目录中的一条商品记录。
// 目录由外部系统维护，推荐链路只读。
type CatalogItem struct {
	ID          string            `json:"product_id" yaml:"product_id"`
	Name        string            `json:"name" yaml:"name"`
	Price       float64           `json:"price" yaml:"price"`
	Category    string            `json:"category" yaml:"category"`
	Brand       string            `json:"brand" yaml:"brand"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Stock       int               `json:"stock,omitempty" yaml:"stock,omitempty"`
	IsHot       bool              `json:"is_hot" yaml:"is_hot"`
	Specs       map[string]string `json:"specifications,omitempty" yaml:"specifications,omitempty"`
}

// ItemFilter 是目录查询条件。类别/品牌列表之间取 OR 语义，
// Exclude 中的商品 ID 始终排除。
type ItemFilter struct {
	Categories []string
	Brands     []string
	Exclude    []string
	Limit      int
}

// Catalog 是商品目录的领域接口，由外部目录服务（或内存实现）提供。
type Catalog interface {
	// LookupItem 按 ID 查询单个商品，不存在时返回 NOT_FOUND
	LookupItem(ctx context.Context, itemID string) (*CatalogItem, error)

	// QueryItems 按条件查询候选商品，迭代顺序稳定
	QueryItems(ctx context.Context, filter ItemFilter) ([]*CatalogItem, error)

	// HotItems 返回热门商品集合（冷启动兜底）
	HotItems(ctx context.Context, limit int) ([]*CatalogItem, error)

	// RecentGlobalViews 返回商品在最近 days 天内的全局浏览次数
	RecentGlobalViews(ctx context.Context, itemID string, days int) (int, error)
}

// ErrItemNotFound 表示商品不存在。调用方按冷启动处理，不作为硬失败。
var ErrItemNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: item not found")
