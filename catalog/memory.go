package catalog

import (
	"context"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/shopwise/recsys/core"
)

// ViewSource 提供商品的全局浏览计数。
// 通常由行为日志（behavior.EventStore）实现。
type ViewSource interface {
	RecentGlobalViews(ctx context.Context, itemID string, days int) (int, error)
}

// MemoryCatalog 是内存实现的商品目录，用于测试/开发/单机部署。
// 商品目录在生产环境是外部系统，这里只实现推荐链路需要的只读查询。
// 迭代顺序与加载顺序一致且稳定。
type MemoryCatalog struct {
	mu    sync.RWMutex
	items []*core.CatalogItem
	index map[string]*core.CatalogItem

	// Views 可选：接入行为日志后提供真实的浏览计数；未接入时计数恒为 0
	Views ViewSource
}

func NewMemoryCatalog(items ...*core.CatalogItem) *MemoryCatalog {
	c := &MemoryCatalog{index: make(map[string]*core.CatalogItem)}
	for _, item := range items {
		c.Upsert(item)
	}
	return c
}

// LoadFromYAML 从 YAML 文件加载商品目录。
func LoadFromYAML(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Items []*core.CatalogItem `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return NewMemoryCatalog(doc.Items...), nil
}

// Upsert 新增或更新一条商品记录。
func (c *MemoryCatalog) Upsert(item *core.CatalogItem) {
	if item == nil || item.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.index[item.ID]; ok {
		*old = *item
		return
	}
	cp := *item
	c.items = append(c.items, &cp)
	c.index[item.ID] = &cp
}

func (c *MemoryCatalog) LookupItem(ctx context.Context, itemID string) (*core.CatalogItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.index[itemID]
	if !ok {
		return nil, core.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (c *MemoryCatalog) QueryItems(ctx context.Context, filter core.ItemFilter) ([]*core.CatalogItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	categories := toSet(filter.Categories)
	brands := toSet(filter.Brands)
	exclude := toSet(filter.Exclude)

	out := make([]*core.CatalogItem, 0)
	for _, item := range c.items {
		if _, ok := exclude[item.ID]; ok {
			continue
		}
		// 类别/品牌之间 OR 语义；都未指定时不设限
		if len(categories) > 0 || len(brands) > 0 {
			_, catHit := categories[item.Category]
			_, brandHit := brands[item.Brand]
			if !catHit && !brandHit {
				continue
			}
		}
		cp := *item
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (c *MemoryCatalog) HotItems(ctx context.Context, limit int) ([]*core.CatalogItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*core.CatalogItem, 0, limit)
	for _, item := range c.items {
		if !item.IsHot {
			continue
		}
		cp := *item
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (c *MemoryCatalog) RecentGlobalViews(ctx context.Context, itemID string, days int) (int, error) {
	if c.Views == nil {
		return 0, nil
	}
	return c.Views.RecentGlobalViews(ctx, itemID, days)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

var _ core.Catalog = (*MemoryCatalog)(nil)
