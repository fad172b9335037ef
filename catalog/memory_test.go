package catalog

import (
	"context"
	"testing"

	"github.com/shopwise/recsys/core"
)

func seedCatalog() *MemoryCatalog {
	return NewMemoryCatalog(
		&core.CatalogItem{ID: "p1", Name: "iPhone 15", Category: "手机", Brand: "Apple", Price: 5999, IsHot: true},
		&core.CatalogItem{ID: "p2", Name: "Mate 60", Category: "手机", Brand: "Huawei", Price: 5499},
		&core.CatalogItem{ID: "p3", Name: "WH-1000XM5", Category: "耳机", Brand: "Sony", Price: 2399},
		&core.CatalogItem{ID: "p4", Name: "AirPods Pro", Category: "耳机", Brand: "Apple", Price: 1899, IsHot: true},
	)
}

// TestMemoryCatalog_LookupItem 测试单个商品查询
func TestMemoryCatalog_LookupItem(t *testing.T) {
	ctx := context.Background()
	c := seedCatalog()

	item, err := c.LookupItem(ctx, "p1")
	if err != nil {
		t.Fatalf("LookupItem 失败: %v", err)
	}
	if item.Name != "iPhone 15" {
		t.Errorf("期望 iPhone 15，实际得到 %s", item.Name)
	}

	if _, err := c.LookupItem(ctx, "missing"); !core.IsNotFound(err) {
		t.Errorf("不存在的商品期望 NOT_FOUND，实际得到 %v", err)
	}
}

// TestMemoryCatalog_QueryItems 测试类别/品牌 OR 语义与排除
func TestMemoryCatalog_QueryItems(t *testing.T) {
	ctx := context.Background()
	c := seedCatalog()

	// 类别 OR 品牌：手机类 ∪ Sony 品牌
	items, err := c.QueryItems(ctx, core.ItemFilter{
		Categories: []string{"手机"},
		Brands:     []string{"Sony"},
	})
	if err != nil {
		t.Fatalf("QueryItems 失败: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("期望 3 条（p1 p2 p3），实际得到 %d 条", len(items))
	}

	// 排除始终生效
	items, err = c.QueryItems(ctx, core.ItemFilter{
		Categories: []string{"手机"},
		Exclude:    []string{"p1"},
	})
	if err != nil {
		t.Fatalf("QueryItems 失败: %v", err)
	}
	if len(items) != 1 || items[0].ID != "p2" {
		t.Errorf("期望只剩 p2，实际得到 %+v", items)
	}

	// 无条件时返回全部，Limit 截断
	items, err = c.QueryItems(ctx, core.ItemFilter{Limit: 2})
	if err != nil {
		t.Fatalf("QueryItems 失败: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("期望 Limit 截断到 2 条，实际得到 %d 条", len(items))
	}
}

// TestMemoryCatalog_HotItems 测试热门商品集合
func TestMemoryCatalog_HotItems(t *testing.T) {
	ctx := context.Background()
	c := seedCatalog()

	items, err := c.HotItems(ctx, 10)
	if err != nil {
		t.Fatalf("HotItems 失败: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("期望 2 个热门商品，实际得到 %d 个", len(items))
	}
	for _, item := range items {
		if !item.IsHot {
			t.Errorf("非热门商品混入: %+v", item)
		}
	}
}

// TestMemoryCatalog_Upsert 测试更新已有商品
func TestMemoryCatalog_Upsert(t *testing.T) {
	ctx := context.Background()
	c := seedCatalog()

	c.Upsert(&core.CatalogItem{ID: "p1", Name: "iPhone 15 Pro", Category: "手机", Brand: "Apple", Price: 7999})
	item, err := c.LookupItem(ctx, "p1")
	if err != nil {
		t.Fatalf("LookupItem 失败: %v", err)
	}
	if item.Name != "iPhone 15 Pro" || item.Price != 7999 {
		t.Errorf("更新未生效: %+v", item)
	}

	// 返回的是副本，修改不影响目录
	item.Name = "篡改"
	again, _ := c.LookupItem(ctx, "p1")
	if again.Name != "iPhone 15 Pro" {
		t.Error("LookupItem 应返回副本")
	}
}
