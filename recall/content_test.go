package recall

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/shopwise/recsys/catalog"
	"github.com/shopwise/recsys/core"
)

func testCatalog() *catalog.MemoryCatalog {
	return catalog.NewMemoryCatalog(
		&core.CatalogItem{ID: "p1", Name: "iPhone 15", Category: "手机", Brand: "Apple", Price: 5999, IsHot: true},
		&core.CatalogItem{ID: "p2", Name: "Mate 60", Category: "手机", Brand: "Huawei", Price: 5499},
		&core.CatalogItem{ID: "p3", Name: "WH-1000XM5", Category: "耳机", Brand: "Sony", Price: 2399},
		&core.CatalogItem{ID: "p4", Name: "小米14", Category: "手机", Brand: "Xiaomi", Price: 3999, IsHot: true},
	)
}

// TestContentRecall_ColdStart 测试无画像时回退热门兜底
func TestContentRecall_ColdStart(t *testing.T) {
	ctx := context.Background()
	r := &ContentRecall{Catalog: testCatalog()}

	items, err := r.Recommend(ctx, "newcomer", core.NewPreferenceProfile(), 10)
	if err != nil {
		t.Fatalf("Recommend 失败: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("期望 2 个热门商品，实际得到 %d 个", len(items))
	}
	for _, it := range items {
		if it.Score != 1.0 {
			t.Errorf("热门兜底分数期望 1.0，实际得到 %v", it.Score)
		}
		if it.Reason != "热门推荐商品" {
			t.Errorf("期望热门兜底理由，实际得到 %s", it.Reason)
		}
	}
}

// TestContentRecall_Scoring 测试偏好加权打分：0.4·类别 + 0.3·品牌 + 0.2·价格段 + 0.1·热门
func TestContentRecall_Scoring(t *testing.T) {
	ctx := context.Background()
	r := &ContentRecall{Catalog: testCatalog()}

	profile := core.NewPreferenceProfile()
	profile.Categories["手机"] = 3
	profile.Brands["Apple"] = 2
	profile.PriceRanges["5000+"] = 2
	profile.TotalViews = 4

	items, err := r.Recommend(ctx, "u1", profile, 10)
	if err != nil {
		t.Fatalf("Recommend 失败: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("期望非空结果")
	}

	// p1（手机/Apple/5999/热门）应排第一：3×0.4 + 2×0.3 + 2×0.2 + 0.1 = 2.3
	top := items[0]
	if top.ItemID != "p1" {
		t.Fatalf("期望 p1 排第一，实际得到 %s", top.ItemID)
	}
	if math.Abs(top.Score-2.3) > 1e-9 {
		t.Errorf("期望分数 2.3，实际得到 %v", top.Score)
	}
	if !strings.Contains(top.Reason, "您经常浏览手机类商品") {
		t.Errorf("理由缺少类别信号: %s", top.Reason)
	}
	if !strings.Contains(top.Reason, "您对Apple品牌感兴趣") {
		t.Errorf("理由缺少品牌信号: %s", top.Reason)
	}
	if !strings.Contains(top.Reason, "这是热门商品") {
		t.Errorf("理由缺少热门信号: %s", top.Reason)
	}

	// 所有结果都标记内容来源
	for _, it := range items {
		if it.Source != core.SourceContent {
			t.Errorf("期望 content 来源，实际得到 %s", it.Source)
		}
	}
}

// TestContentRecall_Ordering 测试按分数降序排列
func TestContentRecall_Ordering(t *testing.T) {
	ctx := context.Background()
	r := &ContentRecall{Catalog: testCatalog()}

	profile := core.NewPreferenceProfile()
	profile.Categories["手机"] = 1
	profile.TotalViews = 1

	items, err := r.Recommend(ctx, "u1", profile, 10)
	if err != nil {
		t.Fatalf("Recommend 失败: %v", err)
	}
	for i := 1; i < len(items); i++ {
		if items[i].Score > items[i-1].Score {
			t.Errorf("位置 %d 分数 %v 高于前一位 %v，应降序", i, items[i].Score, items[i-1].Score)
		}
	}
}

// TestHot_Recommend 测试热门召回源
func TestHot_Recommend(t *testing.T) {
	ctx := context.Background()
	r := &Hot{Catalog: testCatalog()}

	items, err := r.Recommend(ctx, 1)
	if err != nil {
		t.Fatalf("Recommend 失败: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("期望 1 条，实际得到 %d 条", len(items))
	}
	if items[0].Score != 1.0 || items[0].Reason != "热门推荐商品" {
		t.Errorf("期望固定分数与兜底理由，实际得到 %+v", items[0])
	}
}

// downCatalog 模拟整体不可达的商品目录
type downCatalog struct{}

func (downCatalog) unavailable() error {
	return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: unreachable")
}

func (c downCatalog) LookupItem(ctx context.Context, itemID string) (*core.CatalogItem, error) {
	return nil, c.unavailable()
}

func (c downCatalog) QueryItems(ctx context.Context, f core.ItemFilter) ([]*core.CatalogItem, error) {
	return nil, c.unavailable()
}

func (c downCatalog) HotItems(ctx context.Context, limit int) ([]*core.CatalogItem, error) {
	return nil, c.unavailable()
}

func (c downCatalog) RecentGlobalViews(ctx context.Context, itemID string, days int) (int, error) {
	return 0, c.unavailable()
}

// flakyCatalog 候选查询失败但热门仍可用
type flakyCatalog struct {
	*catalog.MemoryCatalog
}

func (c flakyCatalog) QueryItems(ctx context.Context, f core.ItemFilter) ([]*core.CatalogItem, error) {
	return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: query timeout")
}

// TestContentRecall_CatalogOutage 测试目录失败时降级而不是硬失败
func TestContentRecall_CatalogOutage(t *testing.T) {
	ctx := context.Background()
	profile := core.NewPreferenceProfile()
	profile.Categories["手机"] = 3
	profile.Brands["Apple"] = 2
	profile.TotalViews = 3

	// 候选查询失败降一档走热门
	r := &ContentRecall{Catalog: flakyCatalog{testCatalog()}}
	items, err := r.Recommend(ctx, "u1", profile, 10)
	if err != nil {
		t.Fatalf("候选查询失败期望回退热门，实际得到错误 %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("期望 2 个热门商品，实际得到 %d 个", len(items))
	}
	for _, it := range items {
		if it.Score != 1.0 || it.Reason != "热门推荐商品" {
			t.Errorf("回退结果期望热门兜底，实际得到 score=%v reason=%s", it.Score, it.Reason)
		}
	}

	// 目录整体不可达收敛为降级信号
	r = &ContentRecall{Catalog: downCatalog{}}
	if _, err := r.Recommend(ctx, "u1", profile, 10); !core.IsDegraded(err) {
		t.Fatalf("目录不可达期望 DEGRADED，实际得到 %v", err)
	}
	// 冷启动路径同样降级
	if _, err := r.Recommend(ctx, "newcomer", core.NewPreferenceProfile(), 10); !core.IsDegraded(err) {
		t.Fatalf("冷启动遇目录不可达期望 DEGRADED，实际得到 %v", err)
	}
}
