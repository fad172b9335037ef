package behavior

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopwise/recsys/core"
	"github.com/shopwise/recsys/store"
)

func snapshot(category, brand string, price float64) core.ItemSnapshot {
	return core.ItemSnapshot{Name: "测试商品", Category: category, Brand: brand, Price: price}
}

// TestEventStore_HistoryBound 测试历史只保留最近 MaxEntries 条
func TestEventStore_HistoryBound(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	es := NewEventStore(ms)
	es.MaxEntries = 3

	for i := 1; i <= 5; i++ {
		itemID := fmt.Sprintf("p%d", i)
		if err := es.Record(ctx, "u1", itemID, snapshot("手机", "Apple", 5999)); err != nil {
			t.Fatalf("Record 失败: %v", err)
		}
		time.Sleep(time.Millisecond) // 保证事件时间戳单调递增
	}

	history, err := es.History(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("History 失败: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("期望保留 3 条，实际得到 %d 条", len(history))
	}
	// 最近的在前
	want := []string{"p5", "p4", "p3"}
	for i, ev := range history {
		if ev.ItemID != want[i] {
			t.Errorf("位置 %d 期望 %s，实际得到 %s", i, want[i], ev.ItemID)
		}
	}
}

// TestEventStore_RecentItemIDs 测试窗口内去重的商品 ID 列表
func TestEventStore_RecentItemIDs(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	es := NewEventStore(ms)

	// p1 被浏览两次，应去重且以最近一次的位置为准
	for _, itemID := range []string{"p1", "p2", "p1", "p3"} {
		if err := es.Record(ctx, "u1", itemID, snapshot("手机", "Apple", 5999)); err != nil {
			t.Fatalf("Record 失败: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	ids, err := es.RecentItemIDs(ctx, "u1", 30)
	if err != nil {
		t.Fatalf("RecentItemIDs 失败: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("期望去重后 3 个商品，实际得到 %d 个", len(ids))
	}

	// 无历史的用户返回空而不是错误
	empty, err := es.RecentItemIDs(ctx, "nobody", 30)
	if err != nil {
		t.Fatalf("无历史用户不应报错: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("期望空列表，实际得到 %v", empty)
	}
}

// TestEventStore_Clear 测试清空历史
func TestEventStore_Clear(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	es := NewEventStore(ms)
	if err := es.Record(ctx, "u1", "p1", snapshot("手机", "Apple", 5999)); err != nil {
		t.Fatalf("Record 失败: %v", err)
	}
	if err := es.Clear(ctx, "u1"); err != nil {
		t.Fatalf("Clear 失败: %v", err)
	}
	history, err := es.History(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("History 失败: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("清空后期望无历史，实际得到 %d 条", len(history))
	}
}

// TestEventStore_ViewCounters 测试全局浏览计数与浏览者集合
func TestEventStore_ViewCounters(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	es := NewEventStore(ms)
	for _, uid := range []string{"u1", "u2", "u1"} {
		if err := es.Record(ctx, uid, "p1", snapshot("手机", "Apple", 5999)); err != nil {
			t.Fatalf("Record 失败: %v", err)
		}
	}

	views, err := es.RecentGlobalViews(ctx, "p1", 7)
	if err != nil {
		t.Fatalf("RecentGlobalViews 失败: %v", err)
	}
	if views != 3 {
		t.Errorf("期望 3 次浏览，实际得到 %d 次", views)
	}

	viewers, err := es.ItemViewers(ctx, "p1", 30)
	if err != nil {
		t.Fatalf("ItemViewers 失败: %v", err)
	}
	if len(viewers) != 2 {
		t.Errorf("期望 2 个浏览者，实际得到 %d 个", len(viewers))
	}
}

// TestEventStore_PopularItems 测试热门商品统计的排序
func TestEventStore_PopularItems(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	es := NewEventStore(ms)
	viewTimes := map[string]int{"p1": 1, "p2": 3, "p3": 2}
	for itemID, n := range viewTimes {
		for i := 0; i < n; i++ {
			if err := es.Record(ctx, "u1", itemID, snapshot("手机", "Apple", 5999)); err != nil {
				t.Fatalf("Record 失败: %v", err)
			}
		}
	}

	items, err := es.PopularItems(ctx, 7, 2)
	if err != nil {
		t.Fatalf("PopularItems 失败: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("期望 2 条，实际得到 %d 条", len(items))
	}
	if items[0].ItemID != "p2" || items[0].ViewCount != 3 {
		t.Errorf("期望第一名 p2(3)，实际得到 %+v", items[0])
	}
	if items[1].ItemID != "p3" {
		t.Errorf("期望第二名 p3，实际得到 %+v", items[1])
	}
}

// TestEventStore_BehaviorStats 测试全局行为统计
func TestEventStore_BehaviorStats(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	es := NewEventStore(ms)
	for _, uid := range []string{"u1", "u2", "u1", "u1"} {
		if err := es.Record(ctx, uid, "p1", snapshot("手机", "Apple", 5999)); err != nil {
			t.Fatalf("Record 失败: %v", err)
		}
	}

	stats, err := es.BehaviorStats(ctx)
	if err != nil {
		t.Fatalf("BehaviorStats 失败: %v", err)
	}
	if stats.TotalUsers != 2 {
		t.Errorf("期望 2 个用户，实际得到 %d", stats.TotalUsers)
	}
	if stats.TotalViews != 4 {
		t.Errorf("期望 4 次浏览，实际得到 %d", stats.TotalViews)
	}
	if stats.AvgViewsPerUser != 2 {
		t.Errorf("期望人均 2 次，实际得到 %v", stats.AvgViewsPerUser)
	}
}
