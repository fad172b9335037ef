package feedback

import (
	"context"
	"testing"

	"github.com/shopwise/recsys/core"
	"github.com/shopwise/recsys/store"
)

// TestLedger_Clicks 测试点击计数与排行
func TestLedger_Clicks(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	l := NewLedger(ms)
	clicks := []struct{ userID, itemID string }{
		{"u1", "p1"}, {"u1", "p1"}, {"u2", "p1"}, {"u2", "p2"},
	}
	for _, c := range clicks {
		if err := l.RecordClick(ctx, c.userID, c.itemID); err != nil {
			t.Fatalf("RecordClick 失败: %v", err)
		}
	}

	top, err := l.TopClicked(ctx, 10)
	if err != nil {
		t.Fatalf("TopClicked 失败: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("期望 2 个商品，实际得到 %d 个", len(top))
	}
	if top[0].ItemID != "p1" || top[0].ClickCount != 3 {
		t.Errorf("期望第一名 p1(3)，实际得到 %+v", top[0])
	}
}

// TestLedger_Feedback 测试反馈校验、流水与统计
func TestLedger_Feedback(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	l := NewLedger(ms)

	// 未知反馈类型拒绝
	if err := l.RecordFeedback(ctx, "u1", "p1", "love_it"); !core.IsInvalidInput(err) {
		t.Errorf("未知类型期望 INVALID_INPUT，实际得到 %v", err)
	}

	feedbacks := []struct{ itemID, typ string }{
		{"p1", TypeInterested},
		{"p2", TypeInterested},
		{"p3", TypeNotInterested},
	}
	for _, f := range feedbacks {
		if err := l.RecordFeedback(ctx, "u1", f.itemID, f.typ); err != nil {
			t.Fatalf("RecordFeedback 失败: %v", err)
		}
	}

	history, err := l.FeedbackHistory(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("FeedbackHistory 失败: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("期望 3 条流水，实际得到 %d 条", len(history))
	}
	// 最新在前
	if history[0].ItemID != "p3" || history[0].Type != TypeNotInterested {
		t.Errorf("期望最新一条 p3/not_interested，实际得到 %+v", history[0])
	}

	stats, err := l.StatsForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("StatsForUser 失败: %v", err)
	}
	if stats.InterestedCount != 2 || stats.NotInterestedCount != 1 || stats.TotalFeedback != 3 {
		t.Errorf("用户统计不符: %+v", stats)
	}
	// 满意度 = interested / total
	if stats.SatisfactionRate < 0.66 || stats.SatisfactionRate > 0.67 {
		t.Errorf("期望满意度约 2/3，实际得到 %v", stats.SatisfactionRate)
	}
}

// TestLedger_RecordBound 测试每用户流水上限截断
func TestLedger_RecordBound(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	l := &Ledger{Store: ms, MaxRecords: 5}
	for i := 0; i < 8; i++ {
		if err := l.RecordFeedback(ctx, "u1", "p1", TypeInterested); err != nil {
			t.Fatalf("RecordFeedback 失败: %v", err)
		}
	}
	history, err := l.FeedbackHistory(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("FeedbackHistory 失败: %v", err)
	}
	if len(history) != 5 {
		t.Errorf("期望截断到 5 条，实际得到 %d 条", len(history))
	}
}

// TestLedger_GlobalStats 测试全局统计计数器
func TestLedger_GlobalStats(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	l := NewLedger(ms)
	_ = l.RecordClick(ctx, "u1", "p1")
	_ = l.RecordClick(ctx, "u2", "p2")
	_ = l.RecordFeedback(ctx, "u1", "p1", TypeInterested)
	_ = l.RecordFeedback(ctx, "u2", "p2", TypeNotInterested)

	stats, err := l.StatsGlobal(ctx)
	if err != nil {
		t.Fatalf("StatsGlobal 失败: %v", err)
	}
	if stats.TotalClicks != 2 {
		t.Errorf("期望 2 次点击，实际得到 %d", stats.TotalClicks)
	}
	if stats.TotalInterested != 1 || stats.TotalNotInterested != 1 || stats.TotalFeedback != 2 {
		t.Errorf("全局反馈统计不符: %+v", stats)
	}
	if stats.SatisfactionRate != 0.5 {
		t.Errorf("期望满意度 0.5，实际得到 %v", stats.SatisfactionRate)
	}
}

// TestLedger_ClearUser 测试清除用户数据
func TestLedger_ClearUser(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	l := NewLedger(ms)
	_ = l.RecordClick(ctx, "u1", "p1")
	_ = l.RecordFeedback(ctx, "u1", "p1", TypeInterested)

	if err := l.ClearUser(ctx, "u1"); err != nil {
		t.Fatalf("ClearUser 失败: %v", err)
	}
	stats, _ := l.StatsForUser(ctx, "u1")
	if stats.TotalFeedback != 0 || stats.TotalClicks != 0 {
		t.Errorf("清除后期望零统计，实际得到 %+v", stats)
	}
}
