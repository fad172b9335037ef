package dsl

import (
	"testing"

	"github.com/shopwise/recsys/core"
)

// TestEval_Matches 测试常见过滤表达式
func TestEval_Matches(t *testing.T) {
	rec := &core.Recommendation{
		ItemID:   "p1",
		Name:     "iPhone 15",
		Price:    5999,
		Category: "手机",
		Brand:    "Apple",
		Score:    2.3,
		Source:   core.SourceHybrid,
	}
	query := &core.Query{UserID: "u1", Algorithm: core.AlgorithmHybrid, Category: "手机"}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"价格下限", "item.price < 2000", false},
		{"价格上限", "item.price < 10000", true},
		{"品牌匹配", `item.brand == "Apple"`, true},
		{"类别与价格组合", `item.category == "手机" && item.price > 5000`, true},
		{"来源", `item.source == "hybrid"`, true},
		{"分数阈值", "item.score > 3.0", false},
		{"引用查询上下文", `query.category == item.category`, true},
		{"字符串函数", `item.name.contains("iPhone")`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := NewEval(tt.expr)
			if err != nil {
				t.Fatalf("编译失败: %v", err)
			}
			got, err := ev.Matches(rec, query)
			if err != nil {
				t.Fatalf("求值失败: %v", err)
			}
			if got != tt.want {
				t.Errorf("%s 期望 %v，实际得到 %v", tt.expr, tt.want, got)
			}
		})
	}
}

// TestNewEval_CompileError 测试语法错误在编译期暴露
func TestNewEval_CompileError(t *testing.T) {
	if _, err := NewEval("item.price <"); err == nil {
		t.Error("期望编译错误")
	}
	if _, err := NewEval(""); err == nil {
		t.Error("空表达式期望编译错误")
	}
}

// TestEval_NonBoolean 测试非布尔结果报错
func TestEval_NonBoolean(t *testing.T) {
	ev, err := NewEval("item.price")
	if err != nil {
		t.Fatalf("编译失败: %v", err)
	}
	if _, err := ev.Matches(&core.Recommendation{Price: 100}, nil); err == nil {
		t.Error("非布尔表达式期望求值错误")
	}
}
