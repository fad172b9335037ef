package filter

import (
	"context"

	"github.com/shopwise/recsys/core"
	"github.com/shopwise/recsys/dsl"
	"github.com/shopwise/recsys/pipeline"
)

// Expr 按查询携带的 CEL 表达式过滤推荐结果，例如 `item.price < 2000`。
// 表达式为空时原样透传；编译失败按 INVALID_INPUT 拒绝，不做部分计算。
type Expr struct{}

func (f *Expr) Name() string        { return "filter.expr" }
func (f *Expr) Kind() pipeline.Kind { return pipeline.KindFilter }

func (f *Expr) Process(
	_ context.Context,
	query *core.Query,
	items []*core.Recommendation,
) ([]*core.Recommendation, error) {
	if query == nil || query.Filter == "" {
		return items, nil
	}

	ev, err := dsl.NewEval(query.Filter)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"filter: invalid expression: "+err.Error())
	}

	out := make([]*core.Recommendation, 0, len(items))
	for _, it := range items {
		ok, err := ev.Matches(it, query)
		if err != nil {
			// 单条求值失败只丢弃该条，不中断整个结果集
			continue
		}
		if ok {
			out = append(out, it)
		}
	}
	return out, nil
}
