package filter

import (
	"context"

	"github.com/shopwise/recsys/core"
	"github.com/shopwise/recsys/pipeline"
)

// Category 按查询指定的类别收窄推荐结果。
// 查询未指定类别时原样透传。
type Category struct{}

func (f *Category) Name() string        { return "filter.category" }
func (f *Category) Kind() pipeline.Kind { return pipeline.KindFilter }

func (f *Category) Process(
	_ context.Context,
	query *core.Query,
	items []*core.Recommendation,
) ([]*core.Recommendation, error) {
	if query == nil || query.Category == "" {
		return items, nil
	}
	out := make([]*core.Recommendation, 0, len(items))
	for _, it := range items {
		if it.Category == query.Category {
			out = append(out, it)
		}
	}
	return out, nil
}
