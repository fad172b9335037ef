package rerank

import (
	"context"

	"github.com/shopwise/recsys/core"
	"github.com/shopwise/recsys/pipeline"
)

// TopN 是 Top-N 截断节点，在过滤之后限制最终返回的结果数量。
//
// 使用场景：
//   - 混合召回多取候选（limit/2+2 两路），最终只返回 limit 条
//   - 配合类别/表达式过滤使用，过滤后再截断
type TopN struct {
	// N 要保留的结果数量（Top N）
	// 如果 N <= 0，则返回所有结果（不截断）
	N int
}

func (n *TopN) Name() string        { return "rerank.topn" }
func (n *TopN) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopN) Process(
	_ context.Context,
	_ *core.Query,
	items []*core.Recommendation,
) ([]*core.Recommendation, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
