package pipeline

import (
	"context"

	"github.com/shopwise/recsys/core"
)

// Pipeline 把推荐结果的后处理拆成可组合的 Node 链（过滤 → 重排 → 后处理）。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	query *core.Query,
	items []*core.Recommendation,
) ([]*core.Recommendation, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, query, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
