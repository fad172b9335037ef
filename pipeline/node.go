package pipeline

import (
	"context"

	"github.com/shopwise/recsys/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不符合约束的结果
	KindReRank      Kind = "rerank"      // 重排阶段：截断/多样性等业务调优
	KindPostProcess Kind = "postprocess" // 后处理阶段：最终结果修饰
)

// Node 是后处理链的最小可扩展单元。
// 统一采用“输入 items -> 输出 items”的形态，方便过滤、截断、重排等操作。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		query *core.Query,
		items []*core.Recommendation,
	) ([]*core.Recommendation, error)
}
