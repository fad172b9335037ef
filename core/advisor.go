package core

import "context"

// Advisor 是导购问答的领域接口，由外部文本生成服务实现。
//
// 约束：
//   - 严格可选：Explain 失败或超时不影响推荐排序与分数
//   - 调用方必须带截止时间（默认 30s），超时按无建议处理
type Advisor interface {
	// Explain 基于用户问题与已排序的推荐列表生成导购建议文本。
	// 只产出解释性文案，不改变排序。
	Explain(ctx context.Context, question string, items []*Recommendation) (string, error)
}
