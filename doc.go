// Package recsys 是一个商品推荐与用户行为信号服务。
//
// 设计要点：
// - 行为先行: 有界的按用户浏览日志（最多 10 条、30 天 TTL）驱动偏好画像
// - 双路召回: 内容匹配 + 用户协同过滤，按 0.6/0.4 固定权重混合
// - 显式降级: 协同 → 内容 → 热门，每档是带类型的结果而非异常兜底
// - 结果缓存: 按用户整体写入，1 小时 TTL，被动过期
package recsys

import "github.com/shopwise/recsys/pipeline"

// 轻量 facade：便于用户直接 import "recsys" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
