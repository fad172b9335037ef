package engine

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/shopwise/recsys/behavior"
	"github.com/shopwise/recsys/cache"
	"github.com/shopwise/recsys/core"
	"github.com/shopwise/recsys/filter"
	"github.com/shopwise/recsys/pipeline"
	"github.com/shopwise/recsys/recall"
	"github.com/shopwise/recsys/rerank"
)

// Engine 是推荐引擎的组装层：召回 → 融合 → 后处理 → 缓存。
// 所有依赖通过字段显式注入，不持有任何全局状态。
//
// 降级链：协同过滤数据不足（DEGRADED）时回退内容推荐，
// 内容推荐无画像或目录失败时由召回层回退热门，热门也不可达时
// 收敛到空结果。降级不产生硬失败。
type Engine struct {
	Events   *behavior.EventStore
	Profiles *behavior.Analyzer
	Content  *recall.ContentRecall
	Collab   *recall.CollaborativeRecall
	Cache    *cache.ResultCache

	// Advisor 可选：导购问答的文本生成服务，缺省时 Ask 只返回推荐列表
	Advisor core.Advisor

	// Conversations 可选：问答记录持久化，缺省时不落盘
	Conversations *ConversationLog

	Logger zerolog.Logger

	// ContentWeight/CollabWeight 混合融合权重，默认 0.6 / 0.4
	ContentWeight float64
	CollabWeight  float64

	// AdvisorTimeout 单次问答调用的截止时间，默认 30s
	AdvisorTimeout time.Duration
}

const defaultLimit = 10

func (e *Engine) contentWeight() float64 {
	if e.ContentWeight <= 0 {
		return 0.6
	}
	return e.ContentWeight
}

func (e *Engine) collabWeight() float64 {
	if e.CollabWeight <= 0 {
		return 0.4
	}
	return e.CollabWeight
}

func (e *Engine) advisorTimeout() time.Duration {
	if e.AdvisorTimeout <= 0 {
		return 30 * time.Second
	}
	return e.AdvisorTimeout
}

// ContentBased 基于用户偏好画像的内容推荐。无画像时召回层回退热门；
// 目录不可达时收敛到空结果，不向调用方抛硬错误。
func (e *Engine) ContentBased(ctx context.Context, userID string, limit int) ([]*core.Recommendation, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	profile := e.Profiles.Build(ctx, userID)
	items, err := e.Content.Recommend(ctx, userID, profile, limit)
	if err != nil {
		if !core.IsDegraded(err) {
			return nil, err
		}
		e.Logger.Warn().Str("user_id", userID).Err(err).
			Msg("content recall degraded, returning empty set")
		return nil, nil
	}
	return items, nil
}

// Collaborative 协同过滤推荐，历史不足或找不到相似用户时降级为内容推荐。
func (e *Engine) Collaborative(ctx context.Context, userID string, limit int) ([]*core.Recommendation, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	items, err := e.Collab.Recommend(ctx, userID, limit)
	if err != nil {
		if !core.IsDegraded(err) {
			return nil, err
		}
		e.Logger.Debug().Str("user_id", userID).Err(err).
			Msg("collaborative degraded, falling back to content")
		return e.ContentBased(ctx, userID, limit)
	}
	return items, nil
}

// Hybrid 混合推荐：两路各取 limit/2+2 条并行召回，按商品 ID 融合加权。
// 两路都命中的商品标记 hybrid 来源。
func (e *Engine) Hybrid(ctx context.Context, userID string, limit int) ([]*core.Recommendation, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	tierLimit := limit/2 + 2

	var contentItems, collabItems []*core.Recommendation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := e.ContentBased(gctx, userID, tierLimit)
		if err != nil {
			return err
		}
		contentItems = items
		return nil
	})
	g.Go(func() error {
		items, err := e.Collab.Recommend(gctx, userID, tierLimit)
		if err != nil {
			// 协同这一路降级时不贡献候选，由内容一路兜底
			if core.IsDegraded(err) {
				return nil
			}
			return err
		}
		collabItems = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := e.merge(contentItems, collabItems)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// merge 按商品 ID 融合两路结果：
// 内容得分 ×0.6 + 协同得分 ×0.4，只命中一路则只计该路加权分。
func (e *Engine) merge(contentItems, collabItems []*core.Recommendation) []*core.Recommendation {
	cw, kw := e.contentWeight(), e.collabWeight()

	index := make(map[string]*core.Recommendation, len(contentItems)+len(collabItems))
	order := make([]*core.Recommendation, 0, len(contentItems)+len(collabItems))

	for _, it := range contentItems {
		cp := *it
		cp.Score = it.Score * cw
		cp.Source = core.SourceContent
		index[cp.ItemID] = &cp
		order = append(order, &cp)
	}
	for _, it := range collabItems {
		if existing, ok := index[it.ItemID]; ok {
			existing.Score += it.Score * kw
			existing.Source = core.SourceHybrid
			continue
		}
		cp := *it
		cp.Score = it.Score * kw
		cp.Source = core.SourceCollaborative
		index[cp.ItemID] = &cp
		order = append(order, &cp)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Score > order[j].Score
	})
	return order
}

// Recommend 处理一次完整的推荐请求：校验 → 查缓存 → 召回融合 → 后处理 → 回填缓存。
//
// 只有默认形态的请求（混合算法、无类别/表达式过滤）走缓存，
// 带过滤条件的请求每次实时计算。缓存写入失败只记日志，不影响返回。
func (e *Engine) Recommend(ctx context.Context, query *core.Query) ([]*core.Recommendation, error) {
	if query == nil || query.UserID == "" {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"engine: user_id is required")
	}
	if query.Algorithm == "" {
		query.Algorithm = core.AlgorithmHybrid
	}
	if !query.Algorithm.Valid() {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"engine: unknown algorithm: "+string(query.Algorithm))
	}
	if query.Limit <= 0 {
		query.Limit = defaultLimit
	}

	cacheable := query.Algorithm == core.AlgorithmHybrid &&
		query.Category == "" && query.Filter == "" && e.Cache != nil
	if cacheable {
		if result, ok := e.Cache.Get(ctx, query.UserID); ok {
			items := result.Items
			if len(items) > query.Limit {
				items = items[:query.Limit]
			}
			return items, nil
		}
	}

	var (
		items []*core.Recommendation
		err   error
	)
	switch query.Algorithm {
	case core.AlgorithmContent:
		items, err = e.ContentBased(ctx, query.UserID, query.Limit)
	case core.AlgorithmCollaborative:
		items, err = e.Collaborative(ctx, query.UserID, query.Limit)
	default:
		items, err = e.Hybrid(ctx, query.UserID, query.Limit)
	}
	if err != nil {
		return nil, err
	}

	post := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&filter.Category{},
		&filter.Expr{},
		&rerank.TopN{N: query.Limit},
	}}
	items, err = post.Run(ctx, query, items)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := e.Cache.Put(ctx, query.UserID, items); err != nil {
			e.Logger.Warn().Str("user_id", query.UserID).Err(err).
				Msg("cache write failed")
		}
	}
	return items, nil
}

// InvalidateCache 清除单个用户的推荐缓存（例如行为写入后主动失效）。
func (e *Engine) InvalidateCache(ctx context.Context, userID string) {
	if e.Cache == nil {
		return
	}
	if err := e.Cache.Clear(ctx, userID); err != nil {
		e.Logger.Warn().Str("user_id", userID).Err(err).Msg("cache invalidate failed")
	}
}
