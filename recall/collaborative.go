package recall

import (
	"context"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/shopwise/recsys/behavior"
	"github.com/shopwise/recsys/core"
)

// 降级信号：协同过滤数据不足时由调用方换内容推荐，不是硬失败。
var (
	ErrInsufficientHistory = core.NewDomainError(core.ModuleRecall, core.ErrorCodeDegraded,
		"recall: not enough history for collaborative filtering")
	ErrNoSimilarUsers = core.NewDomainError(core.ModuleRecall, core.ErrorCodeDegraded,
		"recall: no similar users qualified")
)

// UserSimilarity 是一对用户的相似度，请求时即时计算，从不落盘。
type UserSimilarity struct {
	UserID string
	Score  float64
}

// CollaborativeRecall 是基于用户的协同过滤召回源（User-based CF）。
//
// 核心思想："兴趣相似的用户，喜欢相似的商品"
//
// 算法流程：
//  1. 找相似用户：候选 = 浏览过目标用户历史商品的其他用户；
//     对每对用户计算 similarity = 0.6·Jaccard + 0.4·Cosine + 共同商品加成，
//     要求交集 ≥ MinCommonItems 且 similarity > SimilarityThreshold，取前 10
//  2. 聚合候选商品：取前 8 个相似用户 30 天内的浏览（排除目标已看过的），
//     按 相似度 × (1+频次权重) × 时间衰减 累加
//  3. 流行度调整：按 7 天全局浏览量乘 [0.7, 1.0] 区间的权重，
//     避免过度推荐冷门商品
//
// 历史不足 2 条或没有合格相似用户时返回 DEGRADED，调用方回退内容推荐。
type CollaborativeRecall struct {
	Events  *behavior.EventStore
	Catalog core.Catalog

	// MinCommonItems 计算相似度要求的最少共同商品数，默认 2
	MinCommonItems int

	// TopKSimilarUsers 保留的相似用户数，默认 10
	TopKSimilarUsers int

	// ContributingUsers 参与分数聚合的相似用户数，默认 8
	ContributingUsers int

	// SimilarityThreshold 相似度阈值，默认 0.1
	SimilarityThreshold float64

	// WindowDays 行为时间窗口（天），默认 30
	WindowDays int

	// PopularityDays 流行度统计窗口（天），默认 7
	PopularityDays int
}

func (r *CollaborativeRecall) Name() string { return "recall.u2i" }

func (r *CollaborativeRecall) minCommonItems() int {
	if r.MinCommonItems > 0 {
		return r.MinCommonItems
	}
	return 2
}

func (r *CollaborativeRecall) topKSimilarUsers() int {
	if r.TopKSimilarUsers > 0 {
		return r.TopKSimilarUsers
	}
	return 10
}

func (r *CollaborativeRecall) contributingUsers() int {
	if r.ContributingUsers > 0 {
		return r.ContributingUsers
	}
	return 8
}

func (r *CollaborativeRecall) similarityThreshold() float64 {
	if r.SimilarityThreshold > 0 {
		return r.SimilarityThreshold
	}
	return 0.1
}

func (r *CollaborativeRecall) windowDays() int {
	if r.WindowDays > 0 {
		return r.WindowDays
	}
	return 30
}

func (r *CollaborativeRecall) popularityDays() int {
	if r.PopularityDays > 0 {
		return r.PopularityDays
	}
	return 7
}

// SimilarUsers 在浏览过目标用户历史商品的用户中计算两两相似度，
// 返回按相似度降序的前 TopKSimilarUsers 个用户。
func (r *CollaborativeRecall) SimilarUsers(
	ctx context.Context,
	userID string,
	history []string,
) ([]UserSimilarity, error) {
	targetSet := make(map[string]struct{}, len(history))
	for _, id := range history {
		targetSet[id] = struct{}{}
	}

	// 候选用户 = 浏览过任一目标历史商品的用户
	candidates := make(map[string]struct{})
	for _, itemID := range history {
		viewers, err := r.Events.ItemViewers(ctx, itemID, r.windowDays())
		if err != nil {
			continue
		}
		for _, uid := range viewers {
			if uid != userID {
				candidates[uid] = struct{}{}
			}
		}
	}

	similarities := make([]UserSimilarity, 0, len(candidates))
	for otherID := range candidates {
		otherItems, err := r.Events.RecentItemIDs(ctx, otherID, r.windowDays())
		if err != nil || len(otherItems) == 0 {
			continue
		}
		otherSet := make(map[string]struct{}, len(otherItems))
		for _, id := range otherItems {
			otherSet[id] = struct{}{}
		}

		intersection := 0
		for id := range targetSet {
			if _, ok := otherSet[id]; ok {
				intersection++
			}
		}
		if intersection < r.minCommonItems() {
			continue
		}
		union := len(targetSet) + len(otherSet) - intersection

		jaccard := float64(intersection) / float64(union)
		cosine := float64(intersection) /
			(math.Sqrt(float64(len(targetSet))) * math.Sqrt(float64(len(otherSet))))

		// 综合相似度 + 共同商品数加成（最多额外 20%）
		similarity := 0.6*jaccard + 0.4*cosine
		similarity += math.Min(float64(intersection)/10, 0.2)

		if similarity > r.similarityThreshold() {
			similarities = append(similarities, UserSimilarity{UserID: otherID, Score: similarity})
		}
	}

	// 稳定排序：同分按用户 ID，保证结果可复现
	sort.Slice(similarities, func(i, j int) bool {
		if similarities[i].Score != similarities[j].Score {
			return similarities[i].Score > similarities[j].Score
		}
		return similarities[i].UserID < similarities[j].UserID
	})
	if len(similarities) > r.topKSimilarUsers() {
		similarities = similarities[:r.topKSimilarUsers()]
	}
	return similarities, nil
}

// Recommend 产出协同过滤推荐。
func (r *CollaborativeRecall) Recommend(
	ctx context.Context,
	userID string,
	limit int,
) ([]*core.Recommendation, error) {
	if r.Events == nil || r.Catalog == nil || userID == "" {
		return nil, ErrInsufficientHistory
	}
	if limit <= 0 {
		limit = 10
	}

	history, err := r.Events.RecentItemIDs(ctx, userID, r.windowDays())
	if err != nil || len(history) < 2 {
		return nil, ErrInsufficientHistory
	}
	targetSet := make(map[string]struct{}, len(history))
	for _, id := range history {
		targetSet[id] = struct{}{}
	}

	similarUsers, err := r.SimilarUsers(ctx, userID, history)
	if err != nil || len(similarUsers) == 0 {
		return nil, ErrNoSimilarUsers
	}

	// 聚合相似用户的浏览，考虑频次与时间衰减
	now := time.Now()
	window := time.Duration(r.windowDays()) * 24 * time.Hour
	scores := make(map[string]float64)

	contributing := similarUsers
	if len(contributing) > r.contributingUsers() {
		contributing = contributing[:r.contributingUsers()]
	}
	for _, neighbor := range contributing {
		events, err := r.Events.History(ctx, neighbor.UserID, 0)
		if err != nil {
			continue
		}

		type itemStat struct {
			count      int
			lastViewed time.Time
		}
		stats := make(map[string]*itemStat)
		for _, ev := range events {
			if now.Sub(ev.ViewedAt) > window {
				continue
			}
			if _, ok := targetSet[ev.ItemID]; ok {
				continue // 只推荐目标用户没看过的商品
			}
			st := stats[ev.ItemID]
			if st == nil {
				st = &itemStat{}
				stats[ev.ItemID] = st
			}
			st.count++
			if ev.ViewedAt.After(st.lastViewed) {
				st.lastViewed = ev.ViewedAt
			}
		}

		for itemID, st := range stats {
			// 浏览频次加权（最多额外 50%）
			frequencyWeight := math.Min(float64(st.count)/5, 0.5)
			// 时间衰减：30 天内线性衰减，下限 0.1
			daysAgo := now.Sub(st.lastViewed).Hours() / 24
			timeWeight := math.Max(0.1, 1-daysAgo/float64(r.windowDays()))

			scores[itemID] += neighbor.Score * (1 + frequencyWeight) * timeWeight
		}
	}
	if len(scores) == 0 {
		return nil, ErrNoSimilarUsers
	}

	// 候选排序，多取一倍再做流行度调整
	type scoredItem struct {
		itemID string
		score  float64
	}
	ranked := make([]scoredItem, 0, len(scores))
	for id, s := range scores {
		ranked = append(ranked, scoredItem{itemID: id, score: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].itemID < ranked[j].itemID
	})
	if len(ranked) > limit*2 {
		ranked = ranked[:limit*2]
	}

	// 相似用户中浏览过该商品的人数（用于推荐理由）
	neighborItems := make(map[string]map[string]struct{}, len(similarUsers))
	for _, sim := range similarUsers {
		ids, err := r.Events.RecentItemIDs(ctx, sim.UserID, r.windowDays())
		if err != nil {
			continue
		}
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		neighborItems[sim.UserID] = set
	}

	out := make([]*core.Recommendation, 0, len(ranked))
	for _, s := range ranked {
		item, err := r.Catalog.LookupItem(ctx, s.itemID)
		if err != nil {
			continue // 商品已下架等，跳过
		}

		// 流行度加权（0.7-1.0 之间，避免过度推荐冷门商品）
		views, _ := r.Catalog.RecentGlobalViews(ctx, s.itemID, r.popularityDays())
		popularityWeight := math.Min(float64(views)/100, 0.3) + 0.7

		viewerCount := 0
		for _, set := range neighborItems {
			if _, ok := set[s.itemID]; ok {
				viewerCount++
			}
		}

		rec := core.NewRecommendation(item)
		rec.Score = s.score * popularityWeight
		rec.Source = core.SourceCollaborative
		rec.Reason = strconv.Itoa(viewerCount) + "位兴趣相似的用户都浏览过这款" + item.Category + "商品"
		if item.IsHot {
			rec.Reason += "，而且是热门商品"
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
