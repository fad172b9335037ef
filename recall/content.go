package recall

import (
	"context"
	"sort"
	"strings"

	"github.com/shopwise/recsys/behavior"
	"github.com/shopwise/recsys/core"
)

// ContentRecall 是基于内容的召回源（Content-Based Recommendation）。
//
// 核心思想："用户偏好某些类别/品牌/价位的商品，推荐具有相同特征的其他商品"
//
// 算法流程：
//  1. 取画像中计数最高的前 3 个类别与前 3 个品牌
//  2. 候选集 = 类别或品牌命中的目录商品，排除最近 30 天浏览过的
//  3. 逐个候选按画像直方图加权打分（计数直接参与，不归一化）
//  4. 按分数降序截断
//
// 冷启动（空画像）不是错误：直接返回热门商品兜底集合。
type ContentRecall struct {
	Catalog core.Catalog
	Events  *behavior.EventStore

	// TopCategories/TopBrands 参与候选查询的偏好维度数量，默认各 3
	TopCategories int
	TopBrands     int

	// SeenWindowDays 已浏览排除窗口（天），默认 30
	SeenWindowDays int

	// 打分权重。零值使用默认：类别 0.4、品牌 0.3、价位 0.2、热门加分 0.1
	CategoryWeight float64
	BrandWeight    float64
	PriceWeight    float64
	HotBonus       float64
}

func (r *ContentRecall) Name() string { return "recall.content" }

func (r *ContentRecall) topCategories() int {
	if r.TopCategories > 0 {
		return r.TopCategories
	}
	return 3
}

func (r *ContentRecall) topBrands() int {
	if r.TopBrands > 0 {
		return r.TopBrands
	}
	return 3
}

func (r *ContentRecall) seenWindowDays() int {
	if r.SeenWindowDays > 0 {
		return r.SeenWindowDays
	}
	return 30
}

func (r *ContentRecall) weights() (cat, brand, price, hot float64) {
	cat, brand, price, hot = r.CategoryWeight, r.BrandWeight, r.PriceWeight, r.HotBonus
	if cat == 0 {
		cat = 0.4
	}
	if brand == 0 {
		brand = 0.3
	}
	if price == 0 {
		price = 0.2
	}
	if hot == 0 {
		hot = 0.1
	}
	return
}

// Recommend 基于偏好画像产出内容推荐。画像为空时返回热门兜底。
func (r *ContentRecall) Recommend(
	ctx context.Context,
	userID string,
	profile *core.PreferenceProfile,
	limit int,
) ([]*core.Recommendation, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	// 冷启动：无画像直接走热门兜底，不打偏好分
	if profile.Empty() {
		hot := &Hot{Catalog: r.Catalog}
		return hot.Recommend(ctx, limit)
	}

	// 已浏览排除。存储读取失败按空处理，不中断召回。
	var seen []string
	if r.Events != nil {
		seen, _ = r.Events.RecentItemIDs(ctx, userID, r.seenWindowDays())
	}

	// 候选集：偏好类别 OR 偏好品牌，多取一倍用于打分筛选
	candidates, err := r.Catalog.QueryItems(ctx, core.ItemFilter{
		Categories: profile.TopCategories(r.topCategories()),
		Brands:     profile.TopBrands(r.topBrands()),
		Exclude:    seen,
		Limit:      limit * 2,
	})
	if err != nil {
		// 候选查询失败降一档走热门；目录整体不可达时由热门一路给出降级信号
		hot := &Hot{Catalog: r.Catalog}
		return hot.Recommend(ctx, limit)
	}

	out := make([]*core.Recommendation, 0, len(candidates))
	for _, item := range candidates {
		rec := core.NewRecommendation(item)
		rec.Score = r.score(item, profile)
		rec.Source = core.SourceContent
		rec.Reason = r.reason(item, profile)
		out = append(out, rec)
	}

	// 稳定排序：同分保持目录迭代顺序
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// score 按画像直方图加权打分，计数不做归一化。
func (r *ContentRecall) score(item *core.CatalogItem, profile *core.PreferenceProfile) float64 {
	catW, brandW, priceW, hotBonus := r.weights()

	var score float64
	if n, ok := profile.Categories[item.Category]; ok {
		score += float64(n) * catW
	}
	if n, ok := profile.Brands[item.Brand]; ok {
		score += float64(n) * brandW
	}
	if n, ok := profile.PriceRanges[core.PriceRangeOf(item.Price)]; ok {
		score += float64(n) * priceW
	}
	if item.IsHot {
		score += hotBonus
	}
	return score
}

// reason 列出命中的推荐信号，一个都没有时给通用文案。
func (r *ContentRecall) reason(item *core.CatalogItem, profile *core.PreferenceProfile) string {
	reasons := make([]string, 0, 3)
	if _, ok := profile.Categories[item.Category]; ok && item.Category != "" {
		reasons = append(reasons, "您经常浏览"+item.Category+"类商品")
	}
	if _, ok := profile.Brands[item.Brand]; ok && item.Brand != "" {
		reasons = append(reasons, "您对"+item.Brand+"品牌感兴趣")
	}
	if item.IsHot {
		reasons = append(reasons, "这是热门商品")
	}
	if len(reasons) == 0 {
		return "为您推荐的精选商品"
	}
	return strings.Join(reasons, "；")
}
