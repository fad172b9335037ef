package recall

import (
	"context"

	"github.com/shopwise/recsys/core"
)

// Hot 是热门商品兜底召回源。
// 冷启动用户（无任何行为画像）统一落到这里，分数固定为 1.0，
// 不做任何偏好加权。
type Hot struct {
	Catalog core.Catalog
}

func (r *Hot) Name() string { return "recall.hot" }

func (r *Hot) Recommend(ctx context.Context, limit int) ([]*core.Recommendation, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	items, err := r.Catalog.HotItems(ctx, limit)
	if err != nil {
		// 目录不可达是降级信号，调用方收敛到空结果而不是硬失败
		return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeDegraded,
			"recall: hot items unavailable: "+err.Error())
	}
	out := make([]*core.Recommendation, 0, len(items))
	for _, item := range items {
		rec := core.NewRecommendation(item)
		rec.Score = 1.0
		rec.Source = core.SourceContent
		rec.Reason = "热门推荐商品"
		out = append(out, rec)
	}
	return out, nil
}
