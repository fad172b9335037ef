package behavior

import (
	"context"

	"github.com/shopwise/recsys/core"
)

// Analyzer 从浏览历史推导用户偏好画像。
//
// 画像每次调用即时重建，不落盘。没有历史（或存储读取失败）时
// 返回空画像——这是冷启动的统一信号，内容召回据此走热门兜底。
type Analyzer struct {
	Events *EventStore

	// Window 参与分析的最近事件条数上限，默认 50。
	// 注意：事件日志本身只保留最近 10 条，窗口大于保留深度时
	// 实际参与分析的仍是保留下来的部分。
	Window int
}

func NewAnalyzer(events *EventStore) *Analyzer {
	return &Analyzer{Events: events}
}

func (a *Analyzer) window() int {
	if a.Window > 0 {
		return a.Window
	}
	return 50
}

// Build 统计类别、品牌、价格区间的出现次数，返回偏好画像。
// 存储不可用时按冷启动处理，不向上抛错。
func (a *Analyzer) Build(ctx context.Context, userID string) *core.PreferenceProfile {
	profile := core.NewPreferenceProfile()
	if a.Events == nil || userID == "" {
		return profile
	}

	history, err := a.Events.History(ctx, userID, a.window())
	if err != nil || len(history) == 0 {
		return profile
	}

	for _, ev := range history {
		if ev.Category != "" {
			profile.Categories[ev.Category]++
		}
		if ev.Brand != "" {
			profile.Brands[ev.Brand]++
		}
		profile.PriceRanges[core.PriceRangeOf(ev.Price)]++
	}
	profile.TotalViews = len(history)
	return profile
}
