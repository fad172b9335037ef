package feedback

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopwise/recsys/core"
)

// 反馈类型
const (
	TypeInterested    = "interested"
	TypeNotInterested = "not_interested"
)

const (
	globalClicksKey       = "rec:clicks:global"
	userClicksKeyPrefix   = "rec:clicks:"
	userFeedbackKeyPrefix = "rec:feedback:"
	globalFeedbackPrefix  = "feedback:global:"
	userStatsKeyPrefix    = "feedback:stats:"
	globalStatsKey        = "rec:stats:global"
)

// Record 是一条显式反馈流水。
type Record struct {
	ItemID    string    `json:"product_id"`
	Type      string    `json:"feedback_type"`
	CreatedAt time.Time `json:"timestamp"`
}

// Ledger 是点击与反馈的追加式账本：全局与按用户两级计数，
// 外加每用户有界的反馈流水（上限 100 条）。
//
// TTL 约定：全局聚合 90 天，按用户数据 30 天，各自独立。
// 全局统计用增量维护的计数器，不做 key 扫描。
type Ledger struct {
	Store core.KeyValueStore

	// UserRetention 按用户数据的保留时长，默认 30 天
	UserRetention time.Duration

	// GlobalRetention 全局聚合的保留时长，默认 90 天
	GlobalRetention time.Duration

	// MaxRecords 每用户反馈流水上限，默认 100
	MaxRecords int
}

func NewLedger(s core.KeyValueStore) *Ledger {
	return &Ledger{Store: s}
}

func (l *Ledger) userRetention() time.Duration {
	if l.UserRetention > 0 {
		return l.UserRetention
	}
	return 30 * 24 * time.Hour
}

func (l *Ledger) globalRetention() time.Duration {
	if l.GlobalRetention > 0 {
		return l.GlobalRetention
	}
	return 90 * 24 * time.Hour
}

func (l *Ledger) maxRecords() int {
	if l.MaxRecords > 0 {
		return l.MaxRecords
	}
	return 100
}

// RecordClick 记录一次推荐点击：全局计数 + 用户个人计数。
func (l *Ledger) RecordClick(ctx context.Context, userID, itemID string) error {
	if _, err := l.Store.ZIncrBy(ctx, globalClicksKey, 1, itemID); err != nil {
		return err
	}
	_ = l.Store.Expire(ctx, globalClicksKey, l.globalRetention())

	userKey := userClicksKeyPrefix + userID
	if _, err := l.Store.ZIncrBy(ctx, userKey, 1, itemID); err != nil {
		return err
	}
	_ = l.Store.Expire(ctx, userKey, l.userRetention())

	_, _ = l.Store.HIncrBy(ctx, globalStatsKey, "total_clicks", 1)
	return nil
}

// RecordFeedback 记录一条显式反馈：追加到用户流水（截断到上限），
// 并累加全局按类型聚合与用户个人计数。
func (l *Ledger) RecordFeedback(ctx context.Context, userID, itemID, feedbackType string) error {
	if feedbackType != TypeInterested && feedbackType != TypeNotInterested {
		return core.NewDomainError(core.ModuleBehavior, core.ErrorCodeInvalidInput,
			"feedback: unknown feedback type "+feedbackType)
	}

	record := Record{ItemID: itemID, Type: feedbackType, CreatedAt: time.Now()}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	listKey := userFeedbackKeyPrefix + userID
	if err := l.Store.LPush(ctx, listKey, data); err != nil {
		return err
	}
	_ = l.Store.LTrim(ctx, listKey, 0, int64(l.maxRecords()-1))
	_ = l.Store.Expire(ctx, listKey, l.userRetention())

	globalKey := globalFeedbackPrefix + feedbackType
	if _, err := l.Store.ZIncrBy(ctx, globalKey, 1, itemID); err == nil {
		_ = l.Store.Expire(ctx, globalKey, l.globalRetention())
	}

	statsKey := userStatsKeyPrefix + userID
	_, _ = l.Store.HIncrBy(ctx, statsKey, feedbackType, 1)
	_, _ = l.Store.HIncrBy(ctx, statsKey, "total_feedback", 1)
	_ = l.Store.Expire(ctx, statsKey, l.userRetention())

	_, _ = l.Store.HIncrBy(ctx, globalStatsKey, "feedback_"+feedbackType, 1)
	return nil
}

// ClickedItem 是点击排行中的一项。
type ClickedItem struct {
	ItemID     string `json:"product_id"`
	ClickCount int    `json:"click_count"`
}

// TopClicked 返回全局点击量最高的商品。
func (l *Ledger) TopClicked(ctx context.Context, limit int) ([]ClickedItem, error) {
	if limit <= 0 {
		limit = 20
	}
	members, err := l.Store.ZRevRange(ctx, globalClicksKey, 0, int64(limit-1))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]ClickedItem, 0, len(members))
	for _, m := range members {
		out = append(out, ClickedItem{ItemID: m.Member, ClickCount: int(m.Score)})
	}
	return out, nil
}

// FeedbackHistory 返回用户最近的反馈流水。
func (l *Ledger) FeedbackHistory(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = l.maxRecords()
	}
	rows, err := l.Store.LRange(ctx, userFeedbackKeyPrefix+userID, 0, int64(limit-1))
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		var r Record
		if json.Unmarshal(row, &r) != nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// UserStats 是单个用户的推荐互动统计。
type UserStats struct {
	InterestedCount    int     `json:"interested_count"`
	NotInterestedCount int     `json:"not_interested_count"`
	TotalFeedback      int     `json:"total_feedback"`
	TotalClicks        int     `json:"total_clicks"`
	SatisfactionRate   float64 `json:"satisfaction_rate"`
}

// StatsForUser 返回用户的反馈与点击统计。
func (l *Ledger) StatsForUser(ctx context.Context, userID string) (*UserStats, error) {
	stats := &UserStats{}

	fields, err := l.Store.HGetAll(ctx, userStatsKeyPrefix+userID)
	if err == nil {
		stats.InterestedCount = atoi(fields[TypeInterested])
		stats.NotInterestedCount = atoi(fields[TypeNotInterested])
		stats.TotalFeedback = atoi(fields["total_feedback"])
	}

	if clicks, err := l.Store.ZCard(ctx, userClicksKeyPrefix+userID); err == nil {
		stats.TotalClicks = int(clicks)
	}
	if stats.TotalFeedback > 0 {
		stats.SatisfactionRate = float64(stats.InterestedCount) / float64(stats.TotalFeedback)
	}
	return stats, nil
}

// GlobalStats 是全局推荐互动统计。
type GlobalStats struct {
	TotalClicks        int     `json:"total_clicks"`
	TotalInterested    int     `json:"total_interested"`
	TotalNotInterested int     `json:"total_not_interested"`
	TotalFeedback      int     `json:"total_feedback"`
	SatisfactionRate   float64 `json:"satisfaction_rate"`
}

// StatsGlobal 返回全局统计（增量维护的计数器，不扫描 key）。
func (l *Ledger) StatsGlobal(ctx context.Context) (*GlobalStats, error) {
	fields, err := l.Store.HGetAll(ctx, globalStatsKey)
	if err != nil {
		return nil, err
	}
	stats := &GlobalStats{
		TotalClicks:        atoi(fields["total_clicks"]),
		TotalInterested:    atoi(fields["feedback_"+TypeInterested]),
		TotalNotInterested: atoi(fields["feedback_"+TypeNotInterested]),
	}
	stats.TotalFeedback = stats.TotalInterested + stats.TotalNotInterested
	if stats.TotalFeedback > 0 {
		stats.SatisfactionRate = float64(stats.TotalInterested) / float64(stats.TotalFeedback)
	}
	return stats, nil
}

// ClearUser 删除用户的点击计数、反馈流水与统计。
func (l *Ledger) ClearUser(ctx context.Context, userID string) error {
	if err := l.Store.Delete(ctx, userClicksKeyPrefix+userID); err != nil {
		return err
	}
	if err := l.Store.Delete(ctx, userFeedbackKeyPrefix+userID); err != nil {
		return err
	}
	return l.Store.Delete(ctx, userStatsKeyPrefix+userID)
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
