package behavior

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/shopwise/recsys/core"
)

const (
	historyKeyPrefix = "user:history:"
	viewsKeyPrefix   = "item:views:"   // 按天维度的全局浏览计数
	viewersKeyPrefix = "item:viewers:" // 浏览过某商品的用户集合
	usersKey         = "behavior:users"
	statsKey         = "behavior:stats"

	dayLayout = "20060102"
)

// EventStore 是有界的按用户交互事件日志。
//
// 存储布局（逻辑上与后端无关）：
//   - user:history:{uid}   zset，member 为事件 JSON，score 为时间戳；
//     每次写入后截断到最近 MaxEntries 条，并重置整个 key 的 TTL
//   - item:views:{日期}     zset，member 为商品 ID，score 为当天浏览次数
//   - item:viewers:{商品ID} zset，member 为用户 ID，score 为最近浏览时间戳
//   - behavior:users/stats  全局计数
//
// 并发写同一用户可能与截断竞争，历史长度在高并发下是近似上界。
// 推荐是建议性的，这里接受这种松弛。
type EventStore struct {
	Store core.KeyValueStore

	// MaxEntries 每个用户保留的最近事件条数，默认 10
	MaxEntries int

	// Retention 整个历史 key 的保留时长，从最后一次写入起算，默认 30 天
	Retention time.Duration

	// ViewLogRetention 全局浏览计数的保留时长，默认 90 天
	ViewLogRetention time.Duration
}

func NewEventStore(s core.KeyValueStore) *EventStore {
	return &EventStore{Store: s}
}

func (es *EventStore) maxEntries() int {
	if es.MaxEntries > 0 {
		return es.MaxEntries
	}
	return 10
}

func (es *EventStore) retention() time.Duration {
	if es.Retention > 0 {
		return es.Retention
	}
	return 30 * 24 * time.Hour
}

func (es *EventStore) viewLogRetention() time.Duration {
	if es.ViewLogRetention > 0 {
		return es.ViewLogRetention
	}
	return 90 * 24 * time.Hour
}

// Record 追加一条交互事件：写入时间线、截断到最近 MaxEntries 条、
// 重置 TTL，并维护全局浏览计数与商品浏览者集合。
func (es *EventStore) Record(ctx context.Context, userID, itemID string, snap core.ItemSnapshot) error {
	now := time.Now()
	event := &core.InteractionEvent{
		UserID:   userID,
		ItemID:   itemID,
		Name:     snap.Name,
		Category: snap.Category,
		Brand:    snap.Brand,
		Price:    snap.Price,
		IsHot:    snap.IsHot,
		ViewedAt: now,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := historyKeyPrefix + userID
	score := float64(now.UnixNano()) / float64(time.Second)
	if err := es.Store.ZAdd(ctx, key, score, string(data)); err != nil {
		return err
	}
	// 只保留最近 MaxEntries 条（升序排名删除旧记录）
	if err := es.Store.ZRemRangeByRank(ctx, key, 0, int64(-(es.maxEntries() + 1))); err != nil {
		return err
	}
	// TTL 从整个 key 的最后一次写入起算，不是按条目
	if err := es.Store.Expire(ctx, key, es.retention()); err != nil {
		return err
	}

	// 全局浏览计数（按天分桶，供流行度加权与热门统计）
	dayKey := viewsKeyPrefix + now.Format(dayLayout)
	if _, err := es.Store.ZIncrBy(ctx, dayKey, 1, itemID); err == nil {
		_ = es.Store.Expire(ctx, dayKey, es.viewLogRetention())
	}

	// 商品浏览者集合（协同过滤的候选用户来源）
	viewersKey := viewersKeyPrefix + itemID
	if err := es.Store.ZAdd(ctx, viewersKey, score, userID); err == nil {
		_ = es.Store.Expire(ctx, viewersKey, es.retention())
	}

	// 全局统计
	_ = es.Store.ZAdd(ctx, usersKey, score, userID)
	_, _ = es.Store.HIncrBy(ctx, statsKey, "total_views", 1)

	return nil
}

// History 返回用户最近的事件，按时间倒序，最多 limit 条。
func (es *EventStore) History(ctx context.Context, userID string, limit int) ([]*core.InteractionEvent, error) {
	if limit <= 0 {
		limit = es.maxEntries()
	}
	members, err := es.Store.ZRevRange(ctx, historyKeyPrefix+userID, 0, int64(limit-1))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	events := make([]*core.InteractionEvent, 0, len(members))
	for _, m := range members {
		var ev core.InteractionEvent
		if json.Unmarshal([]byte(m.Member), &ev) != nil {
			continue
		}
		events = append(events, &ev)
	}
	return events, nil
}

// RecentItemIDs 返回用户在最近 days 天内浏览过的商品 ID，
// 去重后按最近浏览时间倒序。
func (es *EventStore) RecentItemIDs(ctx context.Context, userID string, days int) ([]string, error) {
	if days <= 0 {
		days = 30
	}
	now := time.Now()
	min := float64(now.Add(-time.Duration(days)*24*time.Hour).Unix())
	max := float64(now.UnixNano()) / float64(time.Second)

	members, err := es.Store.ZRangeByScore(ctx, historyKeyPrefix+userID, min, max)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	// ZRangeByScore 升序返回，倒序遍历得到最近优先
	seen := make(map[string]struct{}, len(members))
	ids := make([]string, 0, len(members))
	for i := len(members) - 1; i >= 0; i-- {
		var ev core.InteractionEvent
		if json.Unmarshal([]byte(members[i].Member), &ev) != nil {
			continue
		}
		if ev.ItemID == "" {
			continue
		}
		if _, ok := seen[ev.ItemID]; ok {
			continue
		}
		seen[ev.ItemID] = struct{}{}
		ids = append(ids, ev.ItemID)
	}
	return ids, nil
}

// Clear 删除用户的全部浏览历史。
func (es *EventStore) Clear(ctx context.Context, userID string) error {
	return es.Store.Delete(ctx, historyKeyPrefix+userID)
}

// ItemViewers 返回最近 days 天内浏览过某商品的用户 ID 集合。
func (es *EventStore) ItemViewers(ctx context.Context, itemID string, days int) ([]string, error) {
	if days <= 0 {
		days = 30
	}
	now := time.Now()
	min := float64(now.Add(-time.Duration(days)*24*time.Hour).Unix())
	max := float64(now.UnixNano()) / float64(time.Second)

	members, err := es.Store.ZRangeByScore(ctx, viewersKeyPrefix+itemID, min, max)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	users := make([]string, 0, len(members))
	for _, m := range members {
		users = append(users, m.Member)
	}
	return users, nil
}

// RecentGlobalViews 返回商品在最近 days 天内的全局浏览次数。
func (es *EventStore) RecentGlobalViews(ctx context.Context, itemID string, days int) (int, error) {
	if days <= 0 {
		days = 7
	}
	total := 0
	now := time.Now()
	for i := 0; i < days; i++ {
		dayKey := viewsKeyPrefix + now.AddDate(0, 0, -i).Format(dayLayout)
		score, err := es.Store.ZScore(ctx, dayKey, itemID)
		if err != nil {
			continue // 当天无记录
		}
		total += int(score)
	}
	return total, nil
}

// PopularItem 是热门商品统计中的一项。
type PopularItem struct {
	ItemID    string `json:"product_id"`
	ViewCount int    `json:"view_count"`
}

// PopularItems 返回最近 days 天内按浏览次数排序的热门商品。
func (es *EventStore) PopularItems(ctx context.Context, days, limit int) ([]PopularItem, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = 10
	}

	counts := make(map[string]int)
	now := time.Now()
	for i := 0; i < days; i++ {
		dayKey := viewsKeyPrefix + now.AddDate(0, 0, -i).Format(dayLayout)
		members, err := es.Store.ZRevRange(ctx, dayKey, 0, -1)
		if err != nil {
			continue
		}
		for _, m := range members {
			counts[m.Member] += int(m.Score)
		}
	}

	items := make([]PopularItem, 0, len(counts))
	for id, c := range counts {
		items = append(items, PopularItem{ItemID: id, ViewCount: c})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].ViewCount != items[j].ViewCount {
			return items[i].ViewCount > items[j].ViewCount
		}
		return items[i].ItemID < items[j].ItemID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Stats 返回全局行为统计。
type Stats struct {
	TotalUsers      int64   `json:"total_users"`
	TotalViews      int64   `json:"total_views"`
	AvgViewsPerUser float64 `json:"avg_views_per_user"`
}

// BehaviorStats 返回全局行为统计信息。
func (es *EventStore) BehaviorStats(ctx context.Context) (*Stats, error) {
	users, err := es.Store.ZCard(ctx, usersKey)
	if err != nil {
		return nil, err
	}
	var views int64
	if fields, err := es.Store.HGetAll(ctx, statsKey); err == nil {
		if v, ok := fields["total_views"]; ok {
			views, _ = strconv.ParseInt(v, 10, 64)
		}
	}
	stats := &Stats{TotalUsers: users, TotalViews: views}
	if users > 0 {
		stats.AvgViewsPerUser = float64(views) / float64(users)
	}
	return stats, nil
}
