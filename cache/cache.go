package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopwise/recsys/core"
)

const resultKeyPrefix = "rec:"

// ResultCache 按用户缓存最近一次完整的推荐结果。
//
// 写入是整体替换：结果序列化后单 key 写入，要么全量生效要么不发生，
// 不存在半写状态。过期是被动的，下次读取发现失效即 miss。
// 新事件/新反馈不会主动失效缓存，调用方可用 Clear 手动清除。
type ResultCache struct {
	Store core.Store

	// TTL 缓存有效期，默认 1 小时
	TTL time.Duration
}

func NewResultCache(s core.Store) *ResultCache {
	return &ResultCache{Store: s}
}

func (c *ResultCache) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return time.Hour
}

// Get 返回用户的缓存结果；不存在或已过期时返回 (nil, false)。
func (c *ResultCache) Get(ctx context.Context, userID string) (*core.CachedResult, bool) {
	data, err := c.Store.Get(ctx, resultKeyPrefix+userID)
	if err != nil {
		return nil, false
	}
	var result core.CachedResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

// Put 整体写入用户的推荐结果，覆盖旧值。
func (c *ResultCache) Put(ctx context.Context, userID string, items []*core.Recommendation) error {
	result := core.CachedResult{
		Items:       items,
		GeneratedAt: time.Now(),
		Count:       len(items),
	}
	data, err := json.Marshal(&result)
	if err != nil {
		return err
	}
	return c.Store.Set(ctx, resultKeyPrefix+userID, data, c.ttl())
}

// Clear 手动清除用户的缓存结果。
func (c *ResultCache) Clear(ctx context.Context, userID string) error {
	return c.Store.Delete(ctx, resultKeyPrefix+userID)
}
