package core

import (
	"context"
	"time"
)

// Store 是存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 避免循环依赖：领域层不依赖基础设施层
//
// 使用场景：
//   - 行为日志：用户浏览历史（有序集合）
//   - 计数器：点击/反馈统计（有序集合、哈希）
//   - 缓存：推荐结果缓存（普通 key + TTL）
//
// 实现：
//   - store.MemoryStore 实现此接口
//   - store.RedisStore 实现此接口
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value，ttl 为 0 表示不过期。
	// 单次 Set 是原子的：要么整体替换旧值，要么不发生。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// Expire 重置 key 的过期时间
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Close 关闭连接/释放资源
	Close() error
}

// ScoredMember 是有序集合中的一个成员及其分数。
type ScoredMember struct {
	Member string
	Score  float64
}

// KeyValueStore 是 Store 的扩展接口，覆盖行为日志需要的数据结构。
//
// 扩展功能：
//   - 有序集合（SortedSet）：浏览历史时间线、点击排行
//   - 列表（List）：反馈流水、对话记录
//   - 哈希（Hash）：反馈计数
//
// 如果后端不支持某些操作，可返回 ErrStoreNotSupported。
type KeyValueStore interface {
	Store

	// ZAdd 向有序集合添加成员
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZIncrBy 对有序集合成员的分数做增量
	ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error)

	// ZRevRange 按分数降序获取 [start, stop] 区间的成员及分数
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)

	// ZRangeByScore 按分数升序获取 [min, max] 分数范围内的成员及分数
	ZRangeByScore(ctx context.Context, key string, min, max float64) ([]ScoredMember, error)

	// ZRemRangeByRank 按排名（升序）删除 [start, stop] 区间的成员，用于截断时间线
	ZRemRangeByRank(ctx context.Context, key string, start, stop int64) error

	// ZCard 返回有序集合的成员数
	ZCard(ctx context.Context, key string) (int64, error)

	// ZScore 获取成员的分数，成员不存在时返回 ErrStoreNotFound
	ZScore(ctx context.Context, key, member string) (float64, error)

	// LPush 向列表头部插入元素
	LPush(ctx context.Context, key string, value []byte) error

	// LTrim 截断列表，只保留 [start, stop] 区间
	LTrim(ctx context.Context, key string, start, stop int64) error

	// LRange 获取列表 [start, stop] 区间的元素
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	// LLen 返回列表长度
	LLen(ctx context.Context, key string) (int64, error)

	// HIncrBy 对哈希字段做整数增量
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)

	// HGetAll 读取整个哈希
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// IsStoreNotFound 检查错误是否为 key 不存在。
func IsStoreNotFound(err error) bool {
	if err == nil {
		return false
	}
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}
