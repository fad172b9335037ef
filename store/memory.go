package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopwise/recsys/core"
)

// MemoryStore 是内存实现的 KeyValueStore，用于测试/开发/单机部署。
// 支持 TTL（过期时间），但进程重启后数据丢失。
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string][]byte
	zsets   map[string]map[string]float64
	lists   map[string][][]byte
	hashes  map[string]map[string]int64
	expires map[string]time.Time
	clean   *time.Ticker
	done    chan struct{}
	closed  sync.Once
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		data:    make(map[string][]byte),
		zsets:   make(map[string]map[string]float64),
		lists:   make(map[string][][]byte),
		hashes:  make(map[string]map[string]int64),
		expires: make(map[string]time.Time),
		clean:   time.NewTicker(10 * time.Second),
		done:    make(chan struct{}),
	}
	go ms.cleanup()
	return ms
}

func (m *MemoryStore) Name() string { return "memory" }

// expired 判断 key 是否已过期。调用方需持有读锁。
func (m *MemoryStore) expired(key string) bool {
	expire, ok := m.expires[key]
	return ok && time.Now().After(expire)
}

// purge 删除 key 在所有数据结构中的痕迹。调用方需持有写锁。
func (m *MemoryStore) purge(key string) {
	delete(m.data, key)
	delete(m.zsets, key)
	delete(m.lists, key)
	delete(m.hashes, key)
	delete(m.expires, key)
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok || m.expired(key) {
		return nil, core.ErrStoreNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	} else {
		delete(m.expires, key)
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purge(key)
	return nil
}

func (m *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	} else {
		delete(m.expires, key)
	}
	return nil
}

// Close 停止过期清理协程。可被多层 defer 重复调用。
func (m *MemoryStore) Close() error {
	m.closed.Do(func() {
		if m.clean != nil {
			m.clean.Stop()
		}
		close(m.done)
	})
	return nil
}

func (m *MemoryStore) cleanup() {
	for {
		select {
		case <-m.done:
			return
		case <-m.clean.C:
			m.mu.Lock()
			now := time.Now()
			for k, expire := range m.expires {
				if now.After(expire) {
					m.purge(k)
				}
			}
			m.mu.Unlock()
		}
	}
}

// 有序集合操作

func (m *MemoryStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.expired(key) {
		m.purge(key)
	}
	if m.zsets[key] == nil {
		m.zsets[key] = make(map[string]float64)
	}
	m.zsets[key][member] = score
	return nil
}

func (m *MemoryStore) ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.expired(key) {
		m.purge(key)
	}
	if m.zsets[key] == nil {
		m.zsets[key] = make(map[string]float64)
	}
	m.zsets[key][member] += delta
	return m.zsets[key][member], nil
}

// sortedPairs 返回按分数降序的成员列表。分数相同时按成员字典序，保证稳定。
// 调用方需持有读锁。
func (m *MemoryStore) sortedPairs(key string) []core.ScoredMember {
	zset, ok := m.zsets[key]
	if !ok || m.expired(key) {
		return nil
	}
	pairs := make([]core.ScoredMember, 0, len(zset))
	for member, score := range zset {
		pairs = append(pairs, core.ScoredMember{Member: member, Score: score})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		return pairs[i].Member < pairs[j].Member
	})
	return pairs
}

func (m *MemoryStore) ZRevRange(ctx context.Context, key string, start, stop int64) ([]core.ScoredMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pairs := m.sortedPairs(key)
	if len(pairs) == 0 {
		return nil, nil
	}
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= int64(len(pairs)) {
		stop = int64(len(pairs)) - 1
	}
	if start > stop {
		return nil, nil
	}
	return pairs[start : stop+1], nil
}

func (m *MemoryStore) ZRangeByScore(ctx context.Context, key string, min, max float64) ([]core.ScoredMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pairs := m.sortedPairs(key)
	if len(pairs) == 0 {
		return nil, nil
	}
	// sortedPairs 是降序，这里按升序返回
	out := make([]core.ScoredMember, 0, len(pairs))
	for i := len(pairs) - 1; i >= 0; i-- {
		p := pairs[i]
		if p.Score >= min && p.Score <= max {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) ZRemRangeByRank(ctx context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	zset, ok := m.zsets[key]
	if !ok || m.expired(key) {
		return nil
	}
	// 升序排名：rank 0 是分数最低的成员（与 Redis 语义一致）
	pairs := m.sortedPairs(key)
	n := int64(len(pairs))
	// 转换负索引
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return nil
	}
	// pairs 是降序，升序 rank i 对应 pairs[n-1-i]
	for rank := start; rank <= stop; rank++ {
		delete(zset, pairs[n-1-rank].Member)
	}
	return nil
}

func (m *MemoryStore) ZCard(ctx context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.expired(key) {
		return 0, nil
	}
	return int64(len(m.zsets[key])), nil
}

func (m *MemoryStore) ZScore(ctx context.Context, key, member string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	zset, ok := m.zsets[key]
	if !ok || m.expired(key) {
		return 0, core.ErrStoreNotFound
	}
	score, ok := zset[member]
	if !ok {
		return 0, core.ErrStoreNotFound
	}
	return score, nil
}

// 列表操作

func (m *MemoryStore) LPush(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.expired(key) {
		m.purge(key)
	}
	m.lists[key] = append([][]byte{value}, m.lists[key]...)
	return nil
}

func (m *MemoryStore) LTrim(ctx context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, ok := m.lists[key]
	if !ok || m.expired(key) {
		return nil
	}
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		m.lists[key] = nil
		return nil
	}
	m.lists[key] = list[start : stop+1]
	return nil
}

func (m *MemoryStore) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list, ok := m.lists[key]
	if !ok || m.expired(key) {
		return nil, nil
	}
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return nil, nil
	}
	out := make([][]byte, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

func (m *MemoryStore) LLen(ctx context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.expired(key) {
		return 0, nil
	}
	return int64(len(m.lists[key])), nil
}

// 哈希操作

func (m *MemoryStore) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.expired(key) {
		m.purge(key)
	}
	if m.hashes[key] == nil {
		m.hashes[key] = make(map[string]int64)
	}
	m.hashes[key][field] += delta
	return m.hashes[key][field], nil
}

func (m *MemoryStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hash, ok := m.hashes[key]
	if !ok || m.expired(key) {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(hash))
	for f, v := range hash {
		out[f] = strconv.FormatInt(v, 10)
	}
	return out, nil
}

var _ core.KeyValueStore = (*MemoryStore)(nil)
