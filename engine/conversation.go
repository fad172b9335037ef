package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopwise/recsys/core"
)

// QAResult 是一次导购问答的结果：建议文案加一组推荐商品。
// Answer 为空表示问答服务不可用或超时，推荐列表不受影响。
type QAResult struct {
	Question        string                 `json:"question"`
	Answer          string                 `json:"answer,omitempty"`
	Recommendations []*core.Recommendation `json:"recommendations"`
	AskedAt         time.Time              `json:"asked_at"`
}

// ConversationLog 持久化每个用户的问答记录，列表按时间倒序，
// 最多保留 MaxEntries 条，整体 Retention 后过期。
type ConversationLog struct {
	Store core.KeyValueStore

	MaxEntries int           // 默认 50
	Retention  time.Duration // 默认 30 天
}

const conversationKeyPrefix = "qa:history:"

func (c *ConversationLog) maxEntries() int {
	if c.MaxEntries <= 0 {
		return 50
	}
	return c.MaxEntries
}

func (c *ConversationLog) retention() time.Duration {
	if c.Retention <= 0 {
		return 30 * 24 * time.Hour
	}
	return c.Retention
}

// Append 记录一条问答。持久化失败向上返回，由调用方决定是否忽略。
func (c *ConversationLog) Append(ctx context.Context, userID string, result *QAResult) error {
	if c == nil || c.Store == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	key := conversationKeyPrefix + userID
	if err := c.Store.LPush(ctx, key, data); err != nil {
		return err
	}
	if err := c.Store.LTrim(ctx, key, 0, int64(c.maxEntries())-1); err != nil {
		return err
	}
	return c.Store.Expire(ctx, key, c.retention())
}

// History 返回用户最近的问答记录，最新在前。损坏的记录跳过。
func (c *ConversationLog) History(ctx context.Context, userID string, limit int) ([]*QAResult, error) {
	if c == nil || c.Store == nil {
		return nil, nil
	}
	if limit <= 0 || limit > c.maxEntries() {
		limit = c.maxEntries()
	}
	raw, err := c.Store.LRange(ctx, conversationKeyPrefix+userID, 0, int64(limit)-1)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]*QAResult, 0, len(raw))
	for _, entry := range raw {
		var r QAResult
		if err := json.Unmarshal(entry, &r); err != nil {
			continue
		}
		out = append(out, &r)
	}
	return out, nil
}

// Ask 处理一次导购问答：先出一组混合推荐，再请 Advisor 基于问题与
// 推荐列表生成建议文案。
//
// Advisor 调用带独立截止时间，失败或超时只跳过文案，推荐照常返回。
func (e *Engine) Ask(ctx context.Context, userID, question string) (*QAResult, error) {
	if userID == "" || question == "" {
		return nil, core.NewDomainError(core.ModuleAdvisor, core.ErrorCodeInvalidInput,
			"advisor: user_id and question are required")
	}

	items, err := e.Hybrid(ctx, userID, 8)
	if err != nil {
		return nil, err
	}

	result := &QAResult{
		Question:        question,
		Recommendations: items,
		AskedAt:         time.Now(),
	}

	if e.Advisor != nil {
		advisorCtx, cancel := context.WithTimeout(ctx, e.advisorTimeout())
		answer, err := e.Advisor.Explain(advisorCtx, question, items)
		cancel()
		if err != nil {
			e.Logger.Warn().Str("user_id", userID).Err(err).Msg("advisor call failed")
		} else {
			result.Answer = answer
		}
	}

	if err := e.Conversations.Append(ctx, userID, result); err != nil {
		e.Logger.Warn().Str("user_id", userID).Err(err).Msg("conversation persist failed")
	}
	return result, nil
}

// ConversationHistory 返回用户最近的问答记录。
func (e *Engine) ConversationHistory(ctx context.Context, userID string, limit int) ([]*QAResult, error) {
	return e.Conversations.History(ctx, userID, limit)
}
