package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shopwise/recsys/core"
)

type recordBehaviorRequest struct {
	UserID string `json:"user_id" binding:"required"`
	ItemID string `json:"product_id" binding:"required"`
}

// recordBehavior 记录一次浏览行为。商品快照从目录取当前值。
func (s *Server) recordBehavior(c *gin.Context) {
	var req recordBehaviorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "user_id and product_id are required")
		return
	}

	item, err := s.Catalog.LookupItem(c.Request.Context(), req.ItemID)
	if err != nil {
		failWith(c, err)
		return
	}
	if err := s.Events.Record(c.Request.Context(), req.UserID, req.ItemID, core.SnapshotOf(item)); err != nil {
		failWith(c, err)
		return
	}
	ok(c, "行为记录成功", gin.H{"user_id": req.UserID, "product_id": req.ItemID})
}

func (s *Server) userHistory(c *gin.Context) {
	userID := c.Param("user_id")
	limit := queryInt(c, "limit", 10)

	events, err := s.Events.History(c.Request.Context(), userID, limit)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, "获取浏览历史成功", gin.H{
		"user_id": userID,
		"history": events,
		"count":   len(events),
	})
}

func (s *Server) clearHistory(c *gin.Context) {
	userID := c.Param("user_id")
	if err := s.Events.Clear(c.Request.Context(), userID); err != nil {
		failWith(c, err)
		return
	}
	// 历史清空后画像会变化，主动失效该用户的推荐缓存
	s.Engine.InvalidateCache(c.Request.Context(), userID)
	ok(c, "浏览历史已清空", gin.H{"user_id": userID})
}

func (s *Server) userPreferences(c *gin.Context) {
	userID := c.Param("user_id")
	profile := s.Profiles.Build(c.Request.Context(), userID)
	ok(c, "获取用户偏好成功", gin.H{
		"user_id":     userID,
		"preferences": profile,
	})
}

func (s *Server) popularItems(c *gin.Context) {
	days := queryInt(c, "days", 7)
	limit := queryInt(c, "limit", 10)

	items, err := s.Events.PopularItems(c.Request.Context(), days, limit)
	if err != nil {
		failWith(c, err)
		return
	}

	// 补充目录信息，目录缺失的商品只返回计数
	type popularEntry struct {
		ItemID string  `json:"product_id"`
		Name   string  `json:"name,omitempty"`
		Price  float64 `json:"price,omitempty"`
		Views  int     `json:"views"`
	}
	out := make([]popularEntry, 0, len(items))
	for _, p := range items {
		entry := popularEntry{ItemID: p.ItemID, Views: p.ViewCount}
		if item, err := s.Catalog.LookupItem(c.Request.Context(), p.ItemID); err == nil {
			entry.Name = item.Name
			entry.Price = item.Price
		}
		out = append(out, entry)
	}
	ok(c, "获取热门商品成功", gin.H{"days": days, "products": out})
}

func (s *Server) behaviorStats(c *gin.Context) {
	stats, err := s.Events.BehaviorStats(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, "获取行为统计成功", stats)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
