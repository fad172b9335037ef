package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopwise/recsys/core"
)

// getRecommendations 处理 GET 形式的推荐请求，参数走 query string。
func (s *Server) getRecommendations(c *gin.Context) {
	query := &core.Query{
		UserID:    c.Query("user_id"),
		Algorithm: core.Algorithm(c.Query("algorithm")),
		Limit:     queryInt(c, "limit", 10),
		Category:  c.Query("category"),
		Filter:    c.Query("filter"),
	}
	s.serveRecommendations(c, query)
}

type recommendRequest struct {
	UserID    string `json:"user_id"`
	Algorithm string `json:"algorithm"`
	// Type 前端使用的推荐类型别名，algorithm 未传时生效
	Type     string `json:"type"`
	Limit    int    `json:"limit"`
	Category string `json:"category"`
	Filter   string `json:"filter"`
}

// postRecommendations 处理 POST 形式的推荐请求，前端使用。
func (s *Server) postRecommendations(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	algorithm := req.Algorithm
	if algorithm == "" {
		// 前端推荐类型到算法名的映射
		switch req.Type {
		case "personalized":
			algorithm = string(core.AlgorithmContent)
		case "similar":
			algorithm = string(core.AlgorithmCollaborative)
		case "", "hybrid", "smart":
			algorithm = string(core.AlgorithmHybrid)
		default:
			algorithm = req.Type
		}
	}

	query := &core.Query{
		UserID:    req.UserID,
		Algorithm: core.Algorithm(algorithm),
		Limit:     req.Limit,
		Category:  req.Category,
		Filter:    req.Filter,
	}
	s.serveRecommendations(c, query)
}

func (s *Server) serveRecommendations(c *gin.Context, query *core.Query) {
	items, err := s.Engine.Recommend(c.Request.Context(), query)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, "获取推荐成功", gin.H{
		"user_id":         query.UserID,
		"algorithm":       query.Algorithm,
		"recommendations": items,
		"count":           len(items),
	})
}

type clickRequest struct {
	UserID string `json:"user_id" binding:"required"`
	ItemID string `json:"product_id" binding:"required"`
}

func (s *Server) recordClick(c *gin.Context) {
	var req clickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "user_id and product_id are required")
		return
	}
	if err := s.Ledger.RecordClick(c.Request.Context(), req.UserID, req.ItemID); err != nil {
		failWith(c, err)
		return
	}
	ok(c, "点击记录成功", gin.H{"user_id": req.UserID, "product_id": req.ItemID})
}

type feedbackRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	ItemID   string `json:"product_id" binding:"required"`
	Feedback string `json:"feedback_type" binding:"required"`
}

func (s *Server) recordFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "user_id, product_id and feedback_type are required")
		return
	}
	if err := s.Ledger.RecordFeedback(c.Request.Context(), req.UserID, req.ItemID, req.Feedback); err != nil {
		failWith(c, err)
		return
	}
	ok(c, "反馈记录成功", gin.H{"user_id": req.UserID, "product_id": req.ItemID})
}

type qaRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Question string `json:"question" binding:"required"`
}

// askQA 处理导购问答：生成推荐并请顾问给出购买建议。
func (s *Server) askQA(c *gin.Context) {
	var req qaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "user_id and question are required")
		return
	}

	result, err := s.Engine.Ask(c.Request.Context(), req.UserID, req.Question)
	if err != nil {
		failWith(c, err)
		return
	}

	recommendations := result.Recommendations
	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}
	ok(c, "回答生成成功", gin.H{
		"user_id":         req.UserID,
		"question":        result.Question,
		"answer":          result.Answer,
		"recommendations": recommendations,
	})
}

func (s *Server) conversationHistory(c *gin.Context) {
	userID := c.Param("user_id")
	limit := queryInt(c, "limit", 10)

	history, err := s.Engine.ConversationHistory(c.Request.Context(), userID, limit)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, "获取对话历史成功", gin.H{
		"user_id":       userID,
		"conversations": history,
		"count":         len(history),
	})
}

// recommendationStats 返回推荐效果统计：带 user_id 查单用户，否则查全局。
func (s *Server) recommendationStats(c *gin.Context) {
	if userID := c.Query("user_id"); userID != "" {
		ctx := c.Request.Context()
		stats, err := s.Ledger.StatsForUser(ctx, userID)
		if err != nil {
			failWith(c, err)
			return
		}
		hasCached := false
		if s.Engine.Cache != nil {
			_, hasCached = s.Engine.Cache.Get(ctx, userID)
		}
		conversations, _ := s.Engine.ConversationHistory(ctx, userID, 0)
		ok(c, "获取用户推荐统计成功", gin.H{
			"user_id":                    userID,
			"stats":                      stats,
			"has_cached_recommendations": hasCached,
			"conversation_count":         len(conversations),
		})
		return
	}

	stats, err := s.Ledger.StatsGlobal(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}

	topClicked, err := s.Ledger.TopClicked(c.Request.Context(), 10)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, "获取推荐统计成功", gin.H{
		"stats":       stats,
		"top_clicked": topClicked,
	})
}
