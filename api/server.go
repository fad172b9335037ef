package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/shopwise/recsys/behavior"
	"github.com/shopwise/recsys/core"
	"github.com/shopwise/recsys/engine"
	"github.com/shopwise/recsys/feedback"
)

// Server 聚合 HTTP 层的全部依赖，显式注入。
type Server struct {
	Engine   *engine.Engine
	Events   *behavior.EventStore
	Profiles *behavior.Analyzer
	Catalog  core.Catalog
	Ledger   *feedback.Ledger
	Logger   zerolog.Logger
}

// APIResponse 是统一响应包裹：code 1 成功 / 0 失败。
type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Code: 1, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{Code: 0, Message: message})
}

// failWith 按领域错误类型映射 HTTP 状态码。
func failWith(c *gin.Context, err error) {
	switch {
	case core.IsInvalidInput(err):
		fail(c, http.StatusBadRequest, err.Error())
	case core.IsNotFound(err):
		fail(c, http.StatusNotFound, err.Error())
	default:
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

// Router 构建完整路由。
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLog())

	behaviorGroup := r.Group("/api/behavior")
	{
		behaviorGroup.POST("/record", s.recordBehavior)
		behaviorGroup.GET("/history/:user_id", s.userHistory)
		behaviorGroup.DELETE("/history/:user_id", s.clearHistory)
		behaviorGroup.GET("/preferences/:user_id", s.userPreferences)
		behaviorGroup.GET("/popular", s.popularItems)
		behaviorGroup.GET("/stats", s.behaviorStats)
	}

	recommendGroup := r.Group("/api/recommend")
	{
		recommendGroup.GET("/products", s.getRecommendations)
		recommendGroup.POST("/products", s.postRecommendations)
		recommendGroup.POST("/click", s.recordClick)
		recommendGroup.POST("/feedback", s.recordFeedback)
		recommendGroup.POST("/qa", s.askQA)
		recommendGroup.GET("/conversations/:user_id", s.conversationHistory)
		recommendGroup.GET("/stats", s.recommendationStats)
	}

	return r
}
