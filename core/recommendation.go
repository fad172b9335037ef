package core

import "time"

// Source 标记一条推荐的产出算法。
type Source string

const (
	SourceContent       Source = "content"       // 内容推荐
	SourceCollaborative Source = "collaborative" // 协同过滤
	SourceHybrid        Source = "hybrid"        // 混合（两路都命中）
)

// Recommendation 是推荐链路中的统一承载结构：商品信息、分数、来源、推荐理由。
// Reason 用于解释与前端展示；Score 用于排序决策。
type Recommendation struct {
	ItemID   string  `json:"product_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Brand    string  `json:"brand"`
	Score    float64 `json:"score"`
	Source   Source  `json:"source,omitempty"`
	Reason   string  `json:"reason"`
}

// NewRecommendation 从目录商品构建一条推荐。
func NewRecommendation(item *CatalogItem) *Recommendation {
	return &Recommendation{
		ItemID:   item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Category: item.Category,
		Brand:    item.Brand,
	}
}

// CachedResult 是按用户缓存的一次完整推荐结果。
// 整体序列化后单 key 写入，要么全量替换要么不发生。
type CachedResult struct {
	Items       []*Recommendation `json:"recommendations"`
	GeneratedAt time.Time         `json:"generated_at"`
	Count       int               `json:"count"`
}

// Algorithm 是查询可选的推荐算法。
type Algorithm string

const (
	AlgorithmContent       Algorithm = "content"
	AlgorithmCollaborative Algorithm = "collaborative"
	AlgorithmHybrid        Algorithm = "hybrid"
)

// Valid 检查算法名是否已知。
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmContent, AlgorithmCollaborative, AlgorithmHybrid:
		return true
	}
	return false
}

// Query 是一次推荐请求。
type Query struct {
	UserID    string
	Algorithm Algorithm
	Limit     int
	Category  string // 可选：只保留该类别
	Filter    string // 可选：CEL 过滤表达式，如 `item.price < 2000`
}
