package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/shopwise/recsys/behavior"
	"github.com/shopwise/recsys/cache"
	"github.com/shopwise/recsys/catalog"
	"github.com/shopwise/recsys/core"
	"github.com/shopwise/recsys/engine"
	"github.com/shopwise/recsys/feedback"
	"github.com/shopwise/recsys/recall"
	"github.com/shopwise/recsys/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ms := store.NewMemoryStore()
	t.Cleanup(func() { ms.Close() })

	events := behavior.NewEventStore(ms)
	cat := catalog.NewMemoryCatalog(
		&core.CatalogItem{ID: "p1", Name: "iPhone 15", Category: "手机", Brand: "Apple", Price: 5999, IsHot: true},
		&core.CatalogItem{ID: "p2", Name: "Mate 60", Category: "手机", Brand: "Huawei", Price: 5499},
	)
	cat.Views = events

	profiles := behavior.NewAnalyzer(events)
	ledger := feedback.NewLedger(ms)
	eng := &engine.Engine{
		Events:        events,
		Profiles:      profiles,
		Content:       &recall.ContentRecall{Catalog: cat, Events: events},
		Collab:        &recall.CollaborativeRecall{Events: events, Catalog: cat},
		Cache:         &cache.ResultCache{Store: ms},
		Conversations: &engine.ConversationLog{Store: ms},
	}
	return &Server{
		Engine:   eng,
		Events:   events,
		Profiles: profiles,
		Catalog:  cat,
		Ledger:   ledger,
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("序列化请求失败: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v (body=%s)", err, w.Body.String())
	}
	return w, resp
}

// TestAPI_RecordAndHistory 测试行为记录与历史查询
func TestAPI_RecordAndHistory(t *testing.T) {
	router := newTestServer(t).Router()

	w, resp := doJSON(t, router, http.MethodPost, "/api/behavior/record",
		map[string]string{"user_id": "u1", "product_id": "p1"})
	if w.Code != http.StatusOK || resp.Code != 1 {
		t.Fatalf("期望记录成功，实际 status=%d resp=%+v", w.Code, resp)
	}

	// 不存在的商品 404
	w, _ = doJSON(t, router, http.MethodPost, "/api/behavior/record",
		map[string]string{"user_id": "u1", "product_id": "ghost"})
	if w.Code != http.StatusNotFound {
		t.Errorf("不存在的商品期望 404，实际得到 %d", w.Code)
	}

	// 缺参数 400
	w, _ = doJSON(t, router, http.MethodPost, "/api/behavior/record",
		map[string]string{"user_id": "u1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺 product_id 期望 400，实际得到 %d", w.Code)
	}

	w, resp = doJSON(t, router, http.MethodGet, "/api/behavior/history/u1", nil)
	if w.Code != http.StatusOK || resp.Code != 1 {
		t.Fatalf("期望查询成功，实际 status=%d resp=%+v", w.Code, resp)
	}
}

// TestAPI_Recommendations 测试推荐查询的成功与校验路径
func TestAPI_Recommendations(t *testing.T) {
	router := newTestServer(t).Router()

	// 先造一条行为，让画像非空
	doJSON(t, router, http.MethodPost, "/api/behavior/record",
		map[string]string{"user_id": "u1", "product_id": "p1"})

	w, resp := doJSON(t, router, http.MethodGet, "/api/recommend/products?user_id=u1&limit=5", nil)
	if w.Code != http.StatusOK || resp.Code != 1 {
		t.Fatalf("期望推荐成功，实际 status=%d resp=%+v", w.Code, resp)
	}

	// 缺 user_id 400
	w, _ = doJSON(t, router, http.MethodGet, "/api/recommend/products", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺 user_id 期望 400，实际得到 %d", w.Code)
	}

	// 未知算法 400
	w, _ = doJSON(t, router, http.MethodGet, "/api/recommend/products?user_id=u1&algorithm=magic", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("未知算法期望 400，实际得到 %d", w.Code)
	}

	// POST 形式 + 前端类型别名
	w, resp = doJSON(t, router, http.MethodPost, "/api/recommend/products",
		map[string]interface{}{"user_id": "u1", "type": "personalized", "limit": 5})
	if w.Code != http.StatusOK || resp.Code != 1 {
		t.Fatalf("POST 推荐期望成功，实际 status=%d resp=%+v", w.Code, resp)
	}
}

// TestAPI_ClickAndFeedback 测试点击与反馈接口
func TestAPI_ClickAndFeedback(t *testing.T) {
	router := newTestServer(t).Router()

	w, resp := doJSON(t, router, http.MethodPost, "/api/recommend/click",
		map[string]string{"user_id": "u1", "product_id": "p1"})
	if w.Code != http.StatusOK || resp.Code != 1 {
		t.Fatalf("点击记录期望成功，实际 status=%d resp=%+v", w.Code, resp)
	}

	w, _ = doJSON(t, router, http.MethodPost, "/api/recommend/feedback",
		map[string]string{"user_id": "u1", "product_id": "p1", "feedback_type": "interested"})
	if w.Code != http.StatusOK {
		t.Fatalf("反馈记录期望成功，实际得到 %d", w.Code)
	}

	// 未知反馈类型 400
	w, _ = doJSON(t, router, http.MethodPost, "/api/recommend/feedback",
		map[string]string{"user_id": "u1", "product_id": "p1", "feedback_type": "meh"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("未知反馈类型期望 400，实际得到 %d", w.Code)
	}

	w, resp = doJSON(t, router, http.MethodGet, "/api/recommend/stats", nil)
	if w.Code != http.StatusOK || resp.Code != 1 {
		t.Fatalf("统计查询期望成功，实际 status=%d resp=%+v", w.Code, resp)
	}

	// 单用户统计应附带缓存与对话信息
	w, resp = doJSON(t, router, http.MethodGet, "/api/recommend/stats?user_id=u1", nil)
	if w.Code != http.StatusOK || resp.Code != 1 {
		t.Fatalf("用户统计查询期望成功，实际 status=%d resp=%+v", w.Code, resp)
	}
	data, isMap := resp.Data.(map[string]interface{})
	if !isMap {
		t.Fatalf("用户统计数据格式不对: %+v", resp.Data)
	}
	for _, key := range []string{"stats", "has_cached_recommendations", "conversation_count"} {
		if _, exists := data[key]; !exists {
			t.Errorf("用户统计缺少字段 %s", key)
		}
	}
}
