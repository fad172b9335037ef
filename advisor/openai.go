package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopwise/recsys/core"
)

// Client 是 OpenAI 兼容 chat/completions 协议的导购问答客户端，
// 适用于 OpenAI、DashScope（通义千问）等提供兼容接口的服务。
//
//   - Explain: POST {endpoint}/chat/completions
//   - 请求：{"model": "...", "messages": [...], "temperature": 0.7}
//   - 响应：{"choices": [{"message": {"content": "..."}}]}
type Client struct {
	// Endpoint API 根地址，如 "https://dashscope.aliyuncs.com/compatible-mode/v1"
	Endpoint string
	// APIKey 鉴权密钥，通过 Authorization: Bearer 头传递
	APIKey string
	// Model 模型名称，默认 "qwen-plus"
	Model string
	// Temperature 采样温度，默认 0.7
	Temperature float64
	// SystemPrompt 系统角色设定，空则使用默认购物顾问设定
	SystemPrompt string
	// Timeout 请求超时
	Timeout time.Duration
	// httpClient 自定义 HTTP 客户端（可选）
	httpClient *http.Client
}

const defaultSystemPrompt = "你是一个专业的购物顾问，能够根据商品信息为用户提供购买建议。回答要专业、友好且实用。"

// NewClient 创建问答客户端。endpoint 为 API 根地址，apiKey 为鉴权密钥。
func NewClient(endpoint, apiKey string, opts ...Option) *Client {
	c := &Client{
		Endpoint:    endpoint,
		APIKey:      apiKey,
		Model:       "qwen-plus",
		Temperature: 0.7,
		Timeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.Timeout}
	}
	return c
}

// Option 配置问答客户端
type Option func(*Client)

// WithModel 设置模型名称
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.Model = model
		}
	}
}

// WithTemperature 设置采样温度
func WithTemperature(t float64) Option {
	return func(c *Client) {
		c.Temperature = t
	}
}

// WithSystemPrompt 设置系统角色设定
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.SystemPrompt = prompt
	}
}

// WithTimeout 设置超时
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.Timeout = timeout
		if c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient 设置自定义 HTTP 客户端
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Explain 实现 core.Advisor：基于用户问题与推荐列表生成购买建议文案。
func (c *Client) Explain(ctx context.Context, question string, items []*core.Recommendation) (string, error) {
	if question == "" {
		return "", fmt.Errorf("advisor: question is required")
	}

	body := chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt()},
			{Role: "user", Content: buildPrompt(question, items)},
		},
		Temperature: c.Temperature,
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("advisor marshal request: %w", err)
	}

	url := strings.TrimRight(c.Endpoint, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("advisor create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("advisor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("advisor error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("advisor read response: %w", err)
	}
	var parsed chatResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", fmt.Errorf("advisor parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("advisor: empty choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) systemPrompt() string {
	if c.SystemPrompt != "" {
		return c.SystemPrompt
	}
	return defaultSystemPrompt
}

// buildPrompt 把用户问题与前 5 条推荐组装成提示词。
func buildPrompt(question string, items []*core.Recommendation) string {
	var b strings.Builder
	b.WriteString("用户问题：")
	b.WriteString(question)
	b.WriteString("\n\n可推荐的商品信息：\n")

	max := len(items)
	if max > 5 {
		max = 5
	}
	for i := 0; i < max; i++ {
		it := items[i]
		reason := it.Reason
		if reason == "" {
			reason = "暂无"
		}
		fmt.Fprintf(&b, "%d. %s\n   - 类别：%s\n   - 品牌：%s\n   - 价格：%.2f元\n   - 推荐理由：%s\n",
			i+1, it.Name, it.Category, it.Brand, it.Price, reason)
	}

	b.WriteString("\n请基于用户的问题和上述商品信息，提供专业的购买建议。要求：\n")
	b.WriteString("1. 直接回答用户的问题\n")
	b.WriteString("2. 结合商品特点给出具体建议\n")
	b.WriteString("3. 可以推荐1-3款最合适的商品\n")
	b.WriteString("4. 说明推荐理由\n")
	b.WriteString("5. 回答要简洁明了，不超过300字\n")
	return b.String()
}

var _ core.Advisor = (*Client)(nil)
