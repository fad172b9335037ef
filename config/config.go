package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是推荐服务的完整配置，从 YAML 文件加载。
// 未配置的字段由 Default 填充，组件自身的零值默认仍然生效。
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Behavior  BehaviorConfig  `yaml:"behavior"`
	Cache     CacheConfig     `yaml:"cache"`
	Recommend RecommendConfig `yaml:"recommend"`
	Advisor   AdvisorConfig   `yaml:"advisor"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	// Addr 监听地址，如 ":8080"
	Addr string `yaml:"addr"`
}

type StoreConfig struct {
	// Backend 存储后端："memory" 或 "redis"
	Backend string `yaml:"backend"`
	Redis   struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

type CatalogConfig struct {
	// File 商品目录 YAML 文件路径（内存目录时使用）
	File string `yaml:"file"`
}

type BehaviorConfig struct {
	// MaxHistory 每用户保留的最近浏览条数
	MaxHistory int `yaml:"max_history"`
	// RetentionDays 用户浏览历史保留天数
	RetentionDays int `yaml:"retention_days"`
	// PreferenceWindow 画像统计使用的最近事件条数
	PreferenceWindow int `yaml:"preference_window"`
}

type CacheConfig struct {
	// TTL 推荐结果缓存时长
	TTL time.Duration `yaml:"ttl"`
}

type RecommendConfig struct {
	// DefaultLimit 默认返回条数
	DefaultLimit int `yaml:"default_limit"`
	// ContentWeight/CollabWeight 混合融合权重
	ContentWeight float64 `yaml:"content_weight"`
	CollabWeight  float64 `yaml:"collab_weight"`
}

type AdvisorConfig struct {
	// Enabled 是否启用导购问答
	Enabled bool `yaml:"enabled"`
	// Endpoint OpenAI 兼容接口根地址
	Endpoint string `yaml:"endpoint"`
	// APIKey 鉴权密钥，支持 ${ENV_VAR} 形式从环境变量展开
	APIKey string `yaml:"api_key"`
	// Model 模型名称
	Model string `yaml:"model"`
	// Timeout 单次调用超时
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	// Level 日志级别：debug/info/warn/error
	Level string `yaml:"level"`
	// Pretty 终端友好输出（开发用），false 输出 JSON
	Pretty bool `yaml:"pretty"`
}

// Default 返回内置默认配置。
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Store.Backend = "memory"
	cfg.Store.Redis.Addr = "127.0.0.1:6379"
	cfg.Behavior.MaxHistory = 10
	cfg.Behavior.RetentionDays = 30
	cfg.Behavior.PreferenceWindow = 50
	cfg.Cache.TTL = time.Hour
	cfg.Recommend.DefaultLimit = 10
	cfg.Recommend.ContentWeight = 0.6
	cfg.Recommend.CollabWeight = 0.4
	cfg.Advisor.Model = "qwen-plus"
	cfg.Advisor.Timeout = 30 * time.Second
	cfg.Log.Level = "info"
	return cfg
}

// Load 从 YAML 文件加载配置，未设置的字段保持默认值。
// path 为空时直接返回默认配置。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config parse %s: %w", path, err)
	}
	cfg.Advisor.APIKey = os.ExpandEnv(cfg.Advisor.APIKey)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置的关键取值。
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Recommend.ContentWeight < 0 || c.Recommend.CollabWeight < 0 {
		return fmt.Errorf("config: fusion weights must be non-negative")
	}
	if c.Advisor.Enabled && c.Advisor.Endpoint == "" {
		return fmt.Errorf("config: advisor enabled but endpoint is empty")
	}
	return nil
}
