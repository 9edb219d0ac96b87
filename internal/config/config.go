package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Polymarket  PolymarketConfig  `yaml:"polymarket"`
	Sources     SourcesConfig     `yaml:"sources"`
	Compress    CompressConfig    `yaml:"compress"`
	LLM         LLMConfig         `yaml:"llm"`
	Store       StoreConfig       `yaml:"store"`
	Archive     ArchiveConfig     `yaml:"archive"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Log         LogConfig         `yaml:"log"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Timeout string `yaml:"timeout"`
}

// PolymarketConfig 行情接口地址
type PolymarketConfig struct {
	GammaURL string `yaml:"gamma_url"`
	ClobURL  string `yaml:"clob_url"`
}

// SourcesConfig 检索源配置
type SourcesConfig struct {
	Tavily TavilyConfig `yaml:"tavily"`
	Reddit RedditConfig `yaml:"reddit"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKey string `yaml:"api_key"`
}

// RedditConfig Reddit 配置
type RedditConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
}

// CompressConfig 语料压缩服务配置
type CompressConfig struct {
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	TargetTokens int    `yaml:"target_tokens"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	Provider  string `yaml:"provider"` // "openai" | "anthropic"
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// StoreConfig 任务状态存储配置
type StoreConfig struct {
	Backend string `yaml:"backend"` // "memory" | "badger"
	Path    string `yaml:"path"`
	JobTTL  string `yaml:"job_ttl"`
}

// JobTTLDuration 任务记录保留时长，默认 1 小时
func (s StoreConfig) JobTTLDuration() time.Duration {
	if d, err := time.ParseDuration(s.JobTTL); err == nil && d > 0 {
		return d
	}
	return time.Hour
}

// ArchiveConfig 已完成分析的归档数据库配置，Host 为空则不归档
type ArchiveConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS     int `yaml:"qps"`
	RPM     int `yaml:"rpm"`
	MaxJobs int `yaml:"max_jobs"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Polymarket.GammaURL == "" {
		c.Polymarket.GammaURL = "https://gamma-api.polymarket.com"
	}
	if c.Polymarket.ClobURL == "" {
		c.Polymarket.ClobURL = "https://clob.polymarket.com"
	}
	if c.Sources.Reddit.BaseURL == "" {
		c.Sources.Reddit.BaseURL = "https://www.reddit.com"
	}
	if c.Sources.Reddit.UserAgent == "" {
		c.Sources.Reddit.UserAgent = "polyterm/1.0"
	}
	if c.Compress.TargetTokens <= 0 {
		c.Compress.TargetTokens = 4000
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 2
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 60
	}
	if c.Concurrency.MaxJobs <= 0 {
		c.Concurrency.MaxJobs = 8
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
