package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL       = "http://127.0.0.1:5000"
	DefaultTimeout       = 30
	DefaultSpeechCommand = "espeak"
	// DefaultLogLevel 交互式终端下只输出警告以上
	DefaultLogLevel = "warn"

	ProviderBackend = "backend"
	ProviderLLM     = "llm"
)

// Config 项目配置结构体
type Config struct {
	Backend     BackendConfig     `yaml:"backend"`
	Recommend   RecommendConfig   `yaml:"recommend"`
	Speech      SpeechConfig      `yaml:"speech"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
}

// BackendConfig 分析服务配置
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // 秒
}

// RecommendConfig 建议来源配置
type RecommendConfig struct {
	Provider string    `yaml:"provider"` // backend or llm
	LLM      LLMConfig `yaml:"llm"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// SpeechConfig 语音播放配置，文本作为最后一个参数追加到 Args 之后
type SpeechConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置，RPM 为 0 表示不限流
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// DBConfig 数据库相关配置，Host 为空时不保存历史
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 不读文件时使用的配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = DefaultBaseURL
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = DefaultTimeout
	}
	if c.Recommend.Provider == "" {
		c.Recommend.Provider = ProviderBackend
	}
	if c.Speech.Command == "" {
		c.Speech.Command = DefaultSpeechCommand
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 1
	}
	if c.DB.Port == 0 {
		c.DB.Port = 5432
	}
}

// Validate 检查互相依赖的配置项
func (c *Config) Validate() error {
	switch c.Recommend.Provider {
	case ProviderBackend:
	case ProviderLLM:
		if c.Recommend.LLM.BaseURL == "" || c.Recommend.LLM.Model == "" {
			return fmt.Errorf("recommend.llm.base_url and recommend.llm.model are required for provider %q", ProviderLLM)
		}
	default:
		return fmt.Errorf("unknown recommend provider: %s", c.Recommend.Provider)
	}
	return nil
}
