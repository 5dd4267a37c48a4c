package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/lucidly/internal/backend"
	"github.com/iWorld-y/lucidly/internal/config"
	"github.com/iWorld-y/lucidly/internal/llm"
	"github.com/iWorld-y/lucidly/internal/recommend"
)

// NewRecommender 根据配置创建建议来源
func NewRecommender(ctx context.Context, cfg *config.Config, limiter *rate.Limiter) (recommend.Recommender, error) {
	provider := cfg.Recommend.Provider
	if provider == "" {
		provider = config.ProviderBackend
	}

	switch provider {
	case config.ProviderBackend:
		return backend.NewRecommendationClient(cfg.Backend.BaseURL,
			backend.WithTimeout(time.Duration(cfg.Backend.Timeout)*time.Second),
			backend.WithLimiter(limiter),
		), nil

	case config.ProviderLLM:
		llmCfg := cfg.Recommend.LLM
		if llmCfg.BaseURL == "" || llmCfg.Model == "" {
			return nil, fmt.Errorf("llm base url or model is missing")
		}
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: llmCfg.BaseURL,
			APIKey:  llmCfg.APIKey,
			Model:   llmCfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("LLM 初始化失败: %w", err)
		}
		return llm.NewRecommender(chatModel, limiter), nil

	default:
		return nil, fmt.Errorf("unknown recommend provider: %s", provider)
	}
}

// NewLimiter 按配置创建限流器，RPM 为 0 时不限流
func NewLimiter(c config.ConcurrencyConfig) *rate.Limiter {
	burst := c.QPS
	if burst <= 0 {
		burst = 1
	}
	if c.RPM <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(float64(c.RPM)/60.0), burst)
}
