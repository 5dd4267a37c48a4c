// Package llm 在客户端直接调用 OpenAI 兼容模型生成建议，
// 作为 /api/recommendations 之外的另一个建议来源。
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/lucidly/internal/apperr"
	"github.com/iWorld-y/lucidly/internal/logger"
	dm "github.com/iWorld-y/lucidly/internal/model"
)

const systemPrompt = `You are a JSON generator. Output JSON only.`

const promptTpl = `You are a supportive wellbeing coach. A user just completed a short self check-in
about their mood, sleep/energy and current stressors. Their answers:

%s

Write 3 to 5 short, practical, kind recommendations (one sentence each) that could help
them today. Do not diagnose and do not mention medication.
Reply strictly with a JSON array of strings, without markdown, for example:
["Take a ten minute walk outside", "Write down the one task that matters most"]`

// Recommender 基于 chat model 的建议生成器
type Recommender struct {
	chatModel model.BaseChatModel
	limiter   *rate.Limiter
}

// NewRecommender limiter 可以为 nil
func NewRecommender(cm model.BaseChatModel, limiter *rate.Limiter) *Recommender {
	return &Recommender{chatModel: cm, limiter: limiter}
}

// GetRecommendations 单次调用模型，不重试
func (r *Recommender) GetRecommendations(ctx context.Context, text string) (dm.Recommendations, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, apperr.Transport("rate limiter wait failed", err)
		}
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: fmt.Sprintf(promptTpl, text)},
	}

	resp, err := r.chatModel.Generate(ctx, messages)
	if err != nil {
		logger.Log.Warnf("LLM 生成建议失败: %v", err)
		return nil, apperr.Transport("llm generate failed", err)
	}

	recs, err := parseRecommendations(resp.Content)
	if err != nil {
		logger.Log.Warnf("LLM 输出无法解析: %v, content=%q", err, resp.Content)
		return nil, apperr.Parse("decode llm output failed", err)
	}
	return recs, nil
}

// parseRecommendations 接受 JSON 数组或 {"recommendations": [...]}
func parseRecommendations(content string) (dm.Recommendations, error) {
	cleanContent := strings.TrimSpace(content)
	cleanContent = strings.TrimPrefix(cleanContent, "```json")
	cleanContent = strings.TrimPrefix(cleanContent, "```")
	cleanContent = strings.TrimSuffix(cleanContent, "```")
	cleanContent = strings.TrimSpace(cleanContent)

	var list []string
	if strings.HasPrefix(cleanContent, "{") {
		var wrapped struct {
			Recommendations []string `json:"recommendations"`
		}
		if err := json.Unmarshal([]byte(cleanContent), &wrapped); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
		list = wrapped.Recommendations
	} else if err := json.Unmarshal([]byte(cleanContent), &list); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	recs := make(dm.Recommendations, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			recs = append(recs, s)
		}
	}
	return recs, nil
}
