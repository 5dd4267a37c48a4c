package backend

import (
	"context"

	"github.com/iWorld-y/lucidly/internal/model"
)

// RecommendationRequest /api/recommendations 请求体
type RecommendationRequest struct {
	Text string `json:"text"`
}

// RecommendationResponse /api/recommendations 响应体
type RecommendationResponse struct {
	Recommendations []string `json:"recommendations"`
}

// RecommendationClient 获取建议
type RecommendationClient struct {
	t *transport
}

// NewRecommendationClient 创建建议客户端
func NewRecommendationClient(baseURL string, opts ...Option) *RecommendationClient {
	return &RecommendationClient{t: newTransport(baseURL, opts...)}
}

// GetRecommendations 缺失 recommendations 字段时返回空列表
func (c *RecommendationClient) GetRecommendations(ctx context.Context, text string) (model.Recommendations, error) {
	var resp RecommendationResponse
	if err := c.t.postJSON(ctx, recommendationsPath, RecommendationRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if resp.Recommendations == nil {
		return model.Recommendations{}, nil
	}
	return model.Recommendations(resp.Recommendations), nil
}
