package backend

import (
	"context"

	"github.com/iWorld-y/lucidly/internal/apperr"
	"github.com/iWorld-y/lucidly/internal/model"
)

// CheckRequest /api/check 请求体
type CheckRequest struct {
	Answers []string `json:"answers"`
}

// CheckResponse /api/check 响应体
type CheckResponse struct {
	StressScore *float64 `json:"stress_score"`
	Explanation string   `json:"explanation"`
	Keywords    []string `json:"keywords"`
}

// AnalysisClient 提交 check-in 并获取压力分析
type AnalysisClient struct {
	t *transport
}

// NewAnalysisClient 创建分析客户端
func NewAnalysisClient(baseURL string, opts ...Option) *AnalysisClient {
	return &AnalysisClient{t: newTransport(baseURL, opts...)}
}

// SubmitCheckIn 按顺序提交三个答案
func (c *AnalysisClient) SubmitCheckIn(ctx context.Context, answers []string) (*model.CheckInResult, error) {
	if answers == nil {
		answers = []string{}
	}

	var resp CheckResponse
	if err := c.t.postJSON(ctx, checkPath, CheckRequest{Answers: answers}, &resp); err != nil {
		return nil, err
	}
	return resp.toResult()
}

func (r *CheckResponse) toResult() (*model.CheckInResult, error) {
	if r.StressScore == nil {
		return nil, apperr.Parse("response has no stress_score", nil)
	}
	keywords := r.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return &model.CheckInResult{
		StressScore: *r.StressScore,
		Explanation: r.Explanation,
		Keywords:    keywords,
	}, nil
}
