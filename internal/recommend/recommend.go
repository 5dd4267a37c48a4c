package recommend

import (
	"context"

	"github.com/iWorld-y/lucidly/internal/model"
)

// Recommender 根据用户的 check-in 文本生成建议
type Recommender interface {
	GetRecommendations(ctx context.Context, text string) (model.Recommendations, error)
}
