package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/go-cmp/cmp"

	"github.com/iWorld-y/lucidly/internal/apperr"
	dm "github.com/iWorld-y/lucidly/internal/model"
)

// fakeChatModel 返回固定内容并记录输入
type fakeChatModel struct {
	content string
	err     error
	input   []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.content}, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestGetRecommendations(t *testing.T) {
	cm := &fakeChatModel{content: "```json\n[\"Take a walk\", \" \", \"Sleep early\"]\n```"}
	r := NewRecommender(cm, nil)

	recs, err := r.GetRecommendations(context.Background(), "I feel awful barely slept work deadline")
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if diff := cmp.Diff(dm.Recommendations{"Take a walk", "Sleep early"}, recs); diff != "" {
		t.Errorf("recommendations mismatch (-want +got):\n%s", diff)
	}
	if len(cm.input) != 2 || !strings.Contains(cm.input[1].Content, "I feel awful barely slept work deadline") {
		t.Errorf("prompt does not carry the check-in text: %+v", cm.input)
	}
}

func TestGetRecommendationsWrappedObject(t *testing.T) {
	r := NewRecommender(&fakeChatModel{content: `{"recommendations": ["Breathe"]}`}, nil)
	recs, err := r.GetRecommendations(context.Background(), "x")
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(recs) != 1 || recs[0] != "Breathe" {
		t.Errorf("recs = %v", recs)
	}
}

func TestGetRecommendationsErrors(t *testing.T) {
	r := NewRecommender(&fakeChatModel{err: errors.New("status code: 429")}, nil)
	if _, err := r.GetRecommendations(context.Background(), "x"); !apperr.IsTransport(err) {
		t.Errorf("expected transport error, got %v", err)
	}

	r = NewRecommender(&fakeChatModel{content: "Sure! Here are some tips: walk."}, nil)
	if _, err := r.GetRecommendations(context.Background(), "x"); !apperr.IsParse(err) {
		t.Errorf("expected parse error, got %v", err)
	}
}
