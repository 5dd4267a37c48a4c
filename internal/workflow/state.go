package workflow

import (
	"github.com/iWorld-y/lucidly/internal/apperr"
	"github.com/iWorld-y/lucidly/internal/model"
)

// State 展示层看到的完整工作流状态
type State struct {
	Answers model.Answers
	// Cycle 每次提交加一，用于丢弃过期响应
	Cycle uint64

	Submitting  bool
	SubmitError error
	Result      *model.CheckInResult

	GeneratingRecommendations bool
	// RecommendationsRequested 区分"还没请求"和"请求成功但没有建议"
	RecommendationsRequested bool
	RecommendationError      error
	Recommendations          model.Recommendations

	Speaking bool
}

// SubmitMessage 提交错误的用户文案
func (s State) SubmitMessage() string { return apperr.SubmitMessage(s.SubmitError) }

// RecommendationMessage 建议错误的用户文案
func (s State) RecommendationMessage() string {
	return apperr.RecommendationMessage(s.RecommendationError)
}

func (s State) clone() State {
	c := s
	c.Result = s.Result.Clone()
	c.Recommendations = s.Recommendations.Clone()
	return c
}

// 以下是状态转换，调用方负责加锁

func (s *State) setAnswer(field model.Field, text string) bool {
	if !field.Valid() {
		return false
	}
	s.Answers[field] = text
	return true
}

// startCycle 开始新一轮提交，清空上一轮的结果和错误
func (s *State) startCycle() {
	s.Cycle++
	s.Submitting = false
	s.SubmitError = nil
	s.Result = nil
	s.GeneratingRecommendations = false
	s.RecommendationsRequested = false
	s.RecommendationError = nil
	s.Recommendations = model.Recommendations{}
}

func (s *State) failValidation(err error) {
	s.SubmitError = err
}

func (s *State) beginAnalysis() {
	s.Submitting = true
}

func (s *State) finishAnalysis(res *model.CheckInResult, err error) {
	s.Submitting = false
	if err != nil {
		s.SubmitError = err
		return
	}
	s.Result = res.Clone()
}

func (s *State) beginRecommendations() {
	s.GeneratingRecommendations = true
	s.RecommendationsRequested = true
	s.RecommendationError = nil
}

// finishRecommendations 失败时不动 Result
func (s *State) finishRecommendations(recs model.Recommendations, err error) {
	s.GeneratingRecommendations = false
	if err != nil {
		s.RecommendationError = err
		return
	}
	if recs == nil {
		recs = model.Recommendations{}
	}
	s.Recommendations = recs.Clone()
}
