package model

import "strings"

// RecommendationThreshold 压力分数严格大于该值时才请求建议
const RecommendationThreshold = 40

// Field 问卷中的题目下标
type Field int

const (
	FieldFeeling   Field = iota // 今天感觉如何
	FieldEnergy                 // 睡眠与精力
	FieldStressors              // 压力来源
)

// FieldCount 问卷题目数
const FieldCount = 3

func (f Field) Valid() bool { return f >= 0 && int(f) < FieldCount }

func (f Field) String() string {
	switch f {
	case FieldFeeling:
		return "feeling"
	case FieldEnergy:
		return "energy"
	case FieldStressors:
		return "stressors"
	}
	return "unknown"
}

// Answers 三道自由文本题的答案，顺序固定
type Answers [FieldCount]string

// Empty 三个答案去掉空白后都为空
func (a Answers) Empty() bool {
	return strings.TrimSpace(strings.Join(a[:], "")) == ""
}

// List 原样返回三个答案，不做 trim 或过滤
func (a Answers) List() []string {
	out := make([]string, FieldCount)
	copy(out, a[:])
	return out
}

// Text 用单个空格拼接三个答案，空答案也参与拼接
func (a Answers) Text() string {
	return strings.Join(a[:], " ")
}

// ScoreBand 压力分数区间
type ScoreBand string

const (
	BandLow    ScoreBand = "low"
	BandMedium ScoreBand = "medium"
	BandHigh   ScoreBand = "high"
)

// CheckInResult 分析服务返回的结果，收到后不再修改
type CheckInResult struct {
	StressScore float64  `json:"stress_score"`
	Explanation string   `json:"explanation"`
	Keywords    []string `json:"keywords"`
}

// Band 按分数划分区间: >70 高, >40 中, 其余低
func (r *CheckInResult) Band() ScoreBand {
	switch {
	case r.StressScore > 70:
		return BandHigh
	case r.StressScore > RecommendationThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// NeedsRecommendations 是否需要继续请求建议
func (r *CheckInResult) NeedsRecommendations() bool {
	return r.StressScore > RecommendationThreshold
}

// Clone 深拷贝
func (r *CheckInResult) Clone() *CheckInResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Keywords = append([]string{}, r.Keywords...)
	return &c
}

// Recommendations 建议列表，空列表表示"没有建议"
type Recommendations []string

// Utterance 拼成一段用于朗读的文本
func (r Recommendations) Utterance() string {
	return strings.Join(r, ". ")
}

func (r Recommendations) Clone() Recommendations {
	if r == nil {
		return nil
	}
	return append(Recommendations{}, r...)
}
