package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/iWorld-y/lucidly/internal/model"
	"github.com/iWorld-y/lucidly/internal/workflow"
)

// renderer 把状态快照转换成终端输出，每个事件在一轮里只打印一次
type renderer struct {
	out io.Writer

	cycle    uint64
	shown    shownFlags
	speaking bool
}

type shownFlags struct {
	checking   bool
	submitErr  bool
	result     bool
	generating bool
	recs       bool
	recErr     bool
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

// Render 由编排器串行调用
func (r *renderer) Render(s workflow.State) {
	if s.Cycle != r.cycle {
		r.cycle = s.Cycle
		r.shown = shownFlags{}
	}

	if s.Submitting && !r.shown.checking {
		r.shown.checking = true
		fmt.Fprintln(r.out, "Checking...")
	}
	if s.SubmitError != nil && !r.shown.submitErr {
		r.shown.submitErr = true
		fmt.Fprintf(r.out, "! %s\n", s.SubmitMessage())
	}
	if s.Result != nil && !r.shown.result {
		r.shown.result = true
		r.printResult(s.Result)
	}

	if s.GeneratingRecommendations && !r.shown.generating {
		r.shown.generating = true
		r.shown.recs = false
		r.shown.recErr = false
		fmt.Fprintln(r.out, "Generating personalized recommendations...")
	}
	if s.RecommendationsRequested && !s.GeneratingRecommendations {
		switch {
		case s.RecommendationError != nil && !r.shown.recErr:
			r.shown.recErr = true
			r.shown.generating = false
			fmt.Fprintf(r.out, "! %s\n", s.RecommendationMessage())
		case s.RecommendationError == nil && !r.shown.recs:
			r.shown.recs = true
			r.shown.generating = false
			r.printRecommendations(s.Recommendations)
		}
	}

	if s.Speaking != r.speaking {
		r.speaking = s.Speaking
		if s.Speaking {
			fmt.Fprintln(r.out, "Speaking...")
		} else {
			fmt.Fprintln(r.out, "Stopped speaking.")
		}
	}
}

func (r *renderer) printResult(res *model.CheckInResult) {
	fmt.Fprintf(r.out, "Stress Score: %s (%s)\n", formatScore(res.StressScore), res.Band())
	if res.Explanation != "" {
		fmt.Fprintln(r.out, res.Explanation)
	}
	if len(res.Keywords) > 0 {
		fmt.Fprintf(r.out, "Contributing Keywords: %s\n", strings.Join(res.Keywords, ", "))
	} else {
		fmt.Fprintln(r.out, "Contributing Keywords: none")
	}
}

func (r *renderer) printRecommendations(recs model.Recommendations) {
	if len(recs) == 0 {
		fmt.Fprintln(r.out, "No recommendations.")
		return
	}
	fmt.Fprintln(r.out, "Recommendations:")
	for i, rec := range recs {
		fmt.Fprintf(r.out, "  %d. %s\n", i+1, rec)
	}
}

// formatScore 整数分数不带小数
func formatScore(score float64) string {
	if score == float64(int64(score)) {
		return fmt.Sprintf("%d", int64(score))
	}
	return fmt.Sprintf("%.1f", score)
}
