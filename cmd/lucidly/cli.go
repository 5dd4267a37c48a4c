package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iWorld-y/lucidly/internal/apperr"
	"github.com/iWorld-y/lucidly/internal/logger"
	"github.com/iWorld-y/lucidly/internal/model"
	"github.com/iWorld-y/lucidly/internal/storage"
	"github.com/iWorld-y/lucidly/internal/workflow"
)

const disclaimer = "Disclaimer: This tool is not a substitute for professional medical advice. " +
	"If you are in danger or crisis, contact local emergency services or a mental health professional."

const historyLimit = 5

const menuPrompt = "[l]isten/stop  [r]etry recommendations  [n]ew check-in  [c]lear answers  [h]istory  [q]uit > "

var questions = [model.FieldCount]string{
	model.FieldFeeling:   "How have you been feeling?",
	model.FieldEnergy:    "Sleep / Energy",
	model.FieldStressors: "Any stressors?",
}

// historyLister 读取最近的 check-in
type historyLister interface {
	ListRecent(ctx context.Context, limit int) ([]*storage.Record, error)
}

// cli 交互式终端
type cli struct {
	in      *bufio.Scanner
	out     io.Writer
	orch    *workflow.Orchestrator
	history historyLister
}

func newCLI(in io.Reader, out io.Writer, orch *workflow.Orchestrator, history historyLister) *cli {
	return &cli{in: bufio.NewScanner(in), out: out, orch: orch, history: history}
}

// run 一直运行到输入结束、用户退出或 ctx 被取消
func (c *cli) run(ctx context.Context) error {
	defer c.orch.StopSpeech()

	fmt.Fprintln(c.out, "Lucidly self check-in")
	fmt.Fprintln(c.out, disclaimer)

	for {
		if ok := c.askAnswers(); !ok {
			return nil
		}
		if err := c.orch.Submit(ctx); err != nil && !apperr.IsValidation(err) {
			logger.Log.Debugf("submit: %v", err)
		}
		c.orch.Wait()

		again, err := c.menu(ctx)
		if err != nil || !again {
			return err
		}
	}
}

// askAnswers 逐题提问，回车保留上一轮的答案
func (c *cli) askAnswers() bool {
	current := c.orch.Snapshot().Answers
	for i, q := range questions {
		field := model.Field(i)
		if current[field] != "" {
			fmt.Fprintf(c.out, "%s [%s]: ", q, current[field])
		} else {
			fmt.Fprintf(c.out, "%s: ", q)
		}
		line, ok := c.readLine()
		if !ok {
			return false
		}
		if line != "" {
			c.orch.UpdateAnswer(field, line)
		}
	}
	return true
}

// menu 返回 true 表示开始新一轮
func (c *cli) menu(ctx context.Context) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprint(c.out, menuPrompt)
		line, ok := c.readLine()
		if !ok {
			return false, nil
		}

		switch strings.ToLower(line) {
		case "l", "listen", "s", "stop":
			// 播放中总是可以停止，与当前持有的建议无关
			s := c.orch.Snapshot()
			if !s.Speaking && (len(s.Recommendations) == 0 || s.GeneratingRecommendations) {
				fmt.Fprintln(c.out, "No recommendations to read.")
				continue
			}
			if _, err := c.orch.ToggleSpeech(); err != nil {
				if errors.Is(err, workflow.ErrNoSpeech) {
					fmt.Fprintln(c.out, "Speech is not available.")
				} else {
					fmt.Fprintf(c.out, "! speech failed: %v\n", err)
				}
			}
		case "r", "retry":
			if c.orch.Snapshot().Result == nil {
				fmt.Fprintln(c.out, "Check in first.")
				continue
			}
			if err := c.orch.FetchRecommendations(ctx); err != nil {
				logger.Log.Debugf("fetch recommendations: %v", err)
			}
		case "n", "new":
			return true, nil
		case "c", "clear":
			for i := range questions {
				c.orch.UpdateAnswer(model.Field(i), "")
			}
			return true, nil
		case "h", "history":
			c.printHistory(ctx)
		case "q", "quit", "exit":
			return false, nil
		case "":
		default:
			fmt.Fprintf(c.out, "Unknown command: %s\n", line)
		}
	}
}

func (c *cli) printHistory(ctx context.Context) {
	if c.history == nil {
		fmt.Fprintln(c.out, "History is not configured.")
		return
	}
	records, err := c.history.ListRecent(ctx, historyLimit)
	if err != nil {
		logger.Log.Errorf("读取历史失败: %v", err)
		fmt.Fprintln(c.out, "! Failed to load history.")
		return
	}
	if len(records) == 0 {
		fmt.Fprintln(c.out, "No check-ins yet.")
		return
	}
	for _, r := range records {
		fmt.Fprintf(c.out, "%s  score %s (%s)  %d recommendation(s)\n",
			r.CreatedAt.Format("2006-01-02 15:04"), formatScore(r.Result.StressScore),
			r.Result.Band(), len(r.Recommendations))
	}
}

func (c *cli) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimRight(c.in.Text(), "\r"), true
}
