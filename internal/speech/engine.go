package speech

import (
	"fmt"
	"os/exec"
	"sync"

	"github.com/iWorld-y/lucidly/internal/logger"
)

// Engine 平台 TTS 能力。同一时间只播放一段文本。
// onComplete 只在自然播放结束时调用，被 Cancel 的播放不会回调。
type Engine interface {
	Start(text string, onComplete func()) error
	Cancel()
}

// CommandEngine 通过外部命令朗读文本，例如 espeak、say
type CommandEngine struct {
	command string
	args    []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCommandEngine 文本会作为最后一个参数传给 command
func NewCommandEngine(command string, args ...string) *CommandEngine {
	return &CommandEngine{command: command, args: args}
}

var _ Engine = (*CommandEngine)(nil)

func (e *CommandEngine) Start(text string, onComplete func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelLocked()

	args := append(append([]string{}, e.args...), text)
	cmd := exec.Command(e.command, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s failed: %w", e.command, err)
	}
	e.cmd = cmd

	go func() {
		err := cmd.Wait()

		e.mu.Lock()
		natural := e.cmd == cmd
		if natural {
			e.cmd = nil
		}
		e.mu.Unlock()

		if !natural {
			return
		}
		if err != nil {
			logger.Log.Warnf("朗读进程异常退出 [%s]: %v", e.command, err)
		}
		if onComplete != nil {
			onComplete()
		}
	}()
	return nil
}

// Cancel 空闲时调用是安全的
func (e *CommandEngine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
}

func (e *CommandEngine) cancelLocked() {
	if e.cmd == nil {
		return
	}
	if e.cmd.Process != nil {
		if err := e.cmd.Process.Kill(); err != nil {
			logger.Log.Debugf("结束朗读进程失败: %v", err)
		}
	}
	e.cmd = nil
}
