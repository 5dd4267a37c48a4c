// Package speech 管理建议的语音播放。
//
// Controller 是一个只有 Idle / Speaking 两个状态的状态机，
// 独占一个 Engine，不与其他播放方共享音频资源。
package speech

import (
	"fmt"
	"strings"
	"sync"

	"github.com/iWorld-y/lucidly/internal/model"
)

// Controller 语音播放控制器
type Controller struct {
	engine Engine

	// opMu 串行化对 engine 的操作；mu 只保护状态字段，
	// engine 同步回调 onComplete 时不会死锁。
	opMu sync.Mutex

	mu        sync.Mutex
	speaking  bool
	utterance uint64
	onChange  func()
}

// NewController 创建控制器
func NewController(engine Engine) *Controller {
	return &Controller{engine: engine}
}

// SetOnChange 状态变化后调用 fn，调用时不持有锁
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Speaking 当前是否在播放
func (c *Controller) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}

// Toggle 播放中则立即停止；空闲且有文本则开始播放。
// 返回调用结束后是否处于播放状态。
func (c *Controller) Toggle(recs model.Recommendations) (bool, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.speaking {
		c.stopLocked()
		c.mu.Unlock()
		c.engine.Cancel()
		c.notify()
		return false, nil
	}

	text := recs.Utterance()
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return false, nil
	}

	c.utterance++
	id := c.utterance
	c.speaking = true
	c.mu.Unlock()

	if err := c.engine.Start(text, func() { c.complete(id) }); err != nil {
		c.mu.Lock()
		if c.utterance == id {
			c.speaking = false
		}
		c.mu.Unlock()
		return false, fmt.Errorf("start speech failed: %w", err)
	}

	c.notify()
	return c.Speaking(), nil
}

// Stop 幂等，空闲时什么也不做
func (c *Controller) Stop() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if !c.speaking {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	c.mu.Unlock()

	c.engine.Cancel()
	c.notify()
}

func (c *Controller) stopLocked() {
	c.speaking = false
	// 让已取消的那段播放的完成回调失效
	c.utterance++
}

// complete 自然播放结束，旧的 utterance 回调直接忽略
func (c *Controller) complete(id uint64) {
	c.mu.Lock()
	if !c.speaking || c.utterance != id {
		c.mu.Unlock()
		return
	}
	c.speaking = false
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
