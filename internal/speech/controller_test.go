package speech

import (
	"errors"
	"sync"
	"testing"

	"github.com/iWorld-y/lucidly/internal/model"
)

// fakeEngine 记录调用，由测试决定何时"播放结束"
type fakeEngine struct {
	mu         sync.Mutex
	started    []string
	cancels    int
	onComplete func()
	startErr   error
	syncFinish bool
}

func (f *fakeEngine) Start(text string, onComplete func()) error {
	f.mu.Lock()
	if f.startErr != nil {
		f.mu.Unlock()
		return f.startErr
	}
	f.started = append(f.started, text)
	f.onComplete = onComplete
	syncFinish := f.syncFinish
	f.mu.Unlock()

	if syncFinish {
		onComplete()
	}
	return nil
}

func (f *fakeEngine) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func (f *fakeEngine) finish() {
	f.mu.Lock()
	fn := f.onComplete
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

var recs = model.Recommendations{"Take a short walk", "Drink some water"}

func TestToggleStartsAndJoinsSentences(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(eng)

	speaking, err := c.Toggle(recs)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !speaking || !c.Speaking() {
		t.Fatalf("expected Speaking after first toggle")
	}
	if len(eng.started) != 1 || eng.started[0] != "Take a short walk. Drink some water" {
		t.Errorf("started = %q", eng.started)
	}
}

func TestToggleTwiceReturnsToIdle(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(eng)

	if _, err := c.Toggle(recs); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	speaking, err := c.Toggle(recs)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if speaking || c.Speaking() {
		t.Fatalf("expected Idle after second toggle")
	}
	if eng.cancels != 1 {
		t.Errorf("cancels = %d, want 1", eng.cancels)
	}
	if len(eng.started) != 1 {
		t.Errorf("second toggle must not start playback, started = %q", eng.started)
	}

	// 已取消播放的完成回调不能再改变状态
	eng.finish()
	if c.Speaking() {
		t.Errorf("stale completion changed state")
	}
}

func TestToggleEmptyIsNoop(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(eng)

	for _, r := range []model.Recommendations{nil, {}, {""}} {
		speaking, err := c.Toggle(r)
		if err != nil || speaking {
			t.Errorf("Toggle(%q) = %v, %v; want false, nil", r, speaking, err)
		}
	}
	if len(eng.started) != 0 || eng.cancels != 0 {
		t.Errorf("engine should not be touched: started=%q cancels=%d", eng.started, eng.cancels)
	}
}

func TestNaturalCompletion(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(eng)
	changes := 0
	c.SetOnChange(func() { changes++ })

	if _, err := c.Toggle(recs); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	eng.finish()
	if c.Speaking() {
		t.Fatalf("expected Idle after natural completion")
	}
	if changes != 2 {
		t.Errorf("onChange called %d times, want 2", changes)
	}

	// 结束后再次 toggle 会重新开始播放
	if speaking, _ := c.Toggle(recs); !speaking {
		t.Errorf("expected Speaking after toggling again")
	}
}

func TestSynchronousCompletion(t *testing.T) {
	c := NewController(&fakeEngine{syncFinish: true})
	speaking, err := c.Toggle(recs)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if speaking || c.Speaking() {
		t.Errorf("expected Idle when engine finishes inside Start")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(eng)

	c.Stop()
	if eng.cancels != 0 {
		t.Errorf("Stop while idle must not cancel, cancels = %d", eng.cancels)
	}

	if _, err := c.Toggle(recs); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	c.Stop()
	c.Stop()
	if c.Speaking() || eng.cancels != 1 {
		t.Errorf("speaking = %v, cancels = %d", c.Speaking(), eng.cancels)
	}
}

func TestStartFailureStaysIdle(t *testing.T) {
	c := NewController(&fakeEngine{startErr: errors.New("espeak: not found")})
	speaking, err := c.Toggle(recs)
	if err == nil {
		t.Fatalf("expected error")
	}
	if speaking || c.Speaking() {
		t.Errorf("expected Idle after start failure")
	}
}
