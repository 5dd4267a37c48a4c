// Package workflow 驱动一次 check-in：校验 → 提交分析 → 按分数决定是否请求建议，
// 并把整个过程汇总成一个状态快照交给展示层。
package workflow

import (
	"context"
	"errors"
	"sync"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/lucidly/internal/apperr"
	"github.com/iWorld-y/lucidly/internal/model"
	"github.com/iWorld-y/lucidly/internal/recommend"
)

// ErrSuperseded 响应到达时已经有更新的提交，结果被丢弃
var ErrSuperseded = errors.New("superseded by a newer request")

// ErrNoSpeech 没有配置语音播放
var ErrNoSpeech = errors.New("speech is not configured")

// Analyzer 分析服务
type Analyzer interface {
	SubmitCheckIn(ctx context.Context, answers []string) (*model.CheckInResult, error)
}

// Speaker 语音播放控制器
type Speaker interface {
	Toggle(recs model.Recommendations) (bool, error)
	Stop()
	Speaking() bool
	SetOnChange(fn func())
}

// Entry 一轮完整的 check-in，交给 Recorder 保存
type Entry struct {
	// ID 由 Recorder 在第一次保存时回填
	ID              int
	Answers         model.Answers
	Result          *model.CheckInResult
	Recommendations model.Recommendations
}

// Recorder 保存 check-in 历史。
// ID 为 0 时新增一条并回填 ID，否则用 e.Recommendations 替换该条记录的建议。
type Recorder interface {
	SaveCheckIn(ctx context.Context, e *Entry) error
}

// snapshotEntry 某次状态转换时的历史快照，seq 递增
type snapshotEntry struct {
	cycle uint64
	seq   uint64
	entry Entry
}

// Option 编排器选项
type Option func(*Orchestrator)

// WithRecorder 每轮结束后保存历史，保存失败只记日志
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithOnChange 每次状态变化后以快照回调 fn。
// fn 内可以调用 Snapshot，但不能调用其他会修改状态的方法。
func WithOnChange(fn func(State)) Option {
	return func(o *Orchestrator) { o.onChange = fn }
}

// Orchestrator 持有表单与工作流状态，所有修改都经过 transition
type Orchestrator struct {
	analyzer    Analyzer
	recommender recommend.Recommender
	speaker     Speaker
	recorder    Recorder
	onChange    func(State)
	log         *log.Helper

	mu         sync.Mutex
	state      State
	submitted  model.Answers
	recSeq     uint64
	saveSeq    uint64
	cancelRecs context.CancelFunc

	// recordMu 串行化历史写入，保护 entry 系列字段
	recordMu   sync.Mutex
	entry      *Entry
	entryCycle uint64
	entrySeq   uint64

	emitMu sync.Mutex
	wg     sync.WaitGroup
}

// NewOrchestrator speaker 可以为 nil
func NewOrchestrator(analyzer Analyzer, recommender recommend.Recommender, speaker Speaker, logger log.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		analyzer:    analyzer,
		recommender: recommender,
		speaker:     speaker,
		log:         log.NewHelper(logger),
	}
	o.state.Recommendations = model.Recommendations{}
	for _, opt := range opts {
		opt(o)
	}
	if speaker != nil {
		speaker.SetOnChange(o.emit)
	}
	return o
}

// UpdateAnswer 只修改表单，不做校验
func (o *Orchestrator) UpdateAnswer(field model.Field, text string) {
	o.transition(func(s *State) bool {
		return s.setAnswer(field, text)
	})
}

// Snapshot 返回当前状态的深拷贝
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	s := o.state.clone()
	o.mu.Unlock()

	if o.speaker != nil {
		s.Speaking = o.speaker.Speaking()
	}
	return s
}

// Submit 提交当前答案。分析成功且分数超过阈值时在后台请求建议，不等待其完成。
func (o *Orchestrator) Submit(ctx context.Context) error {
	var (
		cycle   uint64
		answers model.Answers
		invalid error
	)
	o.transition(func(s *State) bool {
		s.startCycle()
		o.cancelPendingLocked()

		cycle = s.Cycle
		answers = s.Answers
		if answers.Empty() {
			invalid = apperr.Validation(apperr.MsgAnswerRequired)
			s.failValidation(invalid)
			return true
		}
		s.beginAnalysis()
		return true
	})
	if invalid != nil {
		o.log.Infof("cycle %d: 没有填写任何答案", cycle)
		return invalid
	}

	res, err := o.analyzer.SubmitCheckIn(ctx, answers.List())

	stale := false
	var snap *snapshotEntry
	o.transition(func(s *State) bool {
		if s.Cycle != cycle {
			stale = true
			return false
		}
		s.finishAnalysis(res, err)
		if err == nil {
			o.submitted = answers
			// 需要建议的一轮在建议请求结束时保存
			if !res.NeedsRecommendations() {
				snap = o.snapshotEntryLocked()
			}
		}
		return true
	})
	if stale {
		o.log.Debugf("cycle %d: 分析结果已过期，丢弃", cycle)
		return ErrSuperseded
	}
	if err != nil {
		o.log.Warnw(log.DefaultMessageKey, "check-in 提交失败",
			"cycle", cycle, "reason", kerrors.Reason(err), "error", err)
		return err
	}
	o.log.Infof("cycle %d: stress_score=%.1f band=%s", cycle, res.StressScore, res.Band())

	// 后台任务不能因为调用方 ctx 结束而中断
	bg := context.WithoutCancel(ctx)
	if !res.NeedsRecommendations() {
		o.recordAsync(bg, snap)
		return nil
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		_, _ = o.fetchRecommendations(bg, cycle, answers.Text())
	}()
	return nil
}

// FetchRecommendations 用当前答案重新请求建议并等待结果。
// 新的请求会取代还未返回的旧请求。
func (o *Orchestrator) FetchRecommendations(ctx context.Context) error {
	o.mu.Lock()
	cycle := o.state.Cycle
	text := o.state.Answers.Text()
	o.mu.Unlock()

	_, err := o.fetchRecommendations(ctx, cycle, text)
	return err
}

func (o *Orchestrator) fetchRecommendations(ctx context.Context, cycle uint64, text string) (model.Recommendations, error) {
	var seq uint64
	stale := false
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.transition(func(s *State) bool {
		if s.Cycle != cycle {
			stale = true
			return false
		}
		o.cancelPendingLocked()
		o.recSeq++
		seq = o.recSeq
		o.cancelRecs = cancel
		s.beginRecommendations()
		return true
	})
	if stale {
		return nil, ErrSuperseded
	}

	recs, err := o.recommender.GetRecommendations(ctx, text)

	var snap *snapshotEntry
	o.transition(func(s *State) bool {
		if s.Cycle != cycle || o.recSeq != seq {
			stale = true
			return false
		}
		o.cancelRecs = nil
		s.finishRecommendations(recs, err)
		if s.Result != nil {
			snap = o.snapshotEntryLocked()
		}
		return true
	})
	if stale {
		o.log.Debugf("cycle %d: 建议结果已过期，丢弃", cycle)
		return nil, ErrSuperseded
	}
	// 成功或失败都更新这一轮的历史，失败时保留已有的建议
	o.recordAsync(context.WithoutCancel(ctx), snap)
	if err != nil {
		o.log.Warnw(log.DefaultMessageKey, "获取建议失败",
			"cycle", cycle, "reason", kerrors.Reason(err), "error", err)
		return nil, err
	}
	o.log.Infof("cycle %d: 收到 %d 条建议", cycle, len(recs))
	return recs, nil
}

// ToggleSpeech 播放或停止当前建议，返回是否正在播放
func (o *Orchestrator) ToggleSpeech() (bool, error) {
	if o.speaker == nil {
		return false, ErrNoSpeech
	}
	o.mu.Lock()
	recs := o.state.Recommendations.Clone()
	o.mu.Unlock()

	speaking, err := o.speaker.Toggle(recs)
	if err != nil {
		o.log.Warnf("朗读失败: %v", err)
	}
	return speaking, err
}

// StopSpeech 幂等
func (o *Orchestrator) StopSpeech() {
	if o.speaker != nil {
		o.speaker.Stop()
	}
}

// Wait 等待后台的建议请求和历史保存完成
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// transition 在锁内执行一次状态转换，fn 返回 true 表示状态有变化
func (o *Orchestrator) transition(fn func(s *State) bool) {
	o.mu.Lock()
	changed := fn(&o.state)
	o.mu.Unlock()

	if changed {
		o.emit()
	}
}

// cancelPendingLocked 放弃正在进行的建议请求，只影响 ctx，结果靠序号丢弃
func (o *Orchestrator) cancelPendingLocked() {
	if o.cancelRecs != nil {
		o.cancelRecs()
		o.cancelRecs = nil
	}
}

// emit 串行回调，保证展示层看到的快照顺序与状态变化顺序一致
func (o *Orchestrator) emit() {
	if o.onChange == nil {
		return
	}
	o.emitMu.Lock()
	defer o.emitMu.Unlock()
	o.onChange(o.Snapshot())
}

// snapshotEntryLocked 以当前状态生成历史快照，调用方持有 mu
func (o *Orchestrator) snapshotEntryLocked() *snapshotEntry {
	if o.recorder == nil {
		return nil
	}
	o.saveSeq++
	return &snapshotEntry{
		cycle: o.state.Cycle,
		seq:   o.saveSeq,
		entry: Entry{
			Answers:         o.submitted,
			Result:          o.state.Result.Clone(),
			Recommendations: o.state.Recommendations.Clone(),
		},
	}
}

func (o *Orchestrator) recordAsync(ctx context.Context, snap *snapshotEntry) {
	if snap == nil {
		return
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.record(ctx, snap)
	}()
}

// record 同一轮只新增一次，之后按快照顺序更新建议，乱序到达的旧快照直接丢弃
func (o *Orchestrator) record(ctx context.Context, snap *snapshotEntry) {
	o.recordMu.Lock()
	defer o.recordMu.Unlock()

	var e *Entry
	switch {
	case o.entry != nil && o.entryCycle == snap.cycle:
		if snap.seq <= o.entrySeq {
			return
		}
		e = o.entry
		e.Recommendations = snap.entry.Recommendations
		o.entrySeq = snap.seq
	case o.entry == nil || snap.cycle > o.entryCycle:
		e = &Entry{}
		*e = snap.entry
		o.entry, o.entryCycle, o.entrySeq = e, snap.cycle, snap.seq
	default:
		// 新一轮已经开始保存，旧的一轮单独写一条
		e = &Entry{}
		*e = snap.entry
	}

	if err := o.recorder.SaveCheckIn(ctx, e); err != nil {
		o.log.Errorf("保存 check-in 历史失败: %v", err)
	}
}
