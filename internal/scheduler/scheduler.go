package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fachebot/session-brief/internal/brief"
	"github.com/fachebot/session-brief/internal/logger"
	"github.com/fachebot/session-brief/internal/summarizer"
	"github.com/fachebot/session-brief/internal/transcript"
	"github.com/robfig/cron/v3"
)

// briefRunner 执行单次简报（便于测试注入 mock）
type briefRunner interface {
	Locate(opts brief.Options) (string, time.Time, error)
	Run(ctx context.Context, opts brief.Options) (*brief.Report, error)
}

// Scheduler 按 cron 表达式定期生成简报，会话没有变化时跳过
type Scheduler struct {
	cron     *cron.Cron
	briefer  briefRunner
	opts     brief.Options
	expr     string
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	running  bool
	lastPath string
	lastMod  time.Time
}

func NewScheduler(briefer briefRunner, expr string, opts brief.Options) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		briefer: briefer,
		opts:    opts,
		expr:    expr,
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	// 注册简报任务
	_, err := s.cron.AddFunc(s.expr, s.runBrief)
	if err != nil {
		return fmt.Errorf("注册简报任务失败: %w", err)
	}

	s.cron.Start()
	logger.Infof("[Scheduler] 调度器已启动，简报任务: %s", s.expr)

	// 启动时先执行一次
	go s.runBrief()

	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Infof("[Scheduler] 调度器已停止")
}

// runBrief 执行简报任务（cron 触发）
func (s *Scheduler) runBrief() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		logger.Infof("[Scheduler] 任务已取消，退出")
		return
	default:
	}

	if _, err := s.RunOnce(ctx); err != nil {
		logger.Errorf("[Scheduler] 简报执行失败: %v", err)
	}
}

// RunOnce 执行一次简报，返回是否真正生成了总结
// 上一次执行尚未结束、会话没有变化或没有新消息时跳过
func (s *Scheduler) RunOnce(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Infof("[Scheduler] 上一次简报尚未结束，跳过")
		return false, nil
	}
	s.running = true
	lastPath, lastMod := s.lastPath, s.lastMod
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	path, modTime, err := s.briefer.Locate(s.opts)
	if err != nil {
		if errors.Is(err, transcript.ErrNoSession) {
			logger.Infof("[Scheduler] 暂无会话记录，跳过")
			return false, nil
		}
		return false, err
	}
	if path == lastPath && modTime.Equal(lastMod) {
		logger.Debugf("[Scheduler] 会话没有变化，跳过: %s", path)
		return false, nil
	}

	// 固定本次要总结的会话，避免 Locate 与 Run 之间切换到别的文件
	opts := s.opts
	opts.SessionPath = path
	report, err := s.briefer.Run(ctx, opts)
	if err != nil {
		if errors.Is(err, summarizer.ErrNoMessages) {
			logger.Infof("[Scheduler] 时间范围内没有新消息，跳过")
			return false, nil
		}
		return false, err
	}

	s.mu.Lock()
	s.lastPath, s.lastMod = report.SessionPath, report.ModTime
	s.mu.Unlock()
	logger.Infof("[Scheduler] 简报完成: %s (%d 条消息)", report.SessionPath, report.Messages)
	return true, nil
}
