package brief

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fachebot/session-brief/internal/logger"
	"github.com/fachebot/session-brief/internal/model"
	"github.com/fachebot/session-brief/internal/summarizer"
	"github.com/fachebot/session-brief/internal/transcript"
)

// resolver 生成总结
type resolver interface {
	Resolve(ctx context.Context, msgs []model.Message) (string, error)
}

// notifier 输出总结
type notifier interface {
	Notify(ctx context.Context, content string, source string) error
}

// Options 单次简报的参数
type Options struct {
	SessionPath string        // 为空时自动查找最近的会话
	MaxMessages int           // 取最近几条消息
	Since       time.Duration // 大于 0 时只保留该时间段内的消息
}

// Report 单次简报的结果
type Report struct {
	SessionPath string
	ModTime     time.Time
	Messages    int
	Summary     string
}

// Briefer 查找会话、提取消息、生成总结并输出
type Briefer struct {
	projectsDir string
	parseOpts   transcript.ParseOptions
	resolver    resolver
	notifier    notifier
	now         func() time.Time
}

func NewBriefer(projectsDir string, parseOpts transcript.ParseOptions, r resolver, n notifier) *Briefer {
	return &Briefer{
		projectsDir: projectsDir,
		parseOpts:   parseOpts,
		resolver:    r,
		notifier:    n,
		now:         time.Now,
	}
}

// Locate 返回本次要总结的会话文件及其修改时间
func (b *Briefer) Locate(opts Options) (string, time.Time, error) {
	path := opts.SessionPath
	if path == "" {
		var err error
		path, err = transcript.FindLatest(b.projectsDir)
		if err != nil {
			return "", time.Time{}, err
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", time.Time{}, fmt.Errorf("%w: %s", transcript.ErrNoSession, path)
		}
		return "", time.Time{}, err
	}
	return path, info.ModTime(), nil
}

// Run 执行一次简报
func (b *Briefer) Run(ctx context.Context, opts Options) (*Report, error) {
	path, modTime, err := b.Locate(opts)
	if err != nil {
		return nil, err
	}
	logger.Debugf("[Brief] 会话文件: %s", path)

	msgs, err := transcript.ParseFile(path, b.parseOpts)
	if err != nil {
		return nil, err
	}

	var cutoff *time.Time
	if opts.Since > 0 {
		t := b.now().Add(-opts.Since)
		cutoff = &t
	}
	msgs = transcript.Window(msgs, opts.MaxMessages, cutoff)
	if len(msgs) == 0 {
		return nil, summarizer.ErrNoMessages
	}
	logger.Infof("[Brief] 总结最近 %d 条消息", len(msgs))

	summary, err := b.resolver.Resolve(ctx, msgs)
	if err != nil {
		return nil, err
	}

	report := &Report{
		SessionPath: path,
		ModTime:     modTime,
		Messages:    len(msgs),
		Summary:     summary,
	}
	source := fmt.Sprintf("%s · %d messages", filepath.Base(path), len(msgs))
	if err := b.notifier.Notify(ctx, summary, source); err != nil {
		return report, err
	}
	return report, nil
}
