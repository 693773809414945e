package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fachebot/session-brief/internal/backend"
	"github.com/fachebot/session-brief/internal/logger"
	"github.com/fachebot/session-brief/internal/model"
)

var (
	// ErrNoSummaryAvailable 所有后端都失败
	ErrNoSummaryAvailable = errors.New("无法生成总结：所有后端均失败")
	// ErrNoMessages 没有可总结的消息
	ErrNoMessages = errors.New("没有可总结的消息")
)

// backendInvoker 单个总结后端（便于测试注入 mock）
type backendInvoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

type namedBackend struct {
	name    string
	invoker backendInvoker
}

// Resolver 按优先级依次尝试各个后端，返回第一个非空结果
type Resolver struct {
	backends []namedBackend
	prompt   PromptOptions
}

func NewResolver(backends []backend.Backend, opts PromptOptions) *Resolver {
	r := &Resolver{prompt: opts}
	for _, b := range backends {
		r.backends = append(r.backends, namedBackend{name: b.Name, invoker: b})
	}
	return r
}

// Resolve 生成总结。后端之间串行执行，每个后端只尝试一次
func (r *Resolver) Resolve(ctx context.Context, msgs []model.Message) (string, error) {
	if len(msgs) == 0 {
		return "", ErrNoMessages
	}

	prompt := BuildPrompt(msgs, r.prompt)
	logger.Debugf("[Resolver] prompt 长度 %d，消息 %d 条", len(prompt), len(msgs))

	for i, b := range r.backends {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrNoSummaryAvailable, err)
		}
		if i > 0 {
			logger.Infof("[Resolver] 回退到 %s", b.name)
		}

		start := time.Now()
		output, err := b.invoker.Invoke(ctx, prompt)
		if err == nil {
			output = strings.TrimSpace(output)
			if output == "" {
				err = fmt.Errorf("%w: %s", backend.ErrEmptyOutput, b.name)
			}
		}
		if err != nil {
			logger.Warnf("[Resolver] %s 失败 (%s): %v", b.name, backend.Reason(err), err)
			continue
		}

		logger.Infof("[Resolver] %s 生成总结成功，耗时 %s", b.name, time.Since(start).Round(time.Millisecond))
		return output, nil
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoSummaryAvailable, err)
	}
	return "", ErrNoSummaryAvailable
}
