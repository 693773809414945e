package backend

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	KindCLI    Kind = "cli"
	KindGemini Kind = "gemini"
	KindOpenAI Kind = "openai"
)

// DefaultTimeout 未指定超时时间时使用
const DefaultTimeout = 60 * time.Second

// Invoker 执行一次推理调用，返回模型输出
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// InvokerFunc 让普通函数实现 Invoker
type InvokerFunc func(ctx context.Context, prompt string) (string, error)

func (f InvokerFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Backend 总结后端，按 Kind 区分本地 CLI 与远程 API
type Backend struct {
	Name    string
	Kind    Kind
	Timeout time.Duration
	Invoker Invoker
}

// Invoke 在独立的超时时间内调用后端，并把错误归类到 ErrBackendXXX
func (b Backend) Invoke(ctx context.Context, prompt string) (string, error) {
	if b.Invoker == nil {
		return "", fmt.Errorf("%w: %s 未配置调用方式", ErrBackendUnavailable, b.Name)
	}

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, err := b.Invoker.Invoke(ctx, prompt)
	if err != nil {
		return "", classify(ctx, err, timeout)
	}
	return output, nil
}

func classify(ctx context.Context, err error, timeout time.Duration) error {
	switch {
	case errors.Is(err, ErrBackendTimeout):
		return err
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w (%s): %w", ErrBackendTimeout, timeout, err)
	case errors.Is(err, ErrBackendUnavailable),
		errors.Is(err, ErrBackendError),
		errors.Is(err, ErrEmptyOutput):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrBackendError, err)
	}
}
