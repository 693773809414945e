package backend

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/fachebot/session-brief/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("跳过：系统中没有 sh")
	}
}

func TestBackendInvoke_Success(t *testing.T) {
	b := Backend{
		Name: "fake",
		Kind: KindCLI,
		Invoker: InvokerFunc(func(ctx context.Context, prompt string) (string, error) {
			return "echo: " + prompt, nil
		}),
	}
	out, err := b.Invoke(context.Background(), "hi")
	assert.NoError(t, err)
	assert.Equal(t, "echo: hi", out)
}

func TestBackendInvoke_Classification(t *testing.T) {
	tests := []struct {
		name       string
		invokerErr error
		want       error
		reason     string
	}{
		{"已归类的错误保持不变", ErrBackendUnavailable, ErrBackendUnavailable, "unavailable"},
		{"空结果", ErrEmptyOutput, ErrEmptyOutput, "empty"},
		{"未归类的错误视为调用失败", errors.New("boom"), ErrBackendError, "error"},
		{"上下文超时视为超时", context.DeadlineExceeded, ErrBackendTimeout, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Backend{
				Name: "fake",
				Invoker: InvokerFunc(func(ctx context.Context, prompt string) (string, error) {
					return "", tt.invokerErr
				}),
			}
			_, err := b.Invoke(context.Background(), "p")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.reason, Reason(err))
		})
	}
}

func TestBackendInvoke_AppliesTimeout(t *testing.T) {
	b := Backend{
		Name:    "slow",
		Timeout: 20 * time.Millisecond,
		Invoker: InvokerFunc(func(ctx context.Context, prompt string) (string, error) {
			<-ctx.Done()
			return "", errors.New("request aborted")
		}),
	}
	start := time.Now()
	_, err := b.Invoke(context.Background(), "p")
	assert.ErrorIs(t, err, ErrBackendTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBackendInvoke_NilInvoker(t *testing.T) {
	_, err := Backend{Name: "none"}.Invoke(context.Background(), "p")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "ok", Reason(nil))
	assert.Equal(t, "timeout", Reason(ErrBackendTimeout))
	assert.Equal(t, "error", Reason(ErrBackendError))
}

func TestCLIInvoker_BuildArgs(t *testing.T) {
	c := NewCLIInvoker("claude", []string{"-p", "{prompt}", "--model", "haiku"})
	assert.Equal(t, []string{"-p", "hello", "--model", "haiku"}, c.buildArgs("hello"))

	// 没有占位符时追加到末尾
	c = NewCLIInvoker("llm", []string{"-m", "mini"})
	assert.Equal(t, []string{"-m", "mini", "hello"}, c.buildArgs("hello"))

	c = NewCLIInvoker("llm", nil)
	assert.Equal(t, []string{"hello"}, c.buildArgs("hello"))
}

func TestCLIInvoker_BuildArgsFromDefaultConfig(t *testing.T) {
	// 默认配置中的参数模板与调用方使用同一个占位符
	for _, b := range config.DefaultBackends() {
		if b.Kind != config.BackendKindCLI {
			continue
		}
		args := NewCLIInvoker(b.Command, b.Args).buildArgs("the prompt")
		assert.Contains(t, args, "the prompt", b.Name)
		assert.NotContains(t, args, config.PromptPlaceholder, b.Name)
		assert.Len(t, args, len(b.Args), b.Name)
	}
}

func TestCLIInvoker_Success(t *testing.T) {
	requireShell(t)
	c := NewCLIInvoker("sh", []string{"-c", `printf '  summary of %s  \n' "$0"`, "{prompt}"})

	out, err := c.Invoke(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, "  summary of work  \n", out)
}

func TestCLIInvoker_NotFound(t *testing.T) {
	c := NewCLIInvoker("session-brief-no-such-binary", nil)
	_, err := c.Invoke(context.Background(), "p")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestCLIInvoker_NonZeroExit(t *testing.T) {
	requireShell(t)
	c := NewCLIInvoker("sh", []string{"-c", "echo 'quota exceeded' >&2; exit 3"})

	_, err := c.Invoke(context.Background(), "p")
	require.ErrorIs(t, err, ErrBackendError)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "退出码 3")
}

func TestCLIInvoker_Timeout(t *testing.T) {
	requireShell(t)
	b := Backend{
		Name:    "sleepy",
		Kind:    KindCLI,
		Timeout: 100 * time.Millisecond,
		Invoker: NewCLIInvoker("sh", []string{"-c", "exec sleep 5"}),
	}

	start := time.Now()
	_, err := b.Invoke(context.Background(), "p")
	assert.ErrorIs(t, err, ErrBackendTimeout)
	assert.Equal(t, "timeout", Reason(err))
	assert.Less(t, time.Since(start), 4*time.Second)
}
