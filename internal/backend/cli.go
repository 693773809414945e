package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/fachebot/session-brief/internal/config"
	"github.com/fachebot/session-brief/internal/logger"
)

const maxStderrLength = 500

// CLIInvoker 通过本地命令行工具推理，如 `claude -p <prompt>` 或 `gemini <prompt>`
type CLIInvoker struct {
	Command string
	Args    []string // 参数模板，{prompt} 会被替换为 prompt；没有占位符时追加到末尾
	// WaitDelay 进程被终止后等待输出管道关闭的时间
	WaitDelay time.Duration
}

func NewCLIInvoker(command string, args []string) *CLIInvoker {
	return &CLIInvoker{
		Command:   command,
		Args:      args,
		WaitDelay: 2 * time.Second,
	}
}

// buildArgs 替换参数模板中的占位符
func (c *CLIInvoker) buildArgs(prompt string) []string {
	args := make([]string, 0, len(c.Args)+1)
	replaced := false
	for _, arg := range c.Args {
		if strings.Contains(arg, config.PromptPlaceholder) {
			arg = strings.ReplaceAll(arg, config.PromptPlaceholder, prompt)
			replaced = true
		}
		args = append(args, arg)
	}
	if !replaced {
		args = append(args, prompt)
	}
	return args
}

func (c *CLIInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	path, err := exec.LookPath(c.Command)
	if err != nil {
		return "", fmt.Errorf("%w: 未找到 %s", ErrBackendUnavailable, c.Command)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, c.buildArgs(prompt)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = c.WaitDelay

	logger.Debugf("[Backend] 执行 %s", c.Command)
	err = cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrBackendTimeout, c.Command)
		}
		return "", ctxErr
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s 退出码 %d: %s", ErrBackendError, c.Command, exitErr.ExitCode(), shortStderr(stderr.String()))
		}
		return "", fmt.Errorf("%w: %s: %w", ErrBackendError, c.Command, err)
	}

	return stdout.String(), nil
}

func shortStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrLength {
		s = s[:maxStderrLength] + "..."
	}
	return s
}
