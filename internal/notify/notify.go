package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fachebot/session-brief/internal/logger"
	"github.com/mattn/go-isatty"
)

const (
	ModePrint = "print"
	ModeSpeak = "speak"
	ModeBoth  = "both"

	// MaxLineWidth 打印时的换行宽度
	MaxLineWidth = 80
)

// Speaker 朗读总结
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	bodyStyle  = lipgloss.NewStyle().Width(MaxLineWidth).PaddingLeft(2)
	metaStyle  = lipgloss.NewStyle().Faint(true).PaddingLeft(2)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

type Notifier struct {
	out     io.Writer
	speaker Speaker
	mode    string
	styled  bool // 仅在输出到终端时使用样式
}

func NewNotifier(out io.Writer, speaker Speaker, mode string) *Notifier {
	return &Notifier{
		out:     out,
		speaker: speaker,
		mode:    mode,
		styled:  isTerminal(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Notify 输出总结
// source 为生成总结的会话信息，仅在打印时显示
func (n *Notifier) Notify(ctx context.Context, content string, source string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	switch n.mode {
	case ModePrint, "":
		return n.print(content, source)
	case ModeSpeak:
		// 朗读失败时改为打印
		if err := n.speak(ctx, content); err != nil {
			logger.Errorf("[Notify] 朗读失败，改为打印: %v", err)
			return n.print(content, source)
		}
		return nil
	case ModeBoth:
		if err := n.print(content, source); err != nil {
			return err
		}
		// 朗读失败不影响文字输出
		if err := n.speak(ctx, content); err != nil {
			logger.Errorf("[Notify] 朗读失败: %v", err)
		}
		return nil
	default:
		logger.Warnf("[Notify] 未知的通知模式: %s", n.mode)
		return n.print(content, source)
	}
}

// RenderPlain 生成纯文本总结，总结内容原样输出
func RenderPlain(content string) string {
	return "📋 Session Brief:\n" + content
}

// Render 生成带样式的总结文本，会按终端宽度重新换行
func Render(content, source string) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("📋 Session Brief"))
	sb.WriteString("\n")
	sb.WriteString(bodyStyle.Render(content))
	if source != "" {
		sb.WriteString("\n")
		sb.WriteString(metaStyle.Render(source))
	}
	return boxStyle.Render(sb.String())
}

func (n *Notifier) print(content, source string) error {
	text := RenderPlain(content)
	if n.styled {
		text = Render(content, source)
	}
	if _, err := fmt.Fprintln(n.out, text); err != nil {
		return fmt.Errorf("输出总结失败: %w", err)
	}
	return nil
}

func (n *Notifier) speak(ctx context.Context, content string) error {
	if n.speaker == nil {
		logger.Warnf("[Notify] 未配置语音引擎")
		return nil
	}
	if err := n.speaker.Speak(ctx, content); err != nil {
		return fmt.Errorf("朗读总结失败: %w", err)
	}
	logger.Infof("[Notify] 已朗读总结")
	return nil
}
