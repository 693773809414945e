package transcript

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fachebot/session-brief/internal/logger"
	"github.com/fachebot/session-brief/internal/model"
)

// ParseOptions 消息提取参数
type ParseOptions struct {
	MaxContentLength int // 单条消息截断长度
	MinContentLength int // 短于该长度的消息视为噪音
}

// 会话文件中的一行记录
type line struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Message   *struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// ParseFile 逐行读取会话文件，按记录顺序返回用户与助手消息
func ParseFile(path string, opts ParseOptions) ([]model.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开会话文件失败: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 工具输出可能很长

	var messages []model.Message
	skipped := 0
	for sc.Scan() {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}

		var l line
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			skipped++
			continue
		}
		if msg, ok := l.toMessage(opts); ok {
			messages = append(messages, msg)
		}
	}

	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			logger.Warnf("[Transcript] 遇到超长记录，解析提前结束: %s", path)
		} else {
			return nil, fmt.Errorf("读取会话文件失败: %w", err)
		}
	}
	if skipped > 0 {
		logger.Debugf("[Transcript] 跳过 %d 行无法解析的记录", skipped)
	}

	return messages, nil
}

func (l *line) toMessage(opts ParseOptions) (model.Message, bool) {
	if l.Type != string(model.RoleUser) && l.Type != string(model.RoleAssistant) {
		return model.Message{}, false
	}
	if l.Message == nil {
		return model.Message{}, false
	}

	role := l.Message.Role
	if role == "" {
		role = l.Type
	}

	content := extractText(l.Message.Content)
	if content == "" || utf8.RuneCountInString(content) <= opts.MinContentLength {
		return model.Message{}, false
	}
	if isToolPayload(content) || isSystemContent(content) {
		return model.Message{}, false
	}

	msg := model.Message{
		Role:    model.Role(role),
		Content: model.Truncate(content, opts.MaxContentLength),
	}
	if l.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, l.Timestamp); err == nil {
			msg.Timestamp = &ts
		}
	}
	return msg, true
}

// extractText content 可能是字符串，也可能是内容块数组；只保留文本块
func extractText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}

	var texts []string
	for _, part := range parts {
		var s string
		if err := json.Unmarshal(part, &s); err == nil {
			texts = append(texts, s)
			continue
		}
		var block struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(part, &block); err != nil {
			continue
		}
		// tool_use / tool_result / thinking 直接忽略
		if block.Type == "text" {
			texts = append(texts, block.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func isToolPayload(content string) bool {
	return strings.HasPrefix(content, `[{"tool_use_id"`) ||
		strings.HasPrefix(content, `{"type":"tool`)
}

// isSystemContent 系统注入的内容不属于对话本身
func isSystemContent(content string) bool {
	return strings.HasPrefix(content, "<local-command-") ||
		strings.HasPrefix(content, "<command-name>") ||
		strings.Contains(content, "<system-reminder>")
}
