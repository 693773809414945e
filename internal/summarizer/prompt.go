package summarizer

import (
	"fmt"
	"strings"

	"github.com/fachebot/session-brief/internal/model"
)

// PromptOptions 控制 prompt 的长度上限
type PromptOptions struct {
	MessageCharLimit int // 每条消息最多保留的字符数
	MaxMessages      int // 最多包含的消息条数，超出时保留最后的消息
}

const promptTemplate = `Summarize this coding-assistant conversation in 2-3 sentences, focusing on:
- What was accomplished or decided
- Key information or findings
- Any pending actions or next steps

Keep it concise and suitable for reading aloud as a brief status update.

Conversation:
%s

Summary:`

// messagesToPromptText 将消息转为 "User: 内容" 格式，消息之间空一行
func messagesToPromptText(msgs []model.Message, opts PromptOptions) string {
	if opts.MaxMessages > 0 && len(msgs) > opts.MaxMessages {
		msgs = msgs[len(msgs)-opts.MaxMessages:]
	}

	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = fmt.Sprintf("%s: %s", m.Role.Label(), model.Truncate(m.Content, opts.MessageCharLimit))
	}
	return strings.Join(lines, "\n\n")
}

// BuildPrompt 生成总结 prompt
func BuildPrompt(msgs []model.Message, opts PromptOptions) string {
	return fmt.Sprintf(promptTemplate, messagesToPromptText(msgs, opts))
}
