package model

import (
	"time"
	"unicode/utf8"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message 从会话记录中提取出的一条对话消息，提取后不再修改
type Message struct {
	Role      Role
	Content   string
	Timestamp *time.Time // 记录中没有或无法解析时为 nil
}

// Label 生成 prompt 时使用的角色名
func (r Role) Label() string {
	if r == RoleUser {
		return "User"
	}
	return "Claude"
}

// Truncate 按字符数截断，不会切断多字节字符
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
