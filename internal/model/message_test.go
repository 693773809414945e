package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		limit int
		want  string
	}{
		{"短于上限", "hello", 10, "hello"},
		{"等于上限", "hello", 5, "hello"},
		{"超过上限", "hello world", 5, "hello"},
		{"多字节字符", "你好世界", 2, "你好"},
		{"上限为 0 不截断", "hello", 0, "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.s, tt.limit))
		})
	}
}

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "User", RoleUser.Label())
	assert.Equal(t, "Claude", RoleAssistant.Label())
}
