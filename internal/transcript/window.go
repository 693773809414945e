package transcript

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fachebot/session-brief/internal/logger"
	"github.com/fachebot/session-brief/internal/model"
)

var ErrInvalidSince = errors.New("无法解析时间范围，示例: \"5 min\", \"1 hour\", \"30 sec\"")

var sincePattern = regexp.MustCompile(`^(\d+)\s*(sec|min|hour|hr|h|m|s)`)

// ParseSince 解析 "5 min"、"1 hour"、"30s" 这类时间范围
func ParseSince(input string) (time.Duration, error) {
	match := sincePattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(input)))
	if match == nil {
		return 0, ErrInvalidSince
	}

	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, ErrInvalidSince
	}

	unit := time.Hour
	switch match[2] {
	case "sec", "s":
		unit = time.Second
	case "min", "m":
		unit = time.Minute
	}
	// 超出 time.Duration 范围时乘法会溢出
	if int64(value) > math.MaxInt64/int64(unit) {
		return 0, ErrInvalidSince
	}
	return time.Duration(value) * unit, nil
}

// Window 选出需要总结的消息：先按 cutoff 过滤，再取最后 limit 条（limit<=0 表示不限）
// 设置了 cutoff 时，没有时间戳的消息无法判断是否在范围内，会被丢弃
func Window(messages []model.Message, limit int, cutoff *time.Time) []model.Message {
	result := messages
	if cutoff != nil {
		result = make([]model.Message, 0, len(messages))
		dropped := 0
		for _, m := range messages {
			if m.Timestamp == nil {
				dropped++
				continue
			}
			if !m.Timestamp.Before(*cutoff) {
				result = append(result, m)
			}
		}
		if dropped > 0 {
			logger.Debugf("[Transcript] %d 条消息缺少时间戳，已按时间范围过滤掉", dropped)
		}
	}

	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result
}
