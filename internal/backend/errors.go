package backend

import (
	"errors"
)

var (
	// ErrBackendUnavailable 可执行文件不存在或未配置 API Key
	ErrBackendUnavailable = errors.New("后端不可用")
	// ErrBackendTimeout 调用超时
	ErrBackendTimeout = errors.New("后端调用超时")
	// ErrBackendError 进程非零退出或 API 返回错误
	ErrBackendError = errors.New("后端调用失败")
	// ErrEmptyOutput 调用成功但输出为空
	ErrEmptyOutput = errors.New("后端返回空结果")
)

// Reason 返回错误对应的失败类型，用于日志
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBackendUnavailable):
		return "unavailable"
	case errors.Is(err, ErrBackendTimeout):
		return "timeout"
	case errors.Is(err, ErrEmptyOutput):
		return "empty"
	default:
		return "error"
	}
}
