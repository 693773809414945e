package transcript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var ErrNoSession = errors.New("未找到会话记录")

// FindLatest 在 projectsDir 的各个项目目录下查找最近修改的 .jsonl 会话文件
func FindLatest(projectsDir string) (string, error) {
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("读取会话目录失败: %w", err)
	}

	var (
		latest     string
		latestTime time.Time
	)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		files, err := filepath.Glob(filepath.Join(projectsDir, entry.Name(), "*.jsonl"))
		if err != nil {
			continue
		}
		for _, file := range files {
			info, err := os.Stat(file)
			if err != nil || info.IsDir() {
				continue
			}
			if info.ModTime().After(latestTime) {
				latestTime = info.ModTime()
				latest = file
			}
		}
	}

	if latest == "" {
		return "", ErrNoSession
	}
	return latest, nil
}
