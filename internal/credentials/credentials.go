package credentials

import (
	"os"
	"strings"

	"github.com/fachebot/session-brief/internal/config"
	"github.com/fachebot/session-brief/internal/logger"
	"github.com/joho/godotenv"
)

// Store 按顺序从进程环境变量和 .env 文件中查找凭据
type Store struct {
	getenv   func(string) string
	envFiles []string
	cache    map[string]map[string]string
}

func NewStore(cfg *config.Credentials) *Store {
	files := make([]string, 0, len(cfg.EnvFiles))
	for _, f := range cfg.EnvFiles {
		files = append(files, config.ExpandPath(f))
	}
	return &Store{
		getenv:   os.Getenv,
		envFiles: files,
		cache:    make(map[string]map[string]string),
	}
}

// Lookup 依次查找 names 中的变量，环境变量优先于 .env 文件
func (s *Store) Lookup(names ...string) (string, bool) {
	for _, name := range names {
		if v := strings.TrimSpace(s.getenv(name)); v != "" {
			return v, true
		}
	}

	for _, file := range s.envFiles {
		values := s.readEnvFile(file)
		for _, name := range names {
			if v := unquote(values[name]); v != "" {
				logger.Debugf("[Credentials] 从 %s 读取 %s", file, name)
				return v, true
			}
		}
	}
	return "", false
}

func (s *Store) readEnvFile(file string) map[string]string {
	if values, ok := s.cache[file]; ok {
		return values
	}

	values, err := godotenv.Read(file)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("[Credentials] 解析 %s 失败: %v", file, err)
		}
		values = map[string]string{}
	}
	s.cache[file] = values
	return values
}

// unquote 去掉值两端残留的引号与空白
func unquote(v string) string {
	return strings.Trim(strings.TrimSpace(v), `"'`)
}
