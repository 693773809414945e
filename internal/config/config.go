package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	BackendKindCLI    = "cli"
	BackendKindGemini = "gemini"
	BackendKindOpenAI = "openai"

	// PromptPlaceholder CLI 参数模板中的 prompt 占位符
	PromptPlaceholder = "{prompt}"
)

type Log struct {
	Dir   string `yaml:"Dir"`   // 为空时不写日志文件
	Level string `yaml:"Level"` // debug / info / warn / error
}

type Sock5Proxy struct {
	Host   string `yaml:"Host"`
	Port   int32  `yaml:"Port"`
	Enable bool   `yaml:"Enable"`
}

type Transcript struct {
	ProjectsDir      string `yaml:"ProjectsDir"`      // 会话目录，默认 ~/.claude/projects
	MaxMessages      int    `yaml:"MaxMessages"`      // 默认取最近几条消息
	MaxContentLength int    `yaml:"MaxContentLength"` // 单条消息提取时的最大长度
	MinContentLength int    `yaml:"MinContentLength"` // 不超过该长度的消息直接跳过
}

type Prompt struct {
	MessageCharLimit int `yaml:"MessageCharLimit"` // prompt 中每条消息的字符上限
	MaxMessages      int `yaml:"MaxMessages"`      // prompt 中最多包含的消息条数
}

type Backend struct {
	Name    string   `yaml:"Name"`
	Kind    string   `yaml:"Kind"`    // cli / gemini / openai
	Command string   `yaml:"Command"` // Kind=cli 时的可执行文件
	Args    []string `yaml:"Args"`    // Kind=cli 时的参数模板，{prompt} 会被替换
	Model   string   `yaml:"Model"`
	BaseURL string   `yaml:"BaseURL"` // Kind=openai 时兼容 OpenAI API 的端点
	KeyEnv  []string `yaml:"KeyEnv"`  // API Key 的变量名，按顺序查找
	Timeout int      `yaml:"Timeout"` // 超时时间（秒）
}

type Credentials struct {
	EnvFiles []string `yaml:"EnvFiles"` // 按顺序读取的 .env 文件
}

type Speech struct {
	Engine      string   `yaml:"Engine"` // edge / gemini
	Voice       string   `yaml:"Voice"`
	Rate        string   `yaml:"Rate"`
	GeminiModel string   `yaml:"GeminiModel"`
	GeminiVoice string   `yaml:"GeminiVoice"`
	Players     []string `yaml:"Players"`
}

type Watch struct {
	Cron string `yaml:"Cron"` // cron 表达式，如 "*/30 * * * *"
}

type Config struct {
	Log         Log         `yaml:"Log"`
	Sock5Proxy  Sock5Proxy  `yaml:"Sock5Proxy"`
	Transcript  Transcript  `yaml:"Transcript"`
	Prompt      Prompt      `yaml:"Prompt"`
	Backends    []Backend   `yaml:"Backends"`
	Credentials Credentials `yaml:"Credentials"`
	Speech      Speech      `yaml:"Speech"`
	Watch       Watch       `yaml:"Watch"`
	NotifyMode  string      `yaml:"NotifyMode"` // print / speak / both
}

// GeminiKeyEnv Gemini API Key 的默认变量名
var GeminiKeyEnv = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// Default 返回默认配置，没有配置文件时直接使用
func Default() *Config {
	return &Config{
		Log: Log{Level: "info"},
		Transcript: Transcript{
			ProjectsDir:      "~/.claude/projects",
			MaxMessages:      5,
			MaxContentLength: 2000,
			MinContentLength: 20,
		},
		Prompt: Prompt{
			MessageCharLimit: 500,
			MaxMessages:      20,
		},
		Backends: DefaultBackends(),
		Credentials: Credentials{
			EnvFiles: []string{".env", "~/.claude/.env", "~/.claude/skills/.env"},
		},
		Speech: Speech{
			Engine:      "edge",
			Voice:       "en-GB-RyanNeural",
			Rate:        "+40%",
			GeminiModel: "gemini-2.5-flash-preview-tts",
			GeminiVoice: "Kore",
			Players:     []string{"mpv", "paplay", "aplay", "ffplay"},
		},
		Watch:      Watch{Cron: "*/30 * * * *"},
		NotifyMode: "print",
	}
}

// DefaultBackends 默认的总结后端链：本地 gemini CLI -> Gemini API -> 本地 claude CLI
func DefaultBackends() []Backend {
	return []Backend{
		{
			Name:    "gemini-cli",
			Kind:    BackendKindCLI,
			Command: "gemini",
			Args:    []string{"-m", "gemini-2.5-flash", PromptPlaceholder},
			Timeout: 60,
		},
		{
			Name:    "gemini-api",
			Kind:    BackendKindGemini,
			Model:   "gemini-2.5-flash",
			KeyEnv:  GeminiKeyEnv,
			Timeout: 60,
		},
		{
			Name:    "claude-haiku",
			Kind:    BackendKindCLI,
			Command: "claude",
			Args:    []string{"-p", PromptPlaceholder, "--model", "haiku"},
			Timeout: 60,
		},
	}
}

func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	// 在默认配置之上覆盖，未填写的字段保留默认值
	c := Default()
	err = yaml.Unmarshal(data, c)
	if err != nil {
		return nil, err
	}

	// 验证配置
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("Log.Level 不支持: %s", c.Log.Level)
	}

	if c.Sock5Proxy.Enable {
		if c.Sock5Proxy.Host == "" {
			return fmt.Errorf("Sock5Proxy.Host 不能为空")
		}
		if c.Sock5Proxy.Port <= 0 {
			return fmt.Errorf("Sock5Proxy.Port 必须大于 0")
		}
	}

	// 验证 Transcript
	if c.Transcript.MaxMessages < 0 {
		return fmt.Errorf("Transcript.MaxMessages 必须 >= 0")
	}
	if c.Transcript.MaxContentLength <= 0 {
		return fmt.Errorf("Transcript.MaxContentLength 必须大于 0")
	}
	if c.Transcript.MinContentLength < 0 {
		return fmt.Errorf("Transcript.MinContentLength 必须 >= 0")
	}

	// 验证 Prompt
	if c.Prompt.MessageCharLimit <= 0 {
		return fmt.Errorf("Prompt.MessageCharLimit 必须大于 0")
	}
	if c.Prompt.MaxMessages <= 0 {
		return fmt.Errorf("Prompt.MaxMessages 必须大于 0")
	}

	// 验证 Backends
	if len(c.Backends) == 0 {
		return fmt.Errorf("Backends 不能为空")
	}
	seen := make(map[string]bool)
	for i, b := range c.Backends {
		if b.Name == "" {
			return fmt.Errorf("Backends[%d].Name 不能为空", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("Backends[%d].Name 重复: %s", i, b.Name)
		}
		seen[b.Name] = true
		if b.Timeout <= 0 {
			return fmt.Errorf("Backends[%d].Timeout 必须大于 0", i)
		}
		switch b.Kind {
		case BackendKindCLI:
			if b.Command == "" {
				return fmt.Errorf("Backends[%d].Command 不能为空（当 Kind 为 'cli' 时）", i)
			}
		case BackendKindGemini:
			if b.Model == "" {
				return fmt.Errorf("Backends[%d].Model 不能为空", i)
			}
		case BackendKindOpenAI:
			if b.Model == "" {
				return fmt.Errorf("Backends[%d].Model 不能为空", i)
			}
			if b.BaseURL == "" {
				return fmt.Errorf("Backends[%d].BaseURL 不能为空（当 Kind 为 'openai' 时）", i)
			}
		default:
			return fmt.Errorf("Backends[%d].Kind 必须是 'cli', 'gemini' 或 'openai'", i)
		}
	}

	// 验证 Speech
	if c.Speech.Engine != "edge" && c.Speech.Engine != "gemini" {
		return fmt.Errorf("Speech.Engine 必须是 'edge' 或 'gemini'")
	}
	if len(c.Speech.Players) == 0 {
		return fmt.Errorf("Speech.Players 不能为空")
	}

	if c.NotifyMode != "print" && c.NotifyMode != "speak" && c.NotifyMode != "both" {
		return fmt.Errorf("NotifyMode 必须是 'print', 'speak' 或 'both'")
	}

	return nil
}

// ExpandPath 展开路径开头的 ~
func ExpandPath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return home + strings.TrimPrefix(p, "~")
}
