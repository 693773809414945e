package svc

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fachebot/session-brief/internal/backend"
	"github.com/fachebot/session-brief/internal/brief"
	"github.com/fachebot/session-brief/internal/config"
	"github.com/fachebot/session-brief/internal/credentials"
	"github.com/fachebot/session-brief/internal/llm"
	"github.com/fachebot/session-brief/internal/logger"
	"github.com/fachebot/session-brief/internal/notify"
	"github.com/fachebot/session-brief/internal/speech"
	"github.com/fachebot/session-brief/internal/summarizer"
	"github.com/fachebot/session-brief/internal/transcript"

	"golang.org/x/net/proxy"
)

type ServiceContext struct {
	Config      *config.Config
	Credentials *credentials.Store
	HTTPClient  *http.Client
	Backends    []backend.Backend
	Resolver    *summarizer.Resolver
	Player      *speech.Player
	Speaker     speech.Speaker
	Notifier    *notify.Notifier
	Briefer     *brief.Briefer
}

func NewServiceContext(c *config.Config, out io.Writer) (*ServiceContext, error) {
	// 创建SOCKS5代理
	httpClient, err := NewHTTPClient(&c.Sock5Proxy)
	if err != nil {
		return nil, err
	}

	store := credentials.NewStore(&c.Credentials)
	backends := BuildBackends(c.Backends, store, httpClient)
	resolver := summarizer.NewResolver(backends, summarizer.PromptOptions{
		MessageCharLimit: c.Prompt.MessageCharLimit,
		MaxMessages:      c.Prompt.MaxMessages,
	})

	player := speech.NewPlayer(c.Speech.Players)
	speaker := NewSpeaker(&c.Speech, store, httpClient, player)
	notifier := notify.NewNotifier(out, speaker, c.NotifyMode)

	briefer := brief.NewBriefer(
		config.ExpandPath(c.Transcript.ProjectsDir),
		transcript.ParseOptions{
			MaxContentLength: c.Transcript.MaxContentLength,
			MinContentLength: c.Transcript.MinContentLength,
		},
		resolver,
		notifier,
	)

	svcCtx := &ServiceContext{
		Config:      c,
		Credentials: store,
		HTTPClient:  httpClient,
		Backends:    backends,
		Resolver:    resolver,
		Player:      player,
		Speaker:     speaker,
		Notifier:    notifier,
		Briefer:     briefer,
	}
	return svcCtx, nil
}

// NewHTTPClient 创建访问远程 API 的 HTTP 客户端，未启用代理时返回 nil 使用默认客户端
func NewHTTPClient(c *config.Sock5Proxy) (*http.Client, error) {
	if !c.Enable {
		return nil, nil
	}

	socks5Proxy := net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
	dialer, err := proxy.SOCKS5("tcp", socks5Proxy, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("创建SOCKS5代理失败: %w", err)
	}

	transport := &http.Transport{Dial: dialer.Dial}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	}
	logger.Debugf("[Svc] 使用SOCKS5代理 %s", socks5Proxy)
	return &http.Client{Transport: transport}, nil
}

// BuildBackends 按配置顺序创建总结后端
func BuildBackends(cfgs []config.Backend, store *credentials.Store, httpClient *http.Client) []backend.Backend {
	backends := make([]backend.Backend, 0, len(cfgs))
	for i := range cfgs {
		cfg := &cfgs[i]
		b := backend.Backend{
			Name:    cfg.Name,
			Kind:    backend.Kind(cfg.Kind),
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		}

		switch cfg.Kind {
		case config.BackendKindCLI:
			b.Invoker = backend.NewCLIInvoker(cfg.Command, cfg.Args)
		case config.BackendKindGemini:
			keyEnv := cfg.KeyEnv
			if len(keyEnv) == 0 {
				keyEnv = config.GeminiKeyEnv
			}
			apiKey, _ := store.Lookup(keyEnv...)
			b.Invoker = llm.NewGeminiClient(cfg, apiKey, httpClient)
		case config.BackendKindOpenAI:
			apiKey, _ := store.Lookup(cfg.KeyEnv...)
			b.Invoker = llm.NewOpenAIClient(cfg, apiKey, httpClient)
		default:
			logger.Warnf("[Svc] 未知的后端类型 %s，跳过 %s", cfg.Kind, cfg.Name)
			continue
		}
		backends = append(backends, b)
	}
	return backends
}

// NewSpeaker 按配置选择语音引擎
func NewSpeaker(c *config.Speech, store *credentials.Store, httpClient *http.Client, player *speech.Player) speech.Speaker {
	switch c.Engine {
	case "gemini":
		apiKey, _ := store.Lookup(config.GeminiKeyEnv...)
		return speech.NewGeminiSpeaker(c.GeminiModel, c.GeminiVoice, apiKey, httpClient, player)
	default:
		return speech.NewEdgeSpeaker(c.Voice, c.Rate, player)
	}
}
