package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/fachebot/session-brief/internal/backend"
	"github.com/fachebot/session-brief/internal/config"
	"google.golang.org/genai"
)

// geminiGenerator 对应 genai.Models 的 GenerateContent，便于测试注入 mock
type geminiGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient 通过 Gemini API 总结
type GeminiClient struct {
	model      string
	apiKey     string
	httpClient *http.Client

	mu        sync.Mutex
	generator geminiGenerator
}

func NewGeminiClient(cfg *config.Backend, apiKey string, httpClient *http.Client) *GeminiClient {
	return &GeminiClient{
		model:      strings.TrimPrefix(cfg.Model, "models/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// NewGenerator 创建 Gemini API 客户端，语音合成也复用它
func NewGenerator(ctx context.Context, apiKey string, httpClient *http.Client) (*genai.Models, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if httpClient != nil {
		cc.HTTPClient = httpClient
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// getGenerator 首次调用时才创建客户端，未配置 Key 时不会产生任何开销
func (c *GeminiClient) getGenerator(ctx context.Context) (geminiGenerator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generator != nil {
		return c.generator, nil
	}
	models, err := NewGenerator(ctx, c.apiKey, c.httpClient)
	if err != nil {
		return nil, err
	}
	c.generator = models
	return c.generator, nil
}

// Invoke 执行一次总结请求
func (c *GeminiClient) Invoke(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: 未配置 GEMINI_API_KEY", backend.ErrBackendUnavailable)
	}

	generator, err := c.getGenerator(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: 创建 Gemini 客户端失败: %w", backend.ErrBackendUnavailable, err)
	}

	resp, err := generator.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("调用 Gemini API 失败: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: Gemini API 没有返回候选结果", backend.ErrEmptyOutput)
	}

	return resp.Text(), nil
}
