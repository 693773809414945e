package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fachebot/session-brief/internal/backend"
	"github.com/fachebot/session-brief/internal/config"
	"github.com/sashabaranov/go-openai"
)

// openAIClientInterface 定义 OpenAI 客户端接口，便于测试
type openAIClientInterface interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const systemPrompt = "You summarize coding-assistant sessions into short spoken status updates. Reply with plain text only, no markdown."

// OpenAIClient 兼容 OpenAI API 的总结后端
type OpenAIClient struct {
	config       *config.Backend
	apiKey       string
	openaiClient openAIClientInterface
}

func NewOpenAIClient(cfg *config.Backend, apiKey string, httpClient *http.Client) *OpenAIClient {
	openaiConfig := openai.DefaultConfig(apiKey)
	openaiConfig.BaseURL = cfg.BaseURL
	if httpClient != nil {
		openaiConfig.HTTPClient = httpClient
	}

	return &OpenAIClient{
		config:       cfg,
		apiKey:       apiKey,
		openaiClient: openai.NewClientWithConfig(openaiConfig),
	}
}

// Invoke 执行一次总结请求
func (c *OpenAIClient) Invoke(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: 未配置 %s", backend.ErrBackendUnavailable, strings.Join(c.config.KeyEnv, "/"))
	}

	req := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   400,
	}

	resp, err := c.openaiClient.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("调用 LLM API 失败: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: LLM API 没有返回候选结果", backend.ErrEmptyOutput)
	}

	return trimCodeFence(resp.Choices[0].Message.Content), nil
}

// trimCodeFence 去掉模型偶尔包裹的 markdown 代码块
func trimCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```text")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
