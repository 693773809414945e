package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/fachebot/session-brief/internal/backend"
	"github.com/fachebot/session-brief/internal/config"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mockOpenAIClient 模拟 OpenAI 客户端
type mockOpenAIClient struct {
	mock.Mock
}

func (m *mockOpenAIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

// newTestOpenAIClient 创建用于测试的客户端，注入 mock
func newTestOpenAIClient(apiKey string, mockClient openAIClientInterface) *OpenAIClient {
	return &OpenAIClient{
		config: &config.Backend{
			Name:    "openai",
			Kind:    config.BackendKindOpenAI,
			Model:   "test-model",
			BaseURL: "http://localhost",
			KeyEnv:  []string{"OPENAI_API_KEY"},
		},
		apiKey:       apiKey,
		openaiClient: mockClient,
	}
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestOpenAIInvoke_Success(t *testing.T) {
	mockAPI := new(mockOpenAIClient)
	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "test-model" &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == openai.ChatMessageRoleSystem &&
			req.Messages[1].Content == "summarize this"
	})).Return(chatResponse("Fixed the login bug."), nil)

	client := newTestOpenAIClient("key", mockAPI)
	result, err := client.Invoke(context.Background(), "summarize this")
	assert.NoError(t, err)
	assert.Equal(t, "Fixed the login bug.", result)
	mockAPI.AssertExpectations(t)
}

func TestOpenAIInvoke_MissingKey(t *testing.T) {
	mockAPI := new(mockOpenAIClient)
	client := newTestOpenAIClient("", mockAPI)

	_, err := client.Invoke(context.Background(), "p")
	assert.ErrorIs(t, err, backend.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	mockAPI.AssertNotCalled(t, "CreateChatCompletion", mock.Anything, mock.Anything)
}

func TestOpenAIInvoke_APIError(t *testing.T) {
	mockAPI := new(mockOpenAIClient)
	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, errors.New("api error"))

	client := newTestOpenAIClient("key", mockAPI)
	_, err := client.Invoke(context.Background(), "p")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "调用 LLM API 失败")
}

func TestOpenAIInvoke_EmptyResponse(t *testing.T) {
	mockAPI := new(mockOpenAIClient)
	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{Choices: nil}, nil)

	client := newTestOpenAIClient("key", mockAPI)
	_, err := client.Invoke(context.Background(), "p")
	assert.ErrorIs(t, err, backend.ErrEmptyOutput)
}

func TestOpenAIInvoke_TrimsMarkdownCodeBlock(t *testing.T) {
	mockAPI := new(mockOpenAIClient)
	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(chatResponse("```\nDeployed to staging.\n```"), nil)

	client := newTestOpenAIClient("key", mockAPI)
	result, err := client.Invoke(context.Background(), "p")
	assert.NoError(t, err)
	assert.Equal(t, "Deployed to staging.", result)
}

func TestTrimCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"纯文本", "  hello  ", "hello"},
		{"普通代码块", "```\nhello\n```", "hello"},
		{"text 代码块", "```text\nhello\n```", "hello"},
		{"空字符串", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trimCodeFence(tt.in))
		})
	}
}
