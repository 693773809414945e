package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/fachebot/session-brief/internal/backend"
	"github.com/fachebot/session-brief/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"google.golang.org/genai"
)

// mockGenerator 模拟 genai.Models
type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, cfg)
	resp, _ := args.Get(0).(*genai.GenerateContentResponse)
	return resp, args.Error(1)
}

func newTestGeminiClient(apiKey string, gen geminiGenerator) *GeminiClient {
	c := NewGeminiClient(&config.Backend{Name: "gemini-api", Kind: config.BackendKindGemini, Model: "models/gemini-2.5-flash"}, apiKey, nil)
	c.generator = gen
	return c
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, &genai.Part{Text: t})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}}},
	}
}

func TestGeminiInvoke_Success(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("GenerateContent", mock.Anything, "gemini-2.5-flash", mock.MatchedBy(func(contents []*genai.Content) bool {
		return len(contents) == 1 && contents[0].Parts[0].Text == "summarize this"
	}), mock.Anything).Return(textResponse("Fixed the login bug ", "and deployed."), nil)

	client := newTestGeminiClient("key", gen)
	result, err := client.Invoke(context.Background(), "summarize this")
	assert.NoError(t, err)
	assert.Equal(t, "Fixed the login bug and deployed.", result)
	gen.AssertExpectations(t)
}

func TestGeminiInvoke_MissingKey(t *testing.T) {
	gen := new(mockGenerator)
	client := newTestGeminiClient("", gen)

	_, err := client.Invoke(context.Background(), "p")
	assert.ErrorIs(t, err, backend.ErrBackendUnavailable)
	gen.AssertNotCalled(t, "GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGeminiInvoke_APIError(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("429 quota"))

	client := newTestGeminiClient("key", gen)
	_, err := client.Invoke(context.Background(), "p")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "调用 Gemini API 失败")
	assert.Equal(t, "error", backend.Reason(err))
}

func TestGeminiInvoke_NoCandidates(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&genai.GenerateContentResponse{}, nil)

	client := newTestGeminiClient("key", gen)
	_, err := client.Invoke(context.Background(), "p")
	assert.ErrorIs(t, err, backend.ErrEmptyOutput)
}
