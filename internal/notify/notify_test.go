package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSpeaker struct {
	mock.Mock
}

func (m *mockSpeaker) Speak(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

func TestNotify_Print(t *testing.T) {
	var buf bytes.Buffer
	speaker := new(mockSpeaker)
	n := NewNotifier(&buf, speaker, ModePrint)

	require.NoError(t, n.Notify(context.Background(), "  Fixed the login bug.  ", "demo.jsonl"))
	assert.Contains(t, buf.String(), "Session Brief")
	assert.Contains(t, buf.String(), "Fixed the login bug.")
	assert.NotContains(t, buf.String(), "demo.jsonl")
	speaker.AssertNotCalled(t, "Speak", mock.Anything, mock.Anything)
}

func TestNotify_Speak(t *testing.T) {
	var buf bytes.Buffer
	speaker := new(mockSpeaker)
	speaker.On("Speak", mock.Anything, "Fixed the login bug.").Return(nil)
	n := NewNotifier(&buf, speaker, ModeSpeak)

	require.NoError(t, n.Notify(context.Background(), "Fixed the login bug.", ""))
	assert.Empty(t, buf.String())
	speaker.AssertExpectations(t)
}

func TestNotify_SpeakErrorFallsBackToPrint(t *testing.T) {
	var buf bytes.Buffer
	speaker := new(mockSpeaker)
	speaker.On("Speak", mock.Anything, "summary").Return(errors.New("no audio device"))
	n := NewNotifier(&buf, speaker, ModeSpeak)

	require.NoError(t, n.Notify(context.Background(), "summary", ""))
	assert.Equal(t, "📋 Session Brief:\nsummary\n", buf.String())
	speaker.AssertExpectations(t)
}

func TestNotify_PlainOutputKeepsSummaryIntact(t *testing.T) {
	summary := strings.Repeat("Fixed the login bug, redeployed staging and verified the cookie secret. ", 3)
	summary = strings.TrimSpace(summary)
	require.Greater(t, len(summary), MaxLineWidth)

	var buf bytes.Buffer
	n := NewNotifier(&buf, nil, ModePrint)
	require.NoError(t, n.Notify(context.Background(), "\n"+summary+"\n", "abc.jsonl"))
	assert.Equal(t, "📋 Session Brief:\n"+summary+"\n", buf.String())
}

func TestRender_Styled(t *testing.T) {
	out := Render("Fixed the login bug.", "abc.jsonl")
	assert.Contains(t, out, "Session Brief")
	assert.Contains(t, out, "Fixed the login bug.")
	assert.Contains(t, out, "abc.jsonl")
}

func TestNotify_BothIgnoresSpeakFailure(t *testing.T) {
	var buf bytes.Buffer
	speaker := new(mockSpeaker)
	speaker.On("Speak", mock.Anything, "summary").Return(errors.New("no player"))
	n := NewNotifier(&buf, speaker, ModeBoth)

	require.NoError(t, n.Notify(context.Background(), "summary", ""))
	assert.Contains(t, buf.String(), "summary")
	speaker.AssertExpectations(t)
}

func TestNotify_EmptyContent(t *testing.T) {
	var buf bytes.Buffer
	speaker := new(mockSpeaker)
	n := NewNotifier(&buf, speaker, ModeBoth)

	require.NoError(t, n.Notify(context.Background(), "   ", ""))
	assert.Empty(t, buf.String())
	speaker.AssertNotCalled(t, "Speak", mock.Anything, mock.Anything)
}

func TestNotify_SpeakWithoutSpeaker(t *testing.T) {
	n := NewNotifier(&bytes.Buffer{}, nil, ModeSpeak)
	assert.NoError(t, n.Notify(context.Background(), "summary", ""))
}
