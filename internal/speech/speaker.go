package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fachebot/session-brief/internal/llm"
	"github.com/fachebot/session-brief/internal/logger"
	"google.golang.org/genai"
)

// Speaker 将文本朗读出来
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// EdgeSpeaker 使用 edge-tts 合成语音后播放
type EdgeSpeaker struct {
	Voice  string
	Rate   string
	player *Player
	runner commandRunner
}

func NewEdgeSpeaker(voice, rate string, player *Player) *EdgeSpeaker {
	return &EdgeSpeaker{Voice: voice, Rate: rate, player: player, runner: execRunner{}}
}

func (s *EdgeSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	bin, err := s.runner.LookPath("edge-tts")
	if err != nil {
		return fmt.Errorf("未找到 edge-tts，请先安装: pip3 install edge-tts")
	}

	dir, err := os.MkdirTemp("", "session-brief-tts-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	output := filepath.Join(dir, "brief.mp3")
	args := []string{"--voice", s.Voice, "--rate=" + s.Rate, "--text", text, "--write-media", output}
	if err := s.runner.Run(ctx, bin, args...); err != nil {
		return fmt.Errorf("语音合成失败: %w", err)
	}
	return s.player.Play(ctx, output)
}

// geminiAudioGenerator 对应 genai.Models 的 GenerateContent
type geminiAudioGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiVoices Gemini TTS 预置音色
var GeminiVoices = []string{"Puck", "Charon", "Kore", "Fenrir", "Aoede"}

var speedModifiers = map[string]string{
	"slow":   "slowly",
	"fast":   "quickly",
	"faster": "very quickly",
}

// GeminiSpeaker 使用 Gemini 原生 TTS 生成 WAV
type GeminiSpeaker struct {
	Model string
	Voice string
	Style string // 如 cheerful / professional / whisper
	Speed string // slow / normal / fast / faster

	apiKey     string
	httpClient *http.Client
	player     *Player

	mu        sync.Mutex
	generator geminiAudioGenerator
}

func NewGeminiSpeaker(model, voice, apiKey string, httpClient *http.Client, player *Player) *GeminiSpeaker {
	return &GeminiSpeaker{
		Model:      model,
		Voice:      voice,
		Speed:      "normal",
		apiKey:     apiKey,
		httpClient: httpClient,
		player:     player,
	}
}

// ValidateOptions 检查音色与语速
func ValidateOptions(voice, speed string) error {
	found := false
	for _, v := range GeminiVoices {
		if v == voice {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("不支持的音色 %q，可选: %s", voice, strings.Join(GeminiVoices, ", "))
	}
	if _, ok := speedModifiers[speed]; !ok && speed != "normal" && speed != "" {
		return fmt.Errorf("不支持的语速 %q，可选: slow, normal, fast, faster", speed)
	}
	return nil
}

// stylePrompt 把语速与风格要求拼到文本前面
func stylePrompt(text, style, speed string) string {
	var modifiers []string
	if m, ok := speedModifiers[speed]; ok {
		modifiers = append(modifiers, "speak "+m)
	}
	if style != "" {
		modifiers = append(modifiers, fmt.Sprintf("in a %s tone", style))
	}
	if len(modifiers) == 0 {
		return text
	}
	return fmt.Sprintf("Say the following (%s): %s", strings.Join(modifiers, ", "), text)
}

func (s *GeminiSpeaker) getGenerator(ctx context.Context) (geminiAudioGenerator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generator != nil {
		return s.generator, nil
	}
	models, err := llm.NewGenerator(ctx, s.apiKey, s.httpClient)
	if err != nil {
		return nil, err
	}
	s.generator = models
	return s.generator, nil
}

// Synthesize 返回原始 PCM 数据
func (s *GeminiSpeaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.apiKey == "" {
		return nil, errors.New("未配置 GEMINI_API_KEY")
	}
	generator, err := s.getGenerator(ctx)
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: s.Voice},
			},
		},
	}
	logger.Infof("[Speech] 使用音色 %s 生成语音", s.Voice)
	resp, err := generator.GenerateContent(ctx, s.Model, genai.Text(stylePrompt(text, s.Style, s.Speed)), cfg)
	if err != nil {
		return nil, fmt.Errorf("调用 Gemini TTS 失败: %w", err)
	}

	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, errors.New("Gemini TTS 没有返回音频数据")
}

// WriteFile 合成语音并保存为 WAV
func (s *GeminiSpeaker) WriteFile(ctx context.Context, text, path string) error {
	pcm, err := s.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := WriteWAV(&buf, pcm, DefaultSampleRate, DefaultChannels, DefaultBitsPerSample); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Play 播放已生成的音频文件
func (s *GeminiSpeaker) Play(ctx context.Context, path string) error {
	return s.player.Play(ctx, path)
}

func (s *GeminiSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	dir, err := os.MkdirTemp("", "session-brief-tts-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	output := filepath.Join(dir, "brief.wav")
	if err := s.WriteFile(ctx, text, output); err != nil {
		return err
	}
	return s.player.Play(ctx, output)
}
