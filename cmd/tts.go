package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fachebot/session-brief/internal/config"
	"github.com/fachebot/session-brief/internal/credentials"
	"github.com/fachebot/session-brief/internal/logger"
	"github.com/fachebot/session-brief/internal/speech"
	"github.com/fachebot/session-brief/internal/svc"
	"github.com/spf13/cobra"
)

// defaultTTSVoice --voice 未指定时使用
const defaultTTSVoice = "Kore"

var (
	ttsOutput string
	ttsInput  string
	ttsStyle  string
	ttsSpeed  string
	ttsModel  string
	ttsPlay   bool
)

// ttsCmd 使用 Gemini 原生 TTS 生成 WAV 文件
var ttsCmd = &cobra.Command{
	Use:   "tts [text]",
	Short: "Convert text to a WAV file with Gemini text-to-speech",
	Long: `Synthesizes speech with the Gemini TTS model and writes a 24kHz mono WAV file.
Text comes from the argument, --input, or standard input.
Pick a voice with --voice (default Kore).

Voices: Puck (upbeat), Charon (informative), Kore (firm), Fenrir (excitable), Aoede (breezy)`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ttsVoice := voice
		if ttsVoice == "" {
			ttsVoice = defaultTTSVoice
		}
		if err := speech.ValidateOptions(ttsVoice, ttsSpeed); err != nil {
			return err
		}

		text, err := readTTSText(cmd, args)
		if err != nil {
			return err
		}

		store := credentials.NewStore(&c.Credentials)
		apiKey, ok := store.Lookup(config.GeminiKeyEnv...)
		if !ok {
			return errors.New("GEMINI_API_KEY not set (environment or .env file)")
		}
		httpClient, err := svc.NewHTTPClient(&c.Sock5Proxy)
		if err != nil {
			return err
		}

		speaker := speech.NewGeminiSpeaker(ttsModel, ttsVoice, apiKey, httpClient, speech.NewPlayer(c.Speech.Players))
		speaker.Style = ttsStyle
		speaker.Speed = ttsSpeed

		logger.Infof("[TTS] 生成语音，共 %d 个字符", len(text))
		if err := speaker.WriteFile(cmd.Context(), text, ttsOutput); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s\n", ttsOutput)

		if ttsPlay {
			return speaker.Play(cmd.Context(), ttsOutput)
		}
		return nil
	},
}

// readTTSText 依次从参数、文件、标准输入读取文本
func readTTSText(cmd *cobra.Command, args []string) (string, error) {
	var text string
	switch {
	case len(args) == 1:
		text = args[0]
	case ttsInput != "":
		data, err := os.ReadFile(ttsInput)
		if err != nil {
			return "", fmt.Errorf("读取文本文件失败: %w", err)
		}
		text = string(data)
	default:
		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok {
			info, err := f.Stat()
			if err != nil || info.Mode()&os.ModeCharDevice != 0 {
				return "", errors.New("no text provided: pass an argument, --input, or pipe to stdin")
			}
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("读取标准输入失败: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("no text provided: pass an argument, --input, or pipe to stdin")
	}
	return text, nil
}

func init() {
	ttsCmd.Flags().StringVarP(&ttsOutput, "output", "o", "output.wav", "Output WAV file")
	ttsCmd.Flags().StringVarP(&ttsInput, "input", "i", "", "Read text from file")
	ttsCmd.Flags().StringVar(&ttsStyle, "style", "", "Speaking style, e.g. cheerful, professional, whisper")
	ttsCmd.Flags().StringVar(&ttsSpeed, "speed", "normal", "Speed: slow, normal, fast, faster")
	ttsCmd.Flags().StringVar(&ttsModel, "model", "gemini-2.5-flash-preview-tts", "TTS model")
	ttsCmd.Flags().BoolVar(&ttsPlay, "play", false, "Play the file after generating")
	rootCmd.AddCommand(ttsCmd)
}
