package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fachebot/session-brief/internal/brief"
	"github.com/fachebot/session-brief/internal/config"
	"github.com/fachebot/session-brief/internal/logger"
	"github.com/fachebot/session-brief/internal/notify"
	"github.com/fachebot/session-brief/internal/svc"
	"github.com/fachebot/session-brief/internal/transcript"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "etc/config.yaml"

var (
	configFile  string
	verbose     bool
	messages    int
	since       string
	speak       bool
	voice       string
	sessionPath string
	version     string = "dev"
)

// rootCmd 生成一次会话简报
var rootCmd = &cobra.Command{
	Use:   "session-brief",
	Short: "Summarize the latest coding-assistant session into a short spoken brief",
	Long: `Reads the most recent session transcript, asks a chain of summary backends
(local CLI, remote API, second local CLI) for a 2-3 sentence status update,
and prints or speaks the first one that answers.

Examples:
  session-brief                  # brief the last 5 messages
  session-brief -n 10 --speak    # last 10 messages, read aloud
  session-brief --since "15 min" # everything from the last 15 minutes
  session-brief watch            # re-brief on a schedule`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
	RunE: runBrief,
}

// Execute 执行根命令，出错时以状态码 1 退出
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "f", defaultConfigFile, "the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.PersistentFlags().IntVarP(&messages, "messages", "n", 5, "Number of recent messages to summarize")
	rootCmd.PersistentFlags().StringVar(&since, "since", "", `Only summarize messages from this time range, e.g. "5 min", "1 hour"`)
	rootCmd.PersistentFlags().BoolVarP(&speak, "speak", "s", false, "Read the brief aloud")
	rootCmd.PersistentFlags().StringVar(&voice, "voice", "", "Voice used when speaking the brief")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", "", "Session transcript to summarize (default: most recent)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig 读取配置文件并应用命令行参数
// 默认路径下没有配置文件时使用内置默认值
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		c   *config.Config
		err error
	)
	if _, statErr := os.Stat(configFile); errors.Is(statErr, os.ErrNotExist) && configFile == defaultConfigFile {
		c = config.Default()
	} else {
		c, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	if cmd.Flags().Changed("messages") {
		c.Transcript.MaxMessages = messages
	}
	if speak {
		c.NotifyMode = notify.ModeBoth
	}
	if voice != "" {
		if c.Speech.Engine == "gemini" {
			c.Speech.GeminiVoice = voice
		} else {
			c.Speech.Voice = voice
		}
	}

	logger.Setup(config.ExpandPath(c.Log.Dir), c.Log.Level)
	logger.SetVerbose(verbose)
	return c, nil
}

// briefOptions 把命令行参数转换为简报参数
func briefOptions(c *config.Config) (brief.Options, error) {
	opts := brief.Options{
		SessionPath: sessionPath,
		MaxMessages: c.Transcript.MaxMessages,
	}
	if since != "" {
		d, err := transcript.ParseSince(since)
		if err != nil {
			return opts, fmt.Errorf("%w: %q", err, since)
		}
		opts.Since = d
	}
	return opts, nil
}

func runBrief(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := briefOptions(c)
	if err != nil {
		return err
	}

	svcCtx, err := svc.NewServiceContext(c, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := svcCtx.Briefer.Run(cmd.Context(), opts)
	if err != nil {
		if errors.Is(err, transcript.ErrNoSession) && sessionPath == "" {
			return fmt.Errorf("%w (searched %s)", err, config.ExpandPath(c.Transcript.ProjectsDir))
		}
		return err
	}
	logger.Debugf("[Brief] %s 完成，耗时 %s", report.SessionPath, time.Since(start).Round(time.Millisecond))
	return nil
}
