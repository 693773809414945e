package cmd

import (
	"github.com/fachebot/session-brief/internal/logger"
	"github.com/fachebot/session-brief/internal/scheduler"
	"github.com/fachebot/session-brief/internal/svc"
	"github.com/spf13/cobra"
)

var watchCron string

// watchCmd 按计划重复生成简报
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-brief the latest session on a cron schedule",
	Long: `Runs the brief immediately and then on every tick of the cron schedule.
Ticks are skipped while the transcript is unchanged since the last brief.
Stops on Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if watchCron != "" {
			c.Watch.Cron = watchCron
		}
		opts, err := briefOptions(c)
		if err != nil {
			return err
		}

		svcCtx, err := svc.NewServiceContext(c, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		// 创建并启动调度器
		schedulerInstance := scheduler.NewScheduler(svcCtx.Briefer, c.Watch.Cron, opts)
		if err := schedulerInstance.Start(); err != nil {
			return err
		}

		// 等待程序退出
		<-cmd.Context().Done()

		logger.Infof("正在关闭服务...")
		schedulerInstance.Stop()
		logger.Infof("服务已停止")
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchCron, "cron", "", `Cron schedule, e.g. "*/10 * * * *" (default from config)`)
	rootCmd.AddCommand(watchCmd)
}
