package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spotter/internal/service"
)

var scheduleNow bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the configured stores on a cron schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sched, err := service.NewScheduler(env.Spotter, cfg.Schedule.Cron, cfg.Schedule.Stores)
		if err != nil {
			return err
		}
		if scheduleNow {
			sched.RunOnce(ctx)
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()
		zap.L().Info("shutting down scheduler")
		sched.Stop()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "run every store once before waiting for the schedule")
	rootCmd.AddCommand(scheduleCmd)
}
