package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"spotter/internal/service"
)

var (
	runStore     string
	runFlyerURL  string
	runFlyerDate string
	runForce     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture a store's flyer and extract its products",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		req := service.RunRequest{
			StoreKey:  firstNonEmpty(runStore, cfg.Run.Store),
			FlyerURL:  firstNonEmpty(runFlyerURL, cfg.Run.FlyerURL),
			FlyerDate: firstNonEmpty(runFlyerDate, cfg.Run.FlyerDate),
			Force:     runForce,
		}
		res, err := env.Spotter.Run(ctx, req)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	runCmd.Flags().StringVar(&runStore, "store", "", "store preset key (default from config)")
	runCmd.Flags().StringVar(&runFlyerURL, "url", "", "flyer url, overrides the store preset")
	runCmd.Flags().StringVar(&runFlyerDate, "flyer-date", "", "flyer date YYYY-MM-DD (default today)")
	runCmd.Flags().BoolVar(&runForce, "force", false, "ignore the run registry")
	rootCmd.AddCommand(runCmd)
}
