package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"spotter/internal/service"
)

var (
	analyzeSupermarket string
	analyzeFlyerDate   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>...",
	Short: "Extract products from flyer screenshots on disk",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Spotter.AnalyzeImages(ctx, service.AnalyzeRequest{
			Supermarket: analyzeSupermarket,
			ImagePaths:  args,
			FlyerDate:   firstNonEmpty(analyzeFlyerDate, cfg.Run.FlyerDate),
		})
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSupermarket, "supermarket", "Lidl", "supermarket name written to every record")
	analyzeCmd.Flags().StringVar(&analyzeFlyerDate, "flyer-date", "", "flyer date YYYY-MM-DD (default today)")
	rootCmd.AddCommand(analyzeCmd)
}
