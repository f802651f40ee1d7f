package cmd

import (
	"context"
	"cropcast/internal"
	"cropcast/internal/features"
	"cropcast/internal/logger"
	"cropcast/internal/service"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cropcast",
	Short: "commodity price forecast server",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "load the newest model bundle and serve the forecast api",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, err := InitializeDependencies(ctx)
		if err != nil {
			return err
		}
		if err := deps.BundleService.Load(ctx); err != nil {
			return fmt.Errorf("failed to load initial bundle: %w", err)
		}
		defer deps.BundleService.Close()
		deps.BundleService.StartRefresher(ctx, time.Hour)
		return deps.ApiHandler.StartApi(deps.Secrets.Port)
	},
}

var predictCommodity string

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "run one forecast and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, err := InitializeDependencies(ctx)
		if err != nil {
			return err
		}
		if err := deps.BundleService.Load(ctx); err != nil {
			return fmt.Errorf("failed to load bundle: %w", err)
		}

		series, err := deps.ApiHandler.MarketDataService.BuildSeries(ctx, predictCommodity, features.EncoderLength)
		if err != nil {
			return err
		}
		result, err := deps.ApiHandler.ForecastService.Predict(ctx, service.ForecastInput{
			Commodity: predictCommodity,
			GroupID:   predictCommodity,
			Series:    series,
		})
		if err != nil {
			return err
		}
		internal.Pprint(result)
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "check the bundle source and report the newest version",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, err := InitializeDependencies(ctx)
		if err != nil {
			return err
		}
		if err := deps.BundleService.Load(ctx); err != nil {
			return err
		}
		bundle := deps.BundleService.Current()
		logger.Info("newest bundle: %s", bundle.Version)
		return nil
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictCommodity, "commodity", "corn", "commodity to forecast")
	rootCmd.AddCommand(serveCmd, predictCmd, refreshCmd)
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
