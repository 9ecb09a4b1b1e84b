package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var extractCMD = &cobra.Command{
	Use:   "extract",
	Short: "Fetch BTC and gold prices into the raw landing store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return runExtract(cmd.Context(), a)
		})
	},
}

var transformCMD = &cobra.Command{
	Use:   "transform",
	Short: "Normalize pending raw files into the staging tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return runTransform(cmd.Context(), a)
		})
	},
}

var loadCMD = &cobra.Command{
	Use:   "load",
	Short: "Upsert staging rows into the warehouse",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			return runLoad(cmd.Context(), a)
		})
	},
}

var allCMD = &cobra.Command{
	Use:   "all",
	Short: "Run extract, transform and load in order",
	Long: `Run every stage in order. Stages are independent: a failed stage is
logged and the next one still runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx := cmd.Context()
			stages := []struct {
				name string
				run  func(context.Context, *app) error
			}{
				{"extract", runExtract},
				{"transform", runTransform},
				{"load", runLoad},
			}

			var failed error
			for _, s := range stages {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := s.run(ctx, a); err != nil {
					a.log.Error("Stage failed", zap.String("stage", s.name), zap.Error(err))
					failed = err
				}
			}
			return failed
		})
	},
}

func runExtract(ctx context.Context, a *app) error {
	a.log.Info("Starting Extract process")
	s, err := a.extractor().Run(ctx)
	if err != nil {
		return err
	}
	a.log.Info("Extract process completed",
		zap.Int("files", s.Files),
		zap.Int("rows", s.Rows),
		zap.Int("failures", s.Failures))
	return nil
}

func runTransform(ctx context.Context, a *app) error {
	a.log.Info("Starting Transform process")
	outcomes, err := a.transformer().Run(ctx)
	if err != nil {
		return err
	}

	var rows int
	for _, o := range outcomes {
		rows += o.Rows
	}
	a.log.Info("Transform process completed",
		zap.Int("files", len(outcomes)),
		zap.Int("rows", rows))
	return nil
}

func runLoad(ctx context.Context, a *app) error {
	a.log.Info("Starting Load process")
	s, err := a.loader().Run(ctx)
	if err != nil {
		return err
	}
	a.log.Info("Load process completed", zap.Int("failures", s.Failures))
	return nil
}
