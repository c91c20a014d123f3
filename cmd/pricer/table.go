package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lognormPool/internal/config"
	"lognormPool/internal/curve"
	"lognormPool/internal/fixedpoint"
	"lognormPool/internal/storage"
)

func runTable(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadTable(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	params, err := cfg.Pool.Params()
	if err != nil {
		return err
	}
	table, err := curve.Build(params)
	if err != nil {
		return fmt.Errorf("build table: %w", err)
	}

	records, err := breakpointRecords(table, params, cfg.Continuous)
	if err != nil {
		return err
	}
	if err := storage.NewJsonlStorage(cfg.Out).PutBreakpointBatch(records); err != nil {
		return err
	}

	logger.Info("table built",
		zap.Int("num_bins", table.NumBins()),
		zap.String("step_log_price", fixedpoint.FormatWad(table.StepLogPrice)),
		zap.String("min_log_price", fixedpoint.FormatWad(table.MinLogPrice())),
		zap.String("max_log_price", fixedpoint.FormatWad(table.MaxLogPrice())),
		zap.String("liquidity", fixedpoint.FormatWad(table.Liquidity())),
		zap.String("fingerprint", records[0].Fingerprint),
		zap.Bool("continuous", cfg.Continuous),
		zap.String("out", cfg.Out),
	)
	return nil
}
