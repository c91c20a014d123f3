package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"lognormPool/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "pricer",
		Short:        "Log-normal AMM pricing engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	tableCmd := &cobra.Command{
		Use:   "table",
		Short: "Build the breakpoint table for a curve",
		RunE:  runTable,
	}

	addPoolFlags(tableCmd.Flags())
	tableCmd.Flags().String("out", "./data/table.jsonl", "output breakpoints JSONL")
	tableCmd.Flags().Bool("continuous", false, "compare each breakpoint with the undiscretised profile")
	addLogFlags(tableCmd.Flags())

	root.AddCommand(tableCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a single swap",
		RunE:  runQuote,
	}

	addPoolFlags(quoteCmd.Flags())
	quoteCmd.Flags().String("inventory", "", "base inventory to quote at (defaults to the inventory at mu)")
	quoteCmd.Flags().String("direction", "quote_to_base", "quote_to_base (buy) or base_to_quote (sell)")
	quoteCmd.Flags().String("mode", "exact_in", "exact_in or exact_out")
	quoteCmd.Flags().String("amount", "", "swap amount")
	addLogFlags(quoteCmd.Flags())

	root.AddCommand(quoteCmd)

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a swap stream against a pool",
		RunE:  runSimulate,
	}

	addPoolFlags(simulateCmd.Flags())
	simulateCmd.Flags().String("pool-address", "0x0000000000000000000000000000000000000001", "address of the simulated pool")
	simulateCmd.Flags().String("in", "", "input swap requests JSONL")
	simulateCmd.Flags().String("out", "./data/quotes.jsonl", "output quote records JSONL")
	simulateCmd.Flags().String("pools-out", "./data/pools.jsonl", "output pool records JSONL")
	simulateCmd.Flags().Bool("quote-only", false, "price requests without committing them")
	simulateCmd.Flags().String("state-file", "", "optional local state file for the pool inventory")
	simulateCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for pools, inventory and swaps")
	simulateCmd.Flags().Int("batch-size", 500, "records per write")
	simulateCmd.Flags().String("checkpoint", "", "optional checkpoint file for resuming a replay")
	simulateCmd.Flags().Int("max-retries", 3, "maximum retry attempts for Postgres writes")
	simulateCmd.Flags().Duration("retry-backoff", 200*time.Millisecond, "initial retry backoff")
	addLogFlags(simulateCmd.Flags())

	root.AddCommand(simulateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPoolFlags(fs *pflag.FlagSet) {
	fs.String("mu", "", "mean of ln(price)")
	fs.String("mean-price", "", "price whose log is used as mu when mu is unset")
	fs.String("sigma", "", "standard deviation of ln(price)")
	fs.String("price-min", "", "lowest price of the curve")
	fs.String("price-max", "", "highest price of the curve")
	fs.Int("num-bins", 64, "number of bins")
	fs.String("liquidity", "", "total base inventory across the domain")
	fs.String("swap-fee", "0.003", "fee fraction charged on the input amount")
	fs.String("tail-mode", "hard", "hard or soft")
	fs.String("tail-steepness", "4", "soft tail slope multiplier")
	fs.String("tail-log-price-cap", "0.5", "soft tail log-price rise past each boundary")
	fs.String("tail-max-displacement", "", "soft tail inventory reach past each boundary")
}

func addLogFlags(fs *pflag.FlagSet) {
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-file", "", "optional rotating log file")
}

func newLogger(cfg config.Logging) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevel()
	if err := zcfg.Level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}

	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.File == "" {
		return zcfg.Build()
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zcfg.EncoderConfig),
		zapcore.AddSync(rotating),
		zcfg.Level,
	)
	return zcfg.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}
