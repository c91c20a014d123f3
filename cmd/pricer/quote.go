package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lognormPool/internal/config"
	"lognormPool/internal/engine"
	"lognormPool/internal/fixedpoint"
	"lognormPool/internal/simulate"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	params, err := cfg.Pool.Params()
	if err != nil {
		return err
	}
	dir, err := engine.ParseDirection(cfg.Direction)
	if err != nil {
		return &config.ConfigError{Field: "direction", Err: err}
	}
	mode, err := engine.ParseMode(cfg.Mode)
	if err != nil {
		return &config.ConfigError{Field: "mode", Err: err}
	}
	amount, err := config.ParseAmount("amount", cfg.Amount)
	if err != nil {
		return err
	}
	if amount == nil {
		return fmt.Errorf("amount is required")
	}

	e := engine.NewEngine(engine.Config{}, logger)
	if err := e.Configure(params); err != nil {
		return err
	}

	inventory, err := config.ParseAmount("inventory", cfg.Inventory)
	if err != nil {
		return err
	}
	if inventory == nil {
		table, err := e.Table()
		if err != nil {
			return err
		}
		inventory = table.InventoryAtLogPrice(params.Mu)
	}

	req := engine.Request{Direction: dir, Mode: mode, Amount: amount}
	out := simulate.Outcome{Seq: 1, Request: req, Inventory: inventory}
	out.Result, out.Err = e.Quote(inventory, req)
	if out.Err == nil {
		if out.PriceAfter, err = e.CurrentPrice(out.Result.InventoryAfter); err != nil {
			logger.Warn("price after swap", zap.Error(err))
		}
	}

	rec := simulate.NewQuoteRecord(common.Address{}, out, time.Now())
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("write quote: %w", err)
	}

	logger.Debug("quote",
		zap.Stringer("direction", dir),
		zap.Stringer("mode", mode),
		zap.String("amount", fixedpoint.FormatWad(amount)),
		zap.String("inventory", fixedpoint.FormatWad(inventory)),
		zap.Bool("retriable", rec.Retriable),
	)
	if out.Err != nil {
		return fmt.Errorf("quote: %w", out.Err)
	}
	return nil
}
