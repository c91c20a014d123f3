package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lognormPool/internal/config"
	"lognormPool/internal/model"
	"lognormPool/internal/pool"
	"lognormPool/internal/simulate"
	"lognormPool/internal/storage"
	"lognormPool/internal/storage/postgres"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if !common.IsHexAddress(cfg.PoolAddress) {
		return &config.ConfigError{Field: "pool-address", Err: fmt.Errorf("invalid address %q", cfg.PoolAddress)}
	}
	poolAddr := common.HexToAddress(cfg.PoolAddress)

	params, err := cfg.Pool.Params()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	var stateStore pool.StateStore
	switch {
	case cfg.StateFile != "":
		stateStore = &pool.FileStateStore{Path: cfg.StateFile}
	case store != nil:
		stateStore = &pool.DBStateStore{Store: store, Pool: poolAddr}
	}

	registry := pool.NewRegistry(pool.RegistryConfig{
		StateStore: func(common.Address) pool.StateStore { return stateStore },
	}, logger)

	p, err := registry.Create(ctx, common.Address{}, poolAddr, params)
	if err != nil {
		return err
	}
	e, err := p.Engine()
	if err != nil {
		return err
	}
	fp, err := e.Fingerprint()
	if err != nil {
		return err
	}

	pools := []model.Pool{poolRecord(poolAddr, params, fp)}
	if cfg.PoolsOut != "" {
		if err := storage.NewJsonlStorage(cfg.PoolsOut).PutPoolBatch(pools); err != nil {
			return err
		}
	}

	var swapStore simulate.SwapStore
	if store != nil {
		if err := store.UpsertPools(ctx, pools); err != nil {
			return fmt.Errorf("upsert pools: %w", err)
		}
		swapStore = store
	}

	sim := simulate.NewSimulator(simulate.Config{
		BatchSize:    cfg.BatchSize,
		DefaultPool:  poolAddr,
		QuoteOnly:    cfg.QuoteOnly,
		Checkpoint:   simulate.NewCheckpointStore(cfg.Checkpoint),
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, registry, storage.NewJsonlStorage(cfg.Out), swapStore, logger)

	logger.Info("simulate start",
		zap.String("input", cfg.Input),
		zap.String("out", cfg.Out),
		zap.String("pool", poolAddr.Hex()),
		zap.String("fingerprint", pools[0].Fingerprint),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("state_file", cfg.StateFile),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Bool("quote_only", cfg.QuoteOnly),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return sim.Run(ctx, cfg.Input)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
