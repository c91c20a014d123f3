package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SimulateConfig holds configuration for replaying a swap stream.
type SimulateConfig struct {
	Pool         PoolConfig
	PoolAddress  string
	Input        string
	Out          string
	PoolsOut     string
	QuoteOnly    bool
	StateFile    string
	PGDSN        string
	BatchSize    int
	Checkpoint   string
	MaxRetries   int
	RetryBackoff time.Duration
	Logging      Logging
}

// LoadSimulate merges config file, environment variables, and flags into SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("out", "./data/quotes.jsonl")
		v.SetDefault("pools-out", "./data/pools.jsonl")
		v.SetDefault("batch-size", 500)
		v.SetDefault("max-retries", 3)
		v.SetDefault("retry-backoff", 200*time.Millisecond)
		v.SetDefault("pool-address", "0x0000000000000000000000000000000000000001")
	})
	if err != nil {
		return SimulateConfig{}, err
	}

	return SimulateConfig{
		Pool:         loadPool(v),
		PoolAddress:  v.GetString("pool-address"),
		Input:        v.GetString("in"),
		Out:          v.GetString("out"),
		PoolsOut:     v.GetString("pools-out"),
		QuoteOnly:    v.GetBool("quote-only"),
		StateFile:    v.GetString("state-file"),
		PGDSN:        v.GetString("pg-dsn"),
		BatchSize:    v.GetInt("batch-size"),
		Checkpoint:   v.GetString("checkpoint"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		Logging:      loadLogging(v),
	}, nil
}
