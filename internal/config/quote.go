package config

import (
	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for a one-off quote.
type QuoteConfig struct {
	Pool      PoolConfig
	Inventory string
	Direction string
	Mode      string
	Amount    string
	Logging   Logging
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return QuoteConfig{}, err
	}

	return QuoteConfig{
		Pool:      loadPool(v),
		Inventory: v.GetString("inventory"),
		Direction: v.GetString("direction"),
		Mode:      v.GetString("mode"),
		Amount:    v.GetString("amount"),
		Logging:   loadLogging(v),
	}, nil
}
