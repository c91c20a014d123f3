package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// TableConfig holds configuration for the table command.
type TableConfig struct {
	Pool       PoolConfig
	Out        string
	Continuous bool
	Logging    Logging
}

// LoadTable merges config file, environment variables, and flags into TableConfig.
func LoadTable(cfgFile string, flags *pflag.FlagSet) (TableConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("out", "./data/table.jsonl")
	})
	if err != nil {
		return TableConfig{}, err
	}

	return TableConfig{
		Pool:       loadPool(v),
		Out:        v.GetString("out"),
		Continuous: v.GetBool("continuous"),
		Logging:    loadLogging(v),
	}, nil
}
