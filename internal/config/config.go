package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"lognormPool/internal/curve"
	"lognormPool/internal/fixedpoint"
)

const envPrefix = "PRICER"

// ConfigError names the setting that could not be parsed.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// PoolConfig holds curve parameters as decimal text.
type PoolConfig struct {
	Mu                  string
	MeanPrice           string
	Sigma               string
	PriceMin            string
	PriceMax            string
	NumBins             int
	Liquidity           string
	SwapFee             string
	TailMode            string
	TailSteepness       string
	TailLogPriceCap     string
	TailMaxDisplacement string
}

// Logging holds the shared logging settings.
type Logging struct {
	Level string
	File  string
}

// newViper merges config file, environment variables, and flags. defaults
// runs before flags are bound.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults func(v *viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	setPoolDefaults(v)
	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func setPoolDefaults(v *viper.Viper) {
	v.SetDefault("num-bins", 64)
	v.SetDefault("swap-fee", "0.003")
	v.SetDefault("tail-mode", "hard")
	v.SetDefault("tail-steepness", "4")
	v.SetDefault("tail-log-price-cap", "0.5")
}

func loadPool(v *viper.Viper) PoolConfig {
	return PoolConfig{
		Mu:                  v.GetString("mu"),
		MeanPrice:           v.GetString("mean-price"),
		Sigma:               v.GetString("sigma"),
		PriceMin:            v.GetString("price-min"),
		PriceMax:            v.GetString("price-max"),
		NumBins:             v.GetInt("num-bins"),
		Liquidity:           v.GetString("liquidity"),
		SwapFee:             v.GetString("swap-fee"),
		TailMode:            v.GetString("tail-mode"),
		TailSteepness:       v.GetString("tail-steepness"),
		TailLogPriceCap:     v.GetString("tail-log-price-cap"),
		TailMaxDisplacement: v.GetString("tail-max-displacement"),
	}
}

func loadLogging(v *viper.Viper) Logging {
	return Logging{
		Level: v.GetString("log-level"),
		File:  v.GetString("log-file"),
	}
}

// Params converts the text settings into curve parameters. Either mu or
// mean-price must be set; mu wins when both are.
func (c PoolConfig) Params() (curve.Params, error) {
	var p curve.Params
	var err error

	switch {
	case strings.TrimSpace(c.Mu) != "":
		if p.Mu, err = parseField("mu", c.Mu); err != nil {
			return curve.Params{}, err
		}
	case strings.TrimSpace(c.MeanPrice) != "":
		price, err := parseField("mean-price", c.MeanPrice)
		if err != nil {
			return curve.Params{}, err
		}
		if p.Mu, err = fixedpoint.LnWad(price); err != nil {
			return curve.Params{}, &ConfigError{Field: "mean-price", Err: err}
		}
	default:
		return curve.Params{}, &ConfigError{Field: "mu", Err: fmt.Errorf("mu or mean-price is required")}
	}

	fields := []struct {
		name string
		raw  string
		dst  **big.Int
	}{
		{"sigma", c.Sigma, &p.Sigma},
		{"price-min", c.PriceMin, &p.PriceMin},
		{"price-max", c.PriceMax, &p.PriceMax},
		{"liquidity", c.Liquidity, &p.Liquidity},
		{"swap-fee", c.SwapFee, &p.SwapFee},
	}
	for _, f := range fields {
		if *f.dst, err = parseField(f.name, f.raw); err != nil {
			return curve.Params{}, err
		}
	}
	p.NumBins = c.NumBins

	mode, err := curve.ParseTailMode(strings.TrimSpace(c.TailMode))
	if err != nil {
		return curve.Params{}, &ConfigError{Field: "tail-mode", Err: err}
	}
	p.Tail.Mode = mode
	if mode == curve.TailSoft {
		if p.Tail.Steepness, err = parseField("tail-steepness", c.TailSteepness); err != nil {
			return curve.Params{}, err
		}
		if p.Tail.LogPriceCap, err = parseField("tail-log-price-cap", c.TailLogPriceCap); err != nil {
			return curve.Params{}, err
		}
		if p.Tail.MaxDisplacement, err = parseField("tail-max-displacement", c.TailMaxDisplacement); err != nil {
			return curve.Params{}, err
		}
	}
	return p, nil
}

func parseField(name, raw string) (*big.Int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ConfigError{Field: name, Err: fmt.Errorf("value is required")}
	}
	v, err := fixedpoint.ParseWad(raw)
	if err != nil {
		return nil, &ConfigError{Field: name, Err: err}
	}
	return v, nil
}

// ParseAmount parses an optional decimal amount; empty input yields nil.
func ParseAmount(field, raw string) (*big.Int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return parseField(field, raw)
}
