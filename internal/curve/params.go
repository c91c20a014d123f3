// Package curve builds the immutable breakpoint table of a discretised
// log-normal liquidity profile and locates bins within it.
package curve

import (
	"errors"
	"fmt"
	"math/big"

	"lognormPool/internal/fixedpoint"
)

// MaxBins bounds the table size and therefore the cost of every quote.
const MaxBins = 4096

// ErrInvalidParameters reports a parameter set the builder rejects.
var ErrInvalidParameters = errors.New("invalid curve parameters")

// ParamError names the offending field.
type ParamError struct {
	Field string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrInvalidParameters, e.Field, e.Err)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParameters }

func paramErr(field, format string, args ...any) error {
	return &ParamError{Field: field, Err: fmt.Errorf(format, args...)}
}

// TailMode selects what happens when a trade reaches the edge of the table.
type TailMode uint8

const (
	// TailHard rejects any trade that would leave [0, L].
	TailHard TailMode = iota
	// TailSoft extends the curve past both edges with a steepening ramp
	// followed by a flat segment at the capped price.
	TailSoft
)

func (m TailMode) String() string {
	switch m {
	case TailHard:
		return "hard"
	case TailSoft:
		return "soft"
	default:
		return fmt.Sprintf("TailMode(%d)", uint8(m))
	}
}

// ParseTailMode accepts "hard" or "soft"; the empty string is hard.
func ParseTailMode(s string) (TailMode, error) {
	switch s {
	case "", "hard":
		return TailHard, nil
	case "soft":
		return TailSoft, nil
	default:
		return 0, fmt.Errorf("unknown tail mode %q", s)
	}
}

// TailPolicy configures the out-of-domain behaviour. Steepness, LogPriceCap
// and MaxDisplacement are wads and only read in TailSoft mode.
type TailPolicy struct {
	Mode TailMode
	// Steepness multiplies the table's average log-price slope on the ramp.
	Steepness *big.Int
	// LogPriceCap is how far past the boundary log-price the ramp climbs.
	LogPriceCap *big.Int
	// MaxDisplacement is how far past 0 or L the inventory may move.
	MaxDisplacement *big.Int
}

// Params describes one curve. All fields except NumBins and Tail are wads.
type Params struct {
	Mu        *big.Int
	Sigma     *big.Int
	PriceMin  *big.Int
	PriceMax  *big.Int
	NumBins   int
	Liquidity *big.Int
	SwapFee   *big.Int
	Tail      TailPolicy
}

// Validate checks the parameter ranges that do not need the table.
func (p Params) Validate() error {
	if p.Mu == nil {
		return paramErr("mu", "missing")
	}
	if err := fixedpoint.CheckInt256(p.Mu); err != nil {
		return paramErr("mu", "%v", err)
	}
	if p.Sigma == nil || p.Sigma.Sign() <= 0 {
		return paramErr("sigma", "must be positive")
	}
	if p.NumBins < 2 || p.NumBins > MaxBins {
		return paramErr("num_bins", "must be in [2, %d], got %d", MaxBins, p.NumBins)
	}
	if p.PriceMin == nil || p.PriceMin.Sign() <= 0 {
		return paramErr("price_min", "must be positive")
	}
	if p.PriceMax == nil || p.PriceMax.Cmp(p.PriceMin) <= 0 {
		return paramErr("price_max", "must exceed price_min")
	}
	if p.Liquidity == nil || p.Liquidity.Sign() <= 0 {
		return paramErr("liquidity", "must be positive")
	}
	if err := fixedpoint.CheckInt256(p.Liquidity); err != nil {
		return paramErr("liquidity", "%v", err)
	}
	if p.SwapFee == nil || p.SwapFee.Sign() < 0 || p.SwapFee.Cmp(fixedpoint.Wad) >= 0 {
		return paramErr("swap_fee", "must be in [0, 1)")
	}
	return p.Tail.validate()
}

func (t TailPolicy) validate() error {
	switch t.Mode {
	case TailHard:
		return nil
	case TailSoft:
	default:
		return paramErr("tail.mode", "unknown mode %d", uint8(t.Mode))
	}
	if t.Steepness == nil || t.Steepness.Cmp(fixedpoint.Wad) < 0 {
		return paramErr("tail.steepness", "must be at least 1")
	}
	if t.LogPriceCap == nil || t.LogPriceCap.Sign() <= 0 {
		return paramErr("tail.log_price_cap", "must be positive")
	}
	if t.MaxDisplacement == nil || t.MaxDisplacement.Sign() <= 0 {
		return paramErr("tail.max_displacement", "must be positive")
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate configured parameters.
func (p Params) Clone() Params {
	out := p
	out.Mu = cloneInt(p.Mu)
	out.Sigma = cloneInt(p.Sigma)
	out.PriceMin = cloneInt(p.PriceMin)
	out.PriceMax = cloneInt(p.PriceMax)
	out.Liquidity = cloneInt(p.Liquidity)
	out.SwapFee = cloneInt(p.SwapFee)
	out.Tail.Steepness = cloneInt(p.Tail.Steepness)
	out.Tail.LogPriceCap = cloneInt(p.Tail.LogPriceCap)
	out.Tail.MaxDisplacement = cloneInt(p.Tail.MaxDisplacement)
	return out
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
