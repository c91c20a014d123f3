package curve

import (
	"fmt"
	"math/big"

	"lognormPool/internal/fixedpoint"
)

// Build discretises the log-normal profile described by p into a Table.
//
// Log-prices are spaced uniformly between ln(PriceMin) and ln(PriceMax).
// Cumulative inventory is the normal CDF of the standardised log-price,
// renormalised over the domain so that X_0 = 0 and X_n = L exactly.
// The computation is integer-only and deterministic.
func Build(p Params) (*Table, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	zMin, err := fixedpoint.LnWad(p.PriceMin)
	if err != nil {
		return nil, paramErr("price_min", "ln: %v", err)
	}
	zMax, err := fixedpoint.LnWad(p.PriceMax)
	if err != nil {
		return nil, paramErr("price_max", "ln: %v", err)
	}

	n := p.NumBins
	step, err := fixedpoint.DivRound(new(big.Int).Sub(zMax, zMin), big.NewInt(int64(n)), fixedpoint.RoundDown)
	if err != nil {
		return nil, fmt.Errorf("log-price step: %w", err)
	}
	if step.Sign() <= 0 {
		return nil, paramErr("num_bins", "log-price step is zero for %d bins", n)
	}

	logPrices := make([]*big.Int, n+1)
	cdf := make([]*big.Int, n+1)
	for i := 0; i <= n; i++ {
		z := new(big.Int).Mul(step, big.NewInt(int64(i)))
		z.Add(z, zMin)
		logPrices[i] = z

		c, err := standardCDF(p, z)
		if err != nil {
			return nil, fmt.Errorf("standardise bin %d: %w", i, err)
		}
		cdf[i] = c
	}

	span := new(big.Int).Sub(cdf[n], cdf[0])
	if span.Sign() <= 0 {
		return nil, paramErr("price_range", "no probability mass between price_min and price_max")
	}

	breakpoints := make([]Breakpoint, n+1)
	prev := new(big.Int)
	for i := 0; i <= n; i++ {
		var x *big.Int
		switch i {
		case 0:
			x = new(big.Int)
		case n:
			x = new(big.Int).Set(p.Liquidity)
		default:
			x, err = fixedpoint.MulDiv(p.Liquidity, new(big.Int).Sub(cdf[i], cdf[0]), span, fixedpoint.RoundDown)
			if err != nil {
				return nil, fmt.Errorf("inventory at bin %d: %w", i, err)
			}
		}
		if x.Cmp(prev) < 0 {
			x = new(big.Int).Set(prev)
		}
		breakpoints[i] = Breakpoint{LogPrice: logPrices[i], Inventory: x}
		prev = x
	}

	return &Table{Breakpoints: breakpoints, StepLogPrice: step}, nil
}
