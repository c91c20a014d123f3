package curve

import (
	"fmt"
	"math/big"

	"lognormPool/internal/fixedpoint"
)

// ContinuousLogPrice returns the log-price of the undiscretised truncated
// log-normal profile at inventory x in [0, L]. It inverts the CDF by bounded
// bisection and is only meant for comparing a table against its source
// distribution; quotes never call it.
func ContinuousLogPrice(p Params, x *big.Int) (*big.Int, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if x.Sign() < 0 || x.Cmp(p.Liquidity) > 0 {
		return nil, fmt.Errorf("inventory %s outside [0, %s]: %w", x, p.Liquidity, fixedpoint.ErrDomain)
	}

	zMin, err := fixedpoint.LnWad(p.PriceMin)
	if err != nil {
		return nil, err
	}
	zMax, err := fixedpoint.LnWad(p.PriceMax)
	if err != nil {
		return nil, err
	}
	if x.Sign() == 0 {
		return zMin, nil
	}
	if x.Cmp(p.Liquidity) == 0 {
		return zMax, nil
	}

	c0, err := standardCDF(p, zMin)
	if err != nil {
		return nil, err
	}
	cn, err := standardCDF(p, zMax)
	if err != nil {
		return nil, err
	}
	span := new(big.Int).Sub(cn, c0)
	if span.Sign() <= 0 {
		return nil, paramErr("price_range", "no probability mass between price_min and price_max")
	}

	frac, err := fixedpoint.MulDiv(x, span, p.Liquidity, fixedpoint.RoundDown)
	if err != nil {
		return nil, err
	}
	target := fixedpoint.FromPrecise(frac.Add(frac, c0), fixedpoint.RoundDown)

	u, err := fixedpoint.NormInv(target)
	if err != nil {
		return nil, fmt.Errorf("invert cdf at %s: %w", x, err)
	}
	// z = mu + u*sigma
	z, err := fixedpoint.DivRound(new(big.Int).Mul(u, p.Sigma), fixedpoint.Wad, fixedpoint.RoundDown)
	if err != nil {
		return nil, err
	}
	z.Add(z, p.Mu)
	if z.Cmp(zMin) < 0 {
		z.Set(zMin)
	}
	if z.Cmp(zMax) > 0 {
		z.Set(zMax)
	}
	return z, nil
}

// standardCDF returns Phi((z - mu) / sigma) at the precise scale.
func standardCDF(p Params, z *big.Int) (*big.Int, error) {
	num := new(big.Int).Sub(z, p.Mu)
	num.Mul(num, fixedpoint.Precise)
	u, err := fixedpoint.DivRound(num, p.Sigma, fixedpoint.RoundDown)
	if err != nil {
		return nil, err
	}
	return fixedpoint.NormCDFPrecise(u), nil
}
