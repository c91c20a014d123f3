package fixedpoint

import (
	"math/big"
)

const (
	tailFractionTerms = 100
	normInvIterations = 90
)

var (
	// 1/sqrt(2*pi) at the precise scale, floored.
	invSqrt2PiPrecise, _ = new(big.Int).SetString("398942280401432677939946059934381868", 10)

	// Beyond +-13 the upper tail is below one precise unit.
	cdfSaturation = new(big.Int).Mul(big.NewInt(13), Precise)
	// From 5 upward the continued fraction is more accurate than the series.
	cdfFractionSwitch = new(big.Int).Mul(big.NewInt(5), Precise)

	normInvBound = new(big.Int).Mul(big.NewInt(13), Wad)
)

// NormCDF returns the standard normal CDF of a wad z, rounded down.
func NormCDF(z *big.Int) *big.Int {
	return FromPrecise(NormCDFPrecise(ToPrecise(z)), RoundDown)
}

// NormCDFPrecise returns the standard normal CDF at the precise scale.
//
// For |x| < 5 it sums Phi(x) = 1/2 + phi(x) * sum x^(2n+1)/(2n+1)!!. Further
// out the upper tail is phi(x)/(x + 1/(x + 2/(x + ...))) with a fixed number
// of terms. The result saturates to 0 or 1 beyond |x| = 13.
func NormCDFPrecise(x *big.Int) *big.Int {
	if x.Cmp(cdfSaturation) >= 0 {
		return new(big.Int).Set(Precise)
	}
	if new(big.Int).Neg(x).Cmp(cdfSaturation) >= 0 {
		return new(big.Int)
	}

	a := new(big.Int).Abs(x)
	a2 := quo(new(big.Int).Mul(a, a), Precise)
	pdf := quo(new(big.Int).Mul(invSqrt2PiPrecise, Exp(new(big.Int).Neg(new(big.Int).Rsh(a2, 1)))), Precise)

	var v *big.Int
	if a.Cmp(cdfFractionSwitch) >= 0 {
		f := new(big.Int).Set(a)
		for k := int64(tailFractionTerms); k >= 1; k-- {
			num := new(big.Int).Mul(big.NewInt(k), Precise)
			num.Mul(num, Precise)
			f = new(big.Int).Add(a, quo(num, f))
		}
		upper := quo(new(big.Int).Mul(pdf, Precise), f)
		v = new(big.Int).Sub(Precise, upper)
	} else {
		sum := new(big.Int).Set(a)
		term := new(big.Int).Set(a)
		for n := int64(1); n <= maxSeriesTerms; n++ {
			term = quoInt(quo(new(big.Int).Mul(term, a2), Precise), 2*n+1)
			if term.Sign() == 0 {
				break
			}
			sum.Add(sum, term)
		}
		v = new(big.Int).Add(halfPrecise, quo(new(big.Int).Mul(pdf, sum), Precise))
	}
	if v.Cmp(Precise) > 0 {
		v.Set(Precise)
	}

	if x.Sign() < 0 {
		return v.Sub(Precise, v)
	}
	return v
}

// NormInv returns the wad z with NormCDF(z) <= p < NormCDF(z+1).
//
// It bisects over [-13, 13] and stops after a fixed number of halvings, so
// the cost is bounded regardless of p.
func NormInv(p *big.Int) (*big.Int, error) {
	if p.Sign() <= 0 || p.Cmp(Wad) >= 0 {
		return nil, ErrDomain
	}
	lo := new(big.Int).Neg(normInvBound)
	hi := new(big.Int).Set(normInvBound)
	one := big.NewInt(1)
	for i := 0; i < normInvIterations; i++ {
		if new(big.Int).Sub(hi, lo).Cmp(one) <= 0 {
			break
		}
		mid, _ := DivRound(new(big.Int).Add(lo, hi), big.NewInt(2), RoundDown)
		if NormCDF(mid).Cmp(p) <= 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, nil
}
