package fixedpoint

import (
	"math/big"
)

const maxSeriesTerms = 400

var (
	// ln(2) at the precise scale, floored.
	ln2Precise, _ = new(big.Int).SetString("693147180559945309417232121458176568", 10)

	// Largest wad input whose exponential still fits int256 at wad scale.
	maxExpWad, _ = new(big.Int).SetString("135305999368893231588", 10)
	// Below this the wad exponential floors to zero.
	minExpWad, _ = new(big.Int).SetString("-41446531673892822313", 10)

	halfPrecise = new(big.Int).Rsh(Precise, 1)
)

// ExpWad returns e^x for a wad x, rounded down.
func ExpWad(x *big.Int) (*big.Int, error) {
	if x.Cmp(maxExpWad) > 0 {
		return nil, ErrArithmeticOverflow
	}
	if x.Cmp(minExpWad) < 0 {
		return new(big.Int), nil
	}
	return FromPrecise(Exp(ToPrecise(x)), RoundDown), nil
}

// Exp returns e^x at the precise scale.
//
// x is reduced to k*ln2 + r with |r| <= ln2/2, e^r is summed as a Taylor
// series and the result is shifted by k.
func Exp(x *big.Int) *big.Int {
	// k = floor((x + ln2/2) / ln2)
	num := new(big.Int).Lsh(x, 1)
	num.Add(num, ln2Precise)
	k, _ := DivRound(num, new(big.Int).Lsh(ln2Precise, 1), RoundDown)
	r := new(big.Int).Sub(x, new(big.Int).Mul(k, ln2Precise))

	sum := new(big.Int).Set(Precise)
	term := new(big.Int).Set(Precise)
	for i := int64(1); i <= maxSeriesTerms; i++ {
		term = quoInt(quo(new(big.Int).Mul(term, r), Precise), i)
		if term.Sign() == 0 {
			break
		}
		sum.Add(sum, term)
	}

	if k.Sign() >= 0 {
		return sum.Lsh(sum, uint(k.Uint64()))
	}
	shift := new(big.Int).Neg(k)
	if shift.BitLen() > 16 {
		return new(big.Int)
	}
	return sum.Rsh(sum, uint(shift.Uint64()))
}

// Expm1 returns e^x - 1 at the precise scale. Small arguments are summed
// directly so the result keeps its relative precision.
func Expm1(x *big.Int) *big.Int {
	if new(big.Int).Abs(x).Cmp(halfPrecise) > 0 {
		return new(big.Int).Sub(Exp(x), Precise)
	}
	sum := new(big.Int).Set(x)
	term := new(big.Int).Set(x)
	for i := int64(2); i <= maxSeriesTerms; i++ {
		term = quoInt(quo(new(big.Int).Mul(term, x), Precise), i)
		if term.Sign() == 0 {
			break
		}
		sum.Add(sum, term)
	}
	return sum
}
