package fixedpoint

import (
	"math/big"
)

var twoPrecise = new(big.Int).Lsh(Precise, 1)

// LnWad returns ln(x) for a positive wad x, rounded down.
func LnWad(x *big.Int) (*big.Int, error) {
	if x.Sign() <= 0 {
		return nil, ErrDomain
	}
	y, err := Ln(ToPrecise(x))
	if err != nil {
		return nil, err
	}
	return FromPrecise(y, RoundDown), nil
}

// Ln returns ln(v) at the precise scale.
//
// v is normalised to m*2^k with m in [1, 2) and ln(m) is summed as
// 2*atanh((m-1)/(m+1)).
func Ln(v *big.Int) (*big.Int, error) {
	if v.Sign() <= 0 {
		return nil, ErrDomain
	}
	k := v.BitLen() - Precise.BitLen()
	m := new(big.Int)
	if k >= 0 {
		m.Rsh(v, uint(k))
	} else {
		m.Lsh(v, uint(-k))
	}
	for m.Cmp(twoPrecise) >= 0 {
		m.Rsh(m, 1)
		k++
	}
	for m.Cmp(Precise) < 0 {
		m.Lsh(m, 1)
		k--
	}

	s := quo(new(big.Int).Mul(new(big.Int).Sub(m, Precise), Precise), new(big.Int).Add(m, Precise))
	out := new(big.Int).Mul(big.NewInt(int64(k)), ln2Precise)
	return out.Add(out, atanh2(s)), nil
}

// Ln1p returns ln(1+y) at the precise scale for y > -1.
func Ln1p(y *big.Int) (*big.Int, error) {
	sum := new(big.Int).Add(Precise, y)
	if sum.Sign() <= 0 {
		return nil, ErrDomain
	}
	if new(big.Int).Abs(y).Cmp(halfPrecise) > 0 {
		return Ln(sum)
	}
	// ln(1+y) = 2*atanh(y/(2+y))
	s := quo(new(big.Int).Mul(y, Precise), new(big.Int).Add(twoPrecise, y))
	return atanh2(s), nil
}

// atanh2 returns 2*atanh(s) for |s| <= 1/3 at the precise scale.
func atanh2(s *big.Int) *big.Int {
	s2 := quo(new(big.Int).Mul(s, s), Precise)
	sum := new(big.Int).Set(s)
	term := new(big.Int).Set(s)
	for n := int64(1); n <= maxSeriesTerms; n++ {
		term = quo(new(big.Int).Mul(term, s2), Precise)
		if term.Sign() == 0 {
			break
		}
		sum.Add(sum, quoInt(term, 2*n+1))
	}
	return sum.Lsh(sum, 1)
}
