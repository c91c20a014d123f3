// Package fixedpoint implements deterministic integer fixed-point arithmetic.
//
// Public amounts use the wad scale (1e18). Transcendental functions and
// segment integration run at the precise scale (1e36) and are narrowed back
// to wad with an explicit rounding direction at the call site.
package fixedpoint

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrArithmeticOverflow reports an intermediate or result outside int256.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	// ErrDivisionByZero reports a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrDomain reports an argument outside a function's domain (ln of a non-positive value, NormInv outside (0, 1)).
	ErrDomain = errors.New("argument outside function domain")
)

// Rounding selects the direction of every narrowing division.
type Rounding uint8

const (
	// RoundDown is used for amounts the pool pays out.
	RoundDown Rounding = iota
	// RoundUp is used for amounts the user pays in.
	RoundUp
)

func (r Rounding) String() string {
	if r == RoundUp {
		return "up"
	}
	return "down"
}

var (
	// Wad is 1e18.
	Wad = big.NewInt(1_000_000_000_000_000_000)
	// Precise is 1e36.
	Precise = new(big.Int).Mul(Wad, Wad)

	maxInt256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	minInt256 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
)

// NewWad returns v scaled to wad.
func NewWad(v int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(v), Wad)
}

// CheckInt256 fails with ErrArithmeticOverflow when v does not fit a signed 256-bit word.
func CheckInt256(v *big.Int) error {
	if v == nil {
		return nil
	}
	if v.Cmp(maxInt256) > 0 || v.Cmp(minInt256) < 0 {
		return ErrArithmeticOverflow
	}
	return nil
}

// MulDiv returns x*y/d for non-negative operands with a 512-bit intermediate.
// Negative operands fail with ErrDomain.
func MulDiv(x, y, d *big.Int, rounding Rounding) (*big.Int, error) {
	if d.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	if x.Sign() < 0 || y.Sign() < 0 || d.Sign() < 0 {
		return nil, ErrDomain
	}
	ux, overflow := uint256.FromBig(x)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	uy, overflow := uint256.FromBig(y)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	ud, overflow := uint256.FromBig(d)
	if overflow {
		return nil, ErrArithmeticOverflow
	}

	z, overflow := new(uint256.Int).MulDivOverflow(ux, uy, ud)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	if rounding == RoundUp && !new(uint256.Int).MulMod(ux, uy, ud).IsZero() {
		if _, overflow = z.AddOverflow(z, uint256.NewInt(1)); overflow {
			return nil, ErrArithmeticOverflow
		}
	}

	out := z.ToBig()
	if err := CheckInt256(out); err != nil {
		return nil, err
	}
	return out, nil
}

// MulWad returns x*y/1e18.
func MulWad(x, y *big.Int, rounding Rounding) (*big.Int, error) {
	return MulDiv(x, y, Wad, rounding)
}

// DivWad returns x*1e18/y.
func DivWad(x, y *big.Int, rounding Rounding) (*big.Int, error) {
	return MulDiv(x, Wad, y, rounding)
}

// DivRound divides arbitrary signed integers, flooring for RoundDown and
// ceiling for RoundUp. Unlike MulDiv there is no width limit; callers narrow
// the result with CheckInt256 once it is back at wad scale.
func DivRound(n, d *big.Int, rounding Rounding) (*big.Int, error) {
	if d.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	num, den := n, d
	if den.Sign() < 0 {
		num = new(big.Int).Neg(n)
		den = new(big.Int).Neg(d)
	}
	q, m := new(big.Int).DivMod(num, den, new(big.Int))
	if rounding == RoundUp && m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q, nil
}

// ToPrecise widens a wad value to the precise scale.
func ToPrecise(x *big.Int) *big.Int {
	return new(big.Int).Mul(x, Wad)
}

// FromPrecise narrows a precise value to wad.
func FromPrecise(x *big.Int, rounding Rounding) *big.Int {
	q, _ := DivRound(x, Wad, rounding)
	return q
}

// quo truncates toward zero. Series terms use it so that alternating and
// negative terms shrink to exactly zero.
func quo(a, b *big.Int) *big.Int {
	return new(big.Int).Quo(a, b)
}

func quoInt(a *big.Int, b int64) *big.Int {
	return new(big.Int).Quo(a, big.NewInt(b))
}
