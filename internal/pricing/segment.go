// Package pricing integrates the marginal price over log-linear inventory
// segments and inverts those integrals in closed form.
package pricing

import (
	"errors"
	"fmt"
	"math/big"

	"lognormPool/internal/curve"
	"lognormPool/internal/fixedpoint"
)

// ErrDegenerateBin reports a pricing call on a zero-width segment.
var ErrDegenerateBin = errors.New("degenerate bin")

// wad^3, the scale of y = q*k/p when q, p are wad and k is a wad ratio.
var precise54 = new(big.Int).Mul(fixedpoint.Precise, fixedpoint.Wad)

// Segment is a stretch of inventory [X0, X1] along which the log-price moves
// linearly from Z0 to Z1. All four fields are wads.
type Segment struct {
	X0, X1 *big.Int
	Z0, Z1 *big.Int
}

// BinSegment returns the segment for table bin i.
func BinSegment(t *curve.Table, i int) Segment {
	lo, hi := t.Breakpoints[i], t.Breakpoints[i+1]
	return Segment{X0: lo.Inventory, X1: hi.Inventory, Z0: lo.LogPrice, Z1: hi.LogPrice}
}

func (s Segment) String() string {
	return fmt.Sprintf("[%s, %s] z[%s, %s]",
		fixedpoint.FormatWad(s.X0), fixedpoint.FormatWad(s.X1),
		fixedpoint.FormatWad(s.Z0), fixedpoint.FormatWad(s.Z1))
}

// Width returns X1 - X0.
func (s Segment) Width() *big.Int {
	return new(big.Int).Sub(s.X1, s.X0)
}

// Degenerate reports a zero-width segment.
func (s Segment) Degenerate() bool {
	return s.X1.Cmp(s.X0) <= 0
}

// Flat reports a constant-price segment.
func (s Segment) Flat() bool {
	return s.Z1.Cmp(s.Z0) == 0
}

func (s Segment) rise() *big.Int {
	return new(big.Int).Sub(s.Z1, s.Z0)
}

// Contains reports X0 <= x <= X1.
func (s Segment) Contains(x *big.Int) bool {
	return x.Cmp(s.X0) >= 0 && x.Cmp(s.X1) <= 0
}

// logPricePrecise returns z(x) at the precise scale. The endpoints are exact.
func (s Segment) logPricePrecise(x *big.Int) *big.Int {
	switch {
	case x.Cmp(s.X0) == 0:
		return fixedpoint.ToPrecise(s.Z0)
	case x.Cmp(s.X1) == 0:
		return fixedpoint.ToPrecise(s.Z1)
	}
	num := new(big.Int).Sub(x, s.X0)
	num.Mul(num, s.rise())
	num.Mul(num, fixedpoint.Wad)
	off, _ := fixedpoint.DivRound(num, s.Width(), fixedpoint.RoundDown)
	return off.Add(off, fixedpoint.ToPrecise(s.Z0))
}

func (s Segment) pricePrecise(x *big.Int) *big.Int {
	return fixedpoint.Exp(s.logPricePrecise(x))
}

// LogPriceAt returns z(x) as a wad, rounded down.
func (s Segment) LogPriceAt(x *big.Int) (*big.Int, error) {
	if s.Degenerate() {
		return nil, ErrDegenerateBin
	}
	return fixedpoint.FromPrecise(s.logPricePrecise(x), fixedpoint.RoundDown), nil
}

// PriceAt returns the marginal price e^z(x) as a wad, rounded down.
func (s Segment) PriceAt(x *big.Int) (*big.Int, error) {
	if s.Degenerate() {
		return nil, ErrDegenerateBin
	}
	p := fixedpoint.FromPrecise(s.pricePrecise(x), fixedpoint.RoundDown)
	if err := fixedpoint.CheckInt256(p); err != nil {
		return nil, err
	}
	return p, nil
}

// QuoteBetween returns the quote amount that moves inventory across [a, b],
// the integral of e^z(x) dx. With k = (Z1-Z0)/(X1-X0) it is
// p(a) * expm1(k*(b-a)) / k, or p(a) * (b-a) on a flat segment.
func (s Segment) QuoteBetween(a, b *big.Int, rounding fixedpoint.Rounding) (*big.Int, error) {
	if s.Degenerate() {
		return nil, ErrDegenerateBin
	}
	if a.Cmp(s.X0) < 0 || b.Cmp(s.X1) > 0 || a.Cmp(b) > 0 {
		return nil, fmt.Errorf("interval [%s, %s] outside segment %s: %w", a, b, s, fixedpoint.ErrDomain)
	}
	d := new(big.Int).Sub(b, a)
	if d.Sign() == 0 {
		return new(big.Int), nil
	}
	pa := s.pricePrecise(a)

	var out *big.Int
	if s.Flat() {
		out, _ = fixedpoint.DivRound(new(big.Int).Mul(pa, d), fixedpoint.Precise, rounding)
	} else {
		rise := s.rise()
		w := s.Width()
		kd := new(big.Int).Mul(rise, d)
		kd.Mul(kd, fixedpoint.Wad)
		kd, _ = fixedpoint.DivRound(kd, w, fixedpoint.RoundDown)

		num := new(big.Int).Mul(pa, fixedpoint.Expm1(kd))
		num.Mul(num, w)
		out, _ = fixedpoint.DivRound(num, new(big.Int).Mul(precise54, rise), rounding)
	}
	if err := fixedpoint.CheckInt256(out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdvanceUp returns the inventory reached from a after paying quote q,
// b = a + ln1p(q*k/p(a))/k, rounded down and clamped to X1.
func (s Segment) AdvanceUp(a, q *big.Int) (*big.Int, error) {
	if s.Degenerate() {
		return nil, ErrDegenerateBin
	}
	if q.Sign() < 0 {
		return nil, fixedpoint.ErrDomain
	}
	pa := s.pricePrecise(a)
	if pa.Sign() == 0 {
		return nil, fixedpoint.ErrDivisionByZero
	}

	var d *big.Int
	if s.Flat() {
		d, _ = fixedpoint.DivRound(new(big.Int).Mul(q, fixedpoint.Precise), pa, fixedpoint.RoundDown)
	} else {
		rise := s.rise()
		w := s.Width()
		y := new(big.Int).Mul(q, rise)
		y.Mul(y, precise54)
		y, _ = fixedpoint.DivRound(y, new(big.Int).Mul(w, pa), fixedpoint.RoundDown)

		l, err := fixedpoint.Ln1p(y)
		if err != nil {
			return nil, err
		}
		d, _ = fixedpoint.DivRound(new(big.Int).Mul(l, w), new(big.Int).Mul(fixedpoint.Wad, rise), fixedpoint.RoundDown)
	}

	b := d.Add(d, a)
	if b.Cmp(s.X1) > 0 {
		b.Set(s.X1)
	}
	return b, nil
}

// RetreatDown returns the inventory a below b such that selling base across
// [a, b] pays out q quote, a = b + ln1p(-q*k/p(b))/k, rounded down and
// clamped to X0.
func (s Segment) RetreatDown(b, q *big.Int) (*big.Int, error) {
	if s.Degenerate() {
		return nil, ErrDegenerateBin
	}
	if q.Sign() < 0 {
		return nil, fixedpoint.ErrDomain
	}
	pb := s.pricePrecise(b)
	if pb.Sign() == 0 {
		return nil, fixedpoint.ErrDivisionByZero
	}

	var d *big.Int
	if s.Flat() {
		d, _ = fixedpoint.DivRound(new(big.Int).Mul(q, fixedpoint.Precise), pb, fixedpoint.RoundUp)
	} else {
		rise := s.rise()
		w := s.Width()
		y := new(big.Int).Mul(q, rise)
		y.Mul(y, precise54)
		y, _ = fixedpoint.DivRound(y, new(big.Int).Mul(w, pb), fixedpoint.RoundUp)
		if y.Cmp(fixedpoint.Precise) >= 0 {
			return new(big.Int).Set(s.X0), nil
		}

		l, err := fixedpoint.Ln1p(new(big.Int).Neg(y))
		if err != nil {
			return nil, err
		}
		d, _ = fixedpoint.DivRound(new(big.Int).Mul(l.Neg(l), w), new(big.Int).Mul(fixedpoint.Wad, rise), fixedpoint.RoundUp)
	}

	a := new(big.Int).Sub(b, d)
	if a.Cmp(s.X0) < 0 {
		a.Set(s.X0)
	}
	return a, nil
}
