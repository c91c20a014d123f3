package pricing

import (
	"fmt"
	"math/big"

	"lognormPool/internal/curve"
	"lognormPool/internal/fixedpoint"
)

// tailSegments lays out the soft-tail extension on both sides of the table.
//
// Past each boundary a ramp continues the log-price with slope
// Steepness * (z_n - z_0) / L until it has moved LogPriceCap, then a flat
// segment holds the capped price out to MaxDisplacement. If MaxDisplacement
// is reached first the ramp is cut short and there is no flat segment.
// below is ordered by increasing inventory and ends at 0; above starts at L.
func tailSegments(t *curve.Table, policy curve.TailPolicy) (below, above []Segment, err error) {
	if policy.Mode != curve.TailSoft {
		return nil, nil, nil
	}
	L := t.Liquidity()
	span := new(big.Int).Sub(t.MaxLogPrice(), t.MinLogPrice())
	maxDisp := policy.MaxDisplacement

	// Inventory needed to climb the full cap on the ramp.
	slopeDen := new(big.Int).Mul(policy.Steepness, span)
	rampLen := new(big.Int).Mul(policy.LogPriceCap, L)
	rampLen.Mul(rampLen, fixedpoint.Wad)
	rampLen, err = fixedpoint.DivRound(rampLen, slopeDen, fixedpoint.RoundUp)
	if err != nil {
		return nil, nil, fmt.Errorf("tail ramp length: %w", err)
	}

	rise := new(big.Int).Set(policy.LogPriceCap)
	if rampLen.Cmp(maxDisp) > 0 {
		rampLen = new(big.Int).Set(maxDisp)
		rise = new(big.Int).Mul(slopeDen, maxDisp)
		rise, _ = fixedpoint.DivRound(rise, new(big.Int).Mul(L, fixedpoint.Wad), fixedpoint.RoundDown)
	}

	zTop := new(big.Int).Add(t.MaxLogPrice(), rise)
	if _, err := fixedpoint.ExpWad(zTop); err != nil {
		return nil, nil, fmt.Errorf("tail log-price cap %s: %w", fixedpoint.FormatWad(zTop), err)
	}
	zBottom := new(big.Int).Sub(t.MinLogPrice(), rise)

	rampEnd := new(big.Int).Add(L, rampLen)
	above = append(above, Segment{X0: L, X1: rampEnd, Z0: t.MaxLogPrice(), Z1: zTop})
	if rampLen.Cmp(maxDisp) < 0 {
		above = append(above, Segment{X0: rampEnd, X1: new(big.Int).Add(L, maxDisp), Z0: zTop, Z1: zTop})
	}

	rampStart := new(big.Int).Neg(rampLen)
	if rampLen.Cmp(maxDisp) < 0 {
		below = append(below, Segment{X0: new(big.Int).Neg(maxDisp), X1: rampStart, Z0: zBottom, Z1: zBottom})
	}
	below = append(below, Segment{X0: rampStart, X1: new(big.Int), Z0: zBottom, Z1: t.MinLogPrice()})
	return below, above, nil
}
