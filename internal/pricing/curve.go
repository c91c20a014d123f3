package pricing

import (
	"math/big"

	"lognormPool/internal/curve"
)

// Curve joins the table bins and any tail segments into one piecewise
// log-linear price function over inventory.
type Curve struct {
	table *curve.Table
	below []Segment
	above []Segment
}

// NewCurve prepares the segments for t under the given tail policy.
func NewCurve(t *curve.Table, tail curve.TailPolicy) (*Curve, error) {
	below, above, err := tailSegments(t, tail)
	if err != nil {
		return nil, err
	}
	return &Curve{table: t, below: below, above: above}, nil
}

// Table returns the underlying breakpoint table.
func (c *Curve) Table() *curve.Table {
	return c.table
}

// MinInventory is the lowest reachable inventory.
func (c *Curve) MinInventory() *big.Int {
	if len(c.below) == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(c.below[0].X0)
}

// MaxInventory is the highest reachable inventory.
func (c *Curve) MaxInventory() *big.Int {
	if len(c.above) == 0 {
		return new(big.Int).Set(c.table.Liquidity())
	}
	return new(big.Int).Set(c.above[len(c.above)-1].X1)
}

// Tails returns the below and above tail segments; both are empty in hard mode.
func (c *Curve) Tails() (below, above []Segment) {
	return c.below, c.above
}

// SegmentUp returns the segment to price against when inventory moves up
// from x, the one with X0 <= x < X1. tail reports a tail segment.
func (c *Curve) SegmentUp(x *big.Int) (seg Segment, tail bool, ok bool) {
	L := c.table.Liquidity()
	switch {
	case x.Sign() < 0:
		for _, s := range c.below {
			if x.Cmp(s.X0) >= 0 && x.Cmp(s.X1) < 0 {
				return s, true, true
			}
		}
		return Segment{}, false, false
	case x.Cmp(L) >= 0:
		for _, s := range c.above {
			if x.Cmp(s.X0) >= 0 && x.Cmp(s.X1) < 0 {
				return s, true, true
			}
		}
		return Segment{}, false, false
	}
	return BinSegment(c.table, curve.LocateByInventory(c.table, x)), false, true
}

// SegmentDown returns the segment to price against when inventory moves down
// from x, the one with X0 < x <= X1. Zero-width bins are skipped.
func (c *Curve) SegmentDown(x *big.Int) (seg Segment, tail bool, ok bool) {
	L := c.table.Liquidity()
	switch {
	case x.Sign() <= 0:
		for _, s := range c.below {
			if x.Cmp(s.X0) > 0 && x.Cmp(s.X1) <= 0 {
				return s, true, true
			}
		}
		return Segment{}, false, false
	case x.Cmp(L) > 0:
		for _, s := range c.above {
			if x.Cmp(s.X0) > 0 && x.Cmp(s.X1) <= 0 {
				return s, true, true
			}
		}
		return Segment{}, false, false
	}

	i := curve.LocateByInventory(c.table, x)
	bps := c.table.Breakpoints
	if bps[i].Inventory.Cmp(x) == 0 {
		i--
	}
	for i > 0 && bps[i].Inventory.Cmp(bps[i+1].Inventory) == 0 {
		i--
	}
	return BinSegment(c.table, i), false, true
}

// segmentAt prefers the upward segment so that degenerate bins resolve to
// the next bin's left edge, falling back to the downward one at the top.
func (c *Curve) segmentAt(x *big.Int) (Segment, bool) {
	if s, _, ok := c.SegmentUp(x); ok {
		return s, true
	}
	if s, _, ok := c.SegmentDown(x); ok {
		return s, true
	}
	return Segment{}, false
}

// MarginalLogPrice returns z(x); ok is false outside the reachable range.
func (c *Curve) MarginalLogPrice(x *big.Int) (z *big.Int, ok bool, err error) {
	s, found := c.segmentAt(x)
	if !found {
		return nil, false, nil
	}
	z, err = s.LogPriceAt(x)
	return z, true, err
}

// MarginalPrice returns e^z(x); ok is false outside the reachable range.
func (c *Curve) MarginalPrice(x *big.Int) (p *big.Int, ok bool, err error) {
	s, found := c.segmentAt(x)
	if !found {
		return nil, false, nil
	}
	p, err = s.PriceAt(x)
	return p, true, err
}
