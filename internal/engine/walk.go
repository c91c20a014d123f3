package engine

import (
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"lognormPool/internal/fixedpoint"
	"lognormPool/internal/pricing"
)

// walk carries one quote's position across segments. x is updated in place
// and becomes the result's InventoryAfter.
type walk struct {
	e       *Engine
	snap    *snapshot
	state   State
	x       *big.Int
	steps   int
	limit   int
	crossed int
	tail    bool
}

func (e *Engine) newWalk(s *snapshot, x *big.Int) *walk {
	return &walk{
		e:     e,
		snap:  s,
		state: Idle,
		x:     new(big.Int).Set(x),
		// every bin plus ramp and flat on both sides
		limit: s.table.NumBins() + 4,
	}
}

func (w *walk) moveTo(next State) {
	if w.state == next {
		return
	}
	if w.e.cfg.Tracer != nil {
		w.e.cfg.Tracer.Transition(w.state, next, w.x)
	}
	if ce := w.e.logger.Check(zap.DebugLevel, "swap state"); ce != nil {
		ce.Write(
			zap.Stringer("from", w.state),
			zap.Stringer("to", next),
			zap.String("inventory", fixedpoint.FormatWad(w.x)),
		)
	}
	w.state = next
}

func (w *walk) done() {
	w.moveTo(Completed)
}

func (w *walk) fail(err error) {
	w.moveTo(Reverted)
	w.e.logger.Debug("swap reverted", zap.Error(err), zap.String("inventory", fixedpoint.FormatWad(w.x)))
}

// next locates the segment in the direction of travel and advances the
// state machine. It fails with ErrOutOfRange when there is nothing left to
// trade against.
func (w *walk) next(up bool) (pricing.Segment, error) {
	w.moveTo(LocatingBin)

	var (
		seg  pricing.Segment
		tail bool
		ok   bool
	)
	if up {
		seg, tail, ok = w.snap.curve.SegmentUp(w.x)
	} else {
		seg, tail, ok = w.snap.curve.SegmentDown(w.x)
	}
	if !ok {
		return pricing.Segment{}, fmt.Errorf("no liquidity beyond inventory %s: %w", fixedpoint.FormatWad(w.x), ErrOutOfRange)
	}
	if w.steps >= w.limit {
		return pricing.Segment{}, fmt.Errorf("segment walk exceeded %d steps: %w", w.limit, pricing.ErrDegenerateBin)
	}
	w.steps++
	if tail {
		w.tail = true
		w.moveTo(TailHandling)
	}
	w.moveTo(PricingSegment)
	return seg, nil
}

func (w *walk) cross(to *big.Int) {
	w.moveTo(AdvancingBin)
	w.x.Set(to)
	w.crossed++
}

// spendQuoteUp spends q quote buying base and returns the base received.
// Whole segments are paid at their rounded-up cost; the last partial segment
// is inverted in closed form.
func (w *walk) spendQuoteUp(q *big.Int) (*big.Int, error) {
	start := new(big.Int).Set(w.x)
	remaining := new(big.Int).Set(q)
	for remaining.Sign() > 0 {
		seg, err := w.next(true)
		if err != nil {
			return nil, err
		}
		cost, err := seg.QuoteBetween(w.x, seg.X1, fixedpoint.RoundUp)
		if err != nil {
			return nil, err
		}
		if remaining.Cmp(cost) >= 0 {
			remaining.Sub(remaining, cost)
			w.cross(seg.X1)
			continue
		}
		b, err := seg.AdvanceUp(w.x, remaining)
		if err != nil {
			return nil, err
		}
		w.x.Set(b)
		remaining.SetInt64(0)
	}
	return new(big.Int).Sub(w.x, start), nil
}

// buyBaseUp returns the quote cost, rounded up, of taking dx base.
func (w *walk) buyBaseUp(dx *big.Int) (*big.Int, error) {
	cost := new(big.Int)
	remaining := new(big.Int).Set(dx)
	for remaining.Sign() > 0 {
		seg, err := w.next(true)
		if err != nil {
			return nil, err
		}
		room := new(big.Int).Sub(seg.X1, w.x)
		step := remaining
		if room.Cmp(remaining) <= 0 {
			step = room
		}
		to := new(big.Int).Add(w.x, step)
		c, err := seg.QuoteBetween(w.x, to, fixedpoint.RoundUp)
		if err != nil {
			return nil, err
		}
		cost.Add(cost, c)
		remaining = new(big.Int).Sub(remaining, step)
		if to.Cmp(seg.X1) == 0 {
			w.cross(to)
		} else {
			w.x.Set(to)
		}
	}
	if err := fixedpoint.CheckInt256(cost); err != nil {
		return nil, err
	}
	return cost, nil
}

// sellBaseDown returns the quote paid out, rounded down, for dx base in.
func (w *walk) sellBaseDown(dx *big.Int) (*big.Int, error) {
	out := new(big.Int)
	remaining := new(big.Int).Set(dx)
	for remaining.Sign() > 0 {
		seg, err := w.next(false)
		if err != nil {
			return nil, err
		}
		room := new(big.Int).Sub(w.x, seg.X0)
		step := remaining
		if room.Cmp(remaining) <= 0 {
			step = room
		}
		to := new(big.Int).Sub(w.x, step)
		q, err := seg.QuoteBetween(to, w.x, fixedpoint.RoundDown)
		if err != nil {
			return nil, err
		}
		out.Add(out, q)
		remaining = new(big.Int).Sub(remaining, step)
		if to.Cmp(seg.X0) == 0 {
			w.cross(to)
		} else {
			w.x.Set(to)
		}
	}
	return out, nil
}

// receiveQuoteDown returns the base, rounded up, needed to take q quote out.
func (w *walk) receiveQuoteDown(q *big.Int) (*big.Int, error) {
	start := new(big.Int).Set(w.x)
	remaining := new(big.Int).Set(q)
	for remaining.Sign() > 0 {
		seg, err := w.next(false)
		if err != nil {
			return nil, err
		}
		avail, err := seg.QuoteBetween(seg.X0, w.x, fixedpoint.RoundDown)
		if err != nil {
			return nil, err
		}
		if remaining.Cmp(avail) > 0 {
			remaining.Sub(remaining, avail)
			w.cross(seg.X0)
			continue
		}
		a, err := seg.RetreatDown(w.x, remaining)
		if err != nil {
			return nil, err
		}
		w.x.Set(a)
		remaining.SetInt64(0)
	}
	return new(big.Int).Sub(start, w.x), nil
}
