// Package engine quotes swaps by walking inventory across the priced
// segments of a configured curve.
package engine

import (
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lognormPool/internal/curve"
	"lognormPool/internal/fixedpoint"
	"lognormPool/internal/pricing"
)

// Config controls optional engine behaviour.
type Config struct {
	Tracer Tracer
}

// Engine prices swaps. It holds no inventory; callers pass it on every call.
// Quotes are safe for concurrent use and Configure swaps the curve
// atomically.
type Engine struct {
	cfg    Config
	logger *zap.Logger
	snap   atomic.Pointer[snapshot]
}

// snapshot is one immutable configuration.
type snapshot struct {
	params      curve.Params
	table       *curve.Table
	curve       *pricing.Curve
	fingerprint common.Hash
	feeDenom    *big.Int
}

func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Configure validates p, builds its table and replaces the active curve.
// On error the previous configuration stays in effect.
func (e *Engine) Configure(p curve.Params) error {
	p = p.Clone()
	table, err := curve.Build(p)
	if err != nil {
		return err
	}
	c, err := pricing.NewCurve(table, p.Tail)
	if err != nil {
		return fmt.Errorf("tail policy: %w", err)
	}

	next := &snapshot{
		params:      p,
		table:       table,
		curve:       c,
		fingerprint: table.Fingerprint(),
		feeDenom:    new(big.Int).Sub(fixedpoint.Wad, p.SwapFee),
	}
	prev := e.snap.Swap(next)
	if prev != nil && prev.fingerprint == next.fingerprint {
		e.logger.Debug("curve reconfigured with identical table", zap.String("fingerprint", next.fingerprint.Hex()))
		return nil
	}
	e.logger.Info("curve configured",
		zap.String("fingerprint", next.fingerprint.Hex()),
		zap.Int("bins", table.NumBins()),
		zap.String("liquidity", fixedpoint.FormatWad(table.Liquidity())),
		zap.String("swap_fee", fixedpoint.FormatWad(p.SwapFee)),
		zap.Stringer("tail", p.Tail.Mode),
	)
	return nil
}

func (e *Engine) current() (*snapshot, error) {
	s := e.snap.Load()
	if s == nil {
		return nil, ErrNotConfigured
	}
	return s, nil
}

// Configured reports whether Configure has succeeded at least once.
func (e *Engine) Configured() bool {
	return e.snap.Load() != nil
}

// Params returns a copy of the active parameters.
func (e *Engine) Params() (curve.Params, error) {
	s, err := e.current()
	if err != nil {
		return curve.Params{}, err
	}
	return s.params.Clone(), nil
}

// Table returns the active breakpoint table.
func (e *Engine) Table() (*curve.Table, error) {
	s, err := e.current()
	if err != nil {
		return nil, err
	}
	return s.table, nil
}

// Curve returns the active segment layout.
func (e *Engine) Curve() (*pricing.Curve, error) {
	s, err := e.current()
	if err != nil {
		return nil, err
	}
	return s.curve, nil
}

// Fingerprint returns the active table's fingerprint.
func (e *Engine) Fingerprint() (common.Hash, error) {
	s, err := e.current()
	if err != nil {
		return common.Hash{}, err
	}
	return s.fingerprint, nil
}

// CurrentPrice returns the marginal price at inventory x.
func (e *Engine) CurrentPrice(x *big.Int) (*big.Int, error) {
	s, err := e.current()
	if err != nil {
		return nil, err
	}
	p, ok, err := s.curve.MarginalPrice(x)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("inventory %s: %w", fixedpoint.FormatWad(x), ErrOutOfRange)
	}
	return p, nil
}

// Quote dispatches on req.Mode.
func (e *Engine) Quote(x *big.Int, req Request) (Result, error) {
	switch req.Mode {
	case ExactIn:
		return e.QuoteExactIn(x, req.Direction, req.Amount)
	case ExactOut:
		return e.QuoteExactOut(x, req.Direction, req.Amount)
	default:
		return Result{}, fmt.Errorf("unknown mode %s", req.Mode)
	}
}

// QuoteExactIn prices paying amountIn (fee included) at inventory x. The fee
// is ceil(amountIn * fee) and only the remainder moves along the curve.
func (e *Engine) QuoteExactIn(x *big.Int, dir Direction, amountIn *big.Int) (Result, error) {
	s, err := e.current()
	if err != nil {
		return Result{}, err
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return Result{}, ErrInvalidAmount
	}
	fee, err := fixedpoint.MulWad(amountIn, s.params.SwapFee, fixedpoint.RoundUp)
	if err != nil {
		return Result{}, fmt.Errorf("swap fee: %w", err)
	}
	net := new(big.Int).Sub(amountIn, fee)

	w := e.newWalk(s, x)
	var out *big.Int
	switch dir {
	case QuoteToBase:
		out, err = w.spendQuoteUp(net)
	case BaseToQuote:
		out, err = w.sellBaseDown(net)
	default:
		err = fmt.Errorf("unknown direction %s", dir)
	}
	if err != nil {
		w.fail(err)
		return Result{}, err
	}
	w.done()

	return Result{
		AmountIn:        new(big.Int).Set(amountIn),
		AmountOut:       out,
		Fee:             fee,
		InventoryBefore: new(big.Int).Set(x),
		InventoryAfter:  w.x,
		BinsCrossed:     w.crossed,
		TailUsed:        w.tail,
	}, nil
}

// QuoteExactOut prices receiving amountOut at inventory x. The curve cost is
// grossed up to ceil(net / (1 - fee)).
func (e *Engine) QuoteExactOut(x *big.Int, dir Direction, amountOut *big.Int) (Result, error) {
	s, err := e.current()
	if err != nil {
		return Result{}, err
	}
	if amountOut == nil || amountOut.Sign() <= 0 {
		return Result{}, ErrInvalidAmount
	}

	w := e.newWalk(s, x)
	var net *big.Int
	switch dir {
	case QuoteToBase:
		net, err = w.buyBaseUp(amountOut)
	case BaseToQuote:
		net, err = w.receiveQuoteDown(amountOut)
	default:
		err = fmt.Errorf("unknown direction %s", dir)
	}
	if err != nil {
		w.fail(err)
		return Result{}, err
	}
	w.done()

	gross, err := fixedpoint.MulDiv(net, fixedpoint.Wad, s.feeDenom, fixedpoint.RoundUp)
	if err != nil {
		return Result{}, fmt.Errorf("swap fee: %w", err)
	}

	return Result{
		AmountIn:        gross,
		AmountOut:       new(big.Int).Set(amountOut),
		Fee:             new(big.Int).Sub(gross, net),
		InventoryBefore: new(big.Int).Set(x),
		InventoryAfter:  w.x,
		BinsCrossed:     w.crossed,
		TailUsed:        w.tail,
	}, nil
}
