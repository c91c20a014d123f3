// Package pool hosts engines for individual pools: it owns each pool's
// inventory, serialises swaps and persists state after settlement.
package pool

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lognormPool/internal/curve"
	"lognormPool/internal/engine"
	"lognormPool/internal/fixedpoint"
)

// ErrInventoryOutOfRange reports a reconfiguration whose curve cannot price
// the pool's current inventory.
var ErrInventoryOutOfRange = errors.New("inventory outside configured curve")

// Settler moves tokens for a priced swap. Swap commits the new inventory
// only if Settle returns nil.
type Settler interface {
	Settle(ctx context.Context, pool common.Address, req engine.Request, res engine.Result) error
}

// SettlerFunc adapts a function to Settler.
type SettlerFunc func(ctx context.Context, pool common.Address, req engine.Request, res engine.Result) error

func (f SettlerFunc) Settle(ctx context.Context, pool common.Address, req engine.Request, res engine.Result) error {
	return f(ctx, pool, req, res)
}

// Pool is one configured curve plus its inventory. Quotes share a read lock;
// swaps and reconfiguration hold the write lock for their whole duration.
type Pool struct {
	id        common.Address
	engineCfg engine.Config
	store     StateStore
	logger    *zap.Logger

	mu        sync.RWMutex
	engine    *engine.Engine
	inventory *big.Int
}

// New returns an unconfigured pool. A nil store keeps state in memory.
func New(id common.Address, engineCfg engine.Config, store StateStore, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = &MemoryStateStore{}
	}
	return &Pool{
		id:        id,
		engineCfg: engineCfg,
		store:     store,
		logger:    logger.With(zap.String("pool", id.Hex())),
	}
}

// ID returns the pool address.
func (p *Pool) ID() common.Address {
	return p.id
}

// Configure installs a new curve. The first call restores inventory from
// the state store, or seeds it at the inventory of log-price mu. Later calls
// keep the inventory and fail if the new curve cannot price it.
func (p *Pool) Configure(ctx context.Context, params curve.Params) error {
	next := engine.NewEngine(p.engineCfg, p.logger)
	if err := next.Configure(params); err != nil {
		return err
	}
	c, err := next.Curve()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	inventory := p.inventory
	if inventory == nil {
		stored, found, err := p.store.Load(ctx)
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		if found {
			inventory = stored
			p.logger.Info("resume from state", zap.String("inventory", fixedpoint.FormatWad(inventory)))
		} else {
			inventory = c.Table().InventoryAtLogPrice(params.Mu)
			if err := p.store.Save(ctx, inventory); err != nil {
				return fmt.Errorf("save inventory: %w", err)
			}
			p.logger.Info("seed inventory at mean price", zap.String("inventory", fixedpoint.FormatWad(inventory)))
		}
	}
	if inventory.Cmp(c.MinInventory()) < 0 || inventory.Cmp(c.MaxInventory()) > 0 {
		return fmt.Errorf("inventory %s not in [%s, %s]: %w",
			fixedpoint.FormatWad(inventory),
			fixedpoint.FormatWad(c.MinInventory()),
			fixedpoint.FormatWad(c.MaxInventory()),
			ErrInventoryOutOfRange)
	}

	p.engine = next
	p.inventory = inventory
	return nil
}

func (p *Pool) ready() (*engine.Engine, *big.Int, error) {
	if p.engine == nil {
		return nil, nil, engine.ErrNotConfigured
	}
	return p.engine, p.inventory, nil
}

// Inventory returns a copy of the current inventory.
func (p *Pool) Inventory() (*big.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, inv, err := p.ready()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(inv), nil
}

// Engine returns the active engine.
func (p *Pool) Engine() (*engine.Engine, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, _, err := p.ready()
	return e, err
}

func (p *Pool) QuoteExactIn(dir engine.Direction, amountIn *big.Int) (engine.Result, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, inv, err := p.ready()
	if err != nil {
		return engine.Result{}, err
	}
	return e.QuoteExactIn(inv, dir, amountIn)
}

func (p *Pool) QuoteExactOut(dir engine.Direction, amountOut *big.Int) (engine.Result, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, inv, err := p.ready()
	if err != nil {
		return engine.Result{}, err
	}
	return e.QuoteExactOut(inv, dir, amountOut)
}

// CurrentPrice returns the marginal price at the current inventory.
func (p *Pool) CurrentPrice() (*big.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, inv, err := p.ready()
	if err != nil {
		return nil, err
	}
	return e.CurrentPrice(inv)
}

// Swap quotes req, settles it and commits the new inventory as one unit.
// Any failure leaves the inventory untouched.
func (p *Pool) Swap(ctx context.Context, req engine.Request, settler Settler) (engine.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, inv, err := p.ready()
	if err != nil {
		return engine.Result{}, err
	}
	res, err := e.Quote(inv, req)
	if err != nil {
		return engine.Result{}, err
	}
	if settler != nil {
		if err := settler.Settle(ctx, p.id, req, res); err != nil {
			return engine.Result{}, fmt.Errorf("settle: %w", err)
		}
	}
	if err := p.store.Save(ctx, res.InventoryAfter); err != nil {
		return engine.Result{}, fmt.Errorf("save inventory: %w", err)
	}
	p.inventory = new(big.Int).Set(res.InventoryAfter)

	p.logger.Debug("swap committed",
		zap.Stringer("direction", req.Direction),
		zap.Stringer("mode", req.Mode),
		zap.String("amount_in", fixedpoint.FormatWad(res.AmountIn)),
		zap.String("amount_out", fixedpoint.FormatWad(res.AmountOut)),
		zap.String("inventory", fixedpoint.FormatWad(p.inventory)),
	)
	return res, nil
}
