package pool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lognormPool/internal/curve"
	"lognormPool/internal/engine"
)

var (
	ErrPoolExists   = errors.New("pool already exists")
	ErrPoolNotFound = errors.New("pool not found")
	ErrUnauthorized = errors.New("caller not authorized to configure pool")
)

// Authorizer decides who may create or reconfigure a pool.
type Authorizer interface {
	CanConfigure(caller, pool common.Address) bool
}

// AllowAll authorizes every caller.
type AllowAll struct{}

func (AllowAll) CanConfigure(caller, pool common.Address) bool { return true }

// OwnerAuthorizer authorizes a fixed set of admin addresses.
type OwnerAuthorizer struct {
	Owners map[common.Address]bool
}

func NewOwnerAuthorizer(owners ...common.Address) *OwnerAuthorizer {
	set := make(map[common.Address]bool, len(owners))
	for _, o := range owners {
		set[o] = true
	}
	return &OwnerAuthorizer{Owners: set}
}

func (a *OwnerAuthorizer) CanConfigure(caller, pool common.Address) bool {
	return a.Owners[caller]
}

// RegistryConfig wires the registry's collaborators.
type RegistryConfig struct {
	Authorizer Authorizer
	// StateStore returns the store for a new pool; nil keeps state in memory.
	StateStore func(id common.Address) StateStore
	Engine     engine.Config
}

// Registry maps pool addresses to independent pools.
type Registry struct {
	cfg    RegistryConfig
	logger *zap.Logger

	mu    sync.RWMutex
	pools map[common.Address]*Pool
}

func NewRegistry(cfg RegistryConfig, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Authorizer == nil {
		cfg.Authorizer = AllowAll{}
	}
	return &Registry{
		cfg:    cfg,
		logger: logger,
		pools:  make(map[common.Address]*Pool),
	}
}

// Create registers and configures a new pool.
func (r *Registry) Create(ctx context.Context, caller, id common.Address, params curve.Params) (*Pool, error) {
	if !r.cfg.Authorizer.CanConfigure(caller, id) {
		return nil, fmt.Errorf("create %s: %w", id.Hex(), ErrUnauthorized)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pools[id]; ok {
		return nil, fmt.Errorf("create %s: %w", id.Hex(), ErrPoolExists)
	}

	var store StateStore
	if r.cfg.StateStore != nil {
		store = r.cfg.StateStore(id)
	}
	p := New(id, r.cfg.Engine, store, r.logger)
	if err := p.Configure(ctx, params); err != nil {
		return nil, fmt.Errorf("configure %s: %w", id.Hex(), err)
	}
	r.pools[id] = p
	r.logger.Info("pool created", zap.String("pool", id.Hex()), zap.String("caller", caller.Hex()))
	return p, nil
}

// Get returns the pool registered under id.
func (r *Registry) Get(id common.Address) (*Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id.Hex(), ErrPoolNotFound)
	}
	return p, nil
}

// Configure replaces an existing pool's curve.
func (r *Registry) Configure(ctx context.Context, caller, id common.Address, params curve.Params) error {
	if !r.cfg.Authorizer.CanConfigure(caller, id) {
		return fmt.Errorf("configure %s: %w", id.Hex(), ErrUnauthorized)
	}
	p, err := r.Get(id)
	if err != nil {
		return err
	}
	return p.Configure(ctx, params)
}

// Swap executes req against the pool registered under id.
func (r *Registry) Swap(ctx context.Context, id common.Address, req engine.Request, settler Settler) (engine.Result, error) {
	p, err := r.Get(id)
	if err != nil {
		return engine.Result{}, err
	}
	return p.Swap(ctx, req, settler)
}

// IDs returns the registered pool addresses in ascending order.
func (r *Registry) IDs() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]common.Address, 0, len(r.pools))
	for id := range r.pools {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}
