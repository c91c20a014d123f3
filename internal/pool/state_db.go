package pool

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lognormPool/internal/storage/postgres"
)

// DBStateStore stores inventory in the pool_state table.
type DBStateStore struct {
	Store *postgres.Store
	Pool  common.Address
}

func (s *DBStateStore) Load(ctx context.Context) (*big.Int, bool, error) {
	if s == nil || s.Store == nil {
		return nil, false, nil
	}
	return s.Store.LoadInventory(ctx, s.Pool)
}

func (s *DBStateStore) Save(ctx context.Context, inventory *big.Int) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveInventory(ctx, s.Pool, inventory)
}
