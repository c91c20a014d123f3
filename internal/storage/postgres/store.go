package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lognormPool/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pools (
	pool_address TEXT PRIMARY KEY,
	mu NUMERIC NOT NULL,
	sigma NUMERIC NOT NULL,
	price_min NUMERIC NOT NULL,
	price_max NUMERIC NOT NULL,
	num_bins INTEGER NOT NULL,
	liquidity NUMERIC NOT NULL,
	swap_fee NUMERIC NOT NULL,
	tail_mode TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS pool_state (
	pool_address TEXT PRIMARY KEY,
	inventory NUMERIC NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS swaps (
	pool_address TEXT NOT NULL,
	seq BIGINT NOT NULL,
	direction TEXT NOT NULL,
	mode TEXT NOT NULL,
	requested NUMERIC NOT NULL,
	amount_in NUMERIC NOT NULL,
	amount_out NUMERIC NOT NULL,
	fee NUMERIC NOT NULL,
	inventory_before NUMERIC NOT NULL,
	inventory_after NUMERIC NOT NULL,
	price_after NUMERIC NOT NULL,
	bins_crossed INTEGER NOT NULL,
	tail_used BOOLEAN NOT NULL,
	executed BOOLEAN NOT NULL,
	error TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pool_address, seq)
);
`

// Store provides Postgres persistence for pools, their inventory and swaps.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates pool configuration.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_address, mu, sigma, price_min, price_max, num_bins, liquidity, swap_fee,
				tail_mode, fingerprint, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				mu = EXCLUDED.mu,
				sigma = EXCLUDED.sigma,
				price_min = EXCLUDED.price_min,
				price_max = EXCLUDED.price_max,
				num_bins = EXCLUDED.num_bins,
				liquidity = EXCLUDED.liquidity,
				swap_fee = EXCLUDED.swap_fee,
				tail_mode = EXCLUDED.tail_mode,
				fingerprint = EXCLUDED.fingerprint,
				updated_at = now()
		`,
			pool.Address,
			pool.Mu.String(),
			pool.Sigma.String(),
			pool.PriceMin.String(),
			pool.PriceMax.String(),
			pool.NumBins,
			pool.Liquidity.String(),
			pool.SwapFee.String(),
			pool.TailMode,
			pool.Fingerprint,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertSwaps appends quote records. Records already stored under the same
// pool and sequence number are left unchanged.
func (s *Store) InsertSwaps(ctx context.Context, records []model.QuoteRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		var errText *string
		if r.Error != "" {
			e := r.Error
			errText = &e
		}
		batch.Queue(`
			INSERT INTO swaps (
				pool_address, seq, direction, mode, requested, amount_in, amount_out, fee,
				inventory_before, inventory_after, price_after, bins_crossed, tail_used,
				executed, error, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now())
			ON CONFLICT (pool_address, seq) DO NOTHING
		`,
			r.Pool,
			int64(r.Seq),
			r.Direction,
			r.Mode,
			r.Requested.String(),
			r.AmountIn.String(),
			r.AmountOut.String(),
			r.Fee.String(),
			r.InventoryBefore.String(),
			r.InventoryAfter.String(),
			r.PriceAfter.String(),
			r.BinsCrossed,
			r.TailUsed,
			r.Executed,
			errText,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadInventory returns the stored inventory wad of a pool.
func (s *Store) LoadInventory(ctx context.Context, pool common.Address) (*big.Int, bool, error) {
	var text string
	row := s.pool.QueryRow(ctx, `SELECT inventory::text FROM pool_state WHERE pool_address=$1`, pool.Hex())
	if err := row.Scan(&text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	inv, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, false, fmt.Errorf("parse inventory %q", text)
	}
	return inv, true, nil
}

// SaveInventory upserts the inventory wad of a pool.
func (s *Store) SaveInventory(ctx context.Context, pool common.Address, inventory *big.Int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pool_state (pool_address, inventory, updated_at)
		VALUES ($1, $2::numeric, now())
		ON CONFLICT (pool_address) DO UPDATE
		SET inventory = EXCLUDED.inventory, updated_at = now()
	`, pool.Hex(), inventory.String())
	return err
}
