// Package simulate replays a stream of swap requests against registered
// pools and records every outcome.
package simulate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lognormPool/internal/engine"
	"lognormPool/internal/fixedpoint"
	"lognormPool/internal/model"
	"lognormPool/internal/pool"
	"lognormPool/internal/storage"
)

// Config controls a replay.
type Config struct {
	BatchSize int
	// DefaultPool prices requests whose pool field is empty.
	DefaultPool common.Address
	// QuoteOnly prices requests without committing them.
	QuoteOnly bool
	// Settler is passed to every executed swap; nil settles nothing.
	Settler pool.Settler
	// Checkpoint skips requests already written by an earlier run.
	Checkpoint   *CheckpointStore
	MaxRetries   int
	RetryBackoff time.Duration
}

// SwapStore persists quote records next to the JSONL sink.
type SwapStore interface {
	InsertSwaps(ctx context.Context, records []model.QuoteRecord) error
}

// Simulator replays swap requests from a JSONL file.
type Simulator struct {
	cfg      Config
	registry *pool.Registry
	sink     storage.Storage
	store    SwapStore
	logger   *zap.Logger
	now      func() time.Time
	totals   map[common.Address]*Totals
}

// NewSimulator wires a replay. store may be nil.
func NewSimulator(cfg Config, registry *pool.Registry, sink storage.Storage, store SwapStore, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		cfg:      cfg,
		registry: registry,
		sink:     sink,
		store:    store,
		logger:   logger,
		now:      time.Now,
		totals:   make(map[common.Address]*Totals),
	}
}

// Totals returns the running totals of a pool, or nil if no request
// reached it.
func (s *Simulator) Totals(id common.Address) *Totals {
	return s.totals[id]
}

// Run replays every request in inputPath in order. Malformed lines are
// skipped with a warning; rejected requests are recorded with their error.
func (s *Simulator) Run(ctx context.Context, inputPath string) error {
	if s.registry == nil {
		return fmt.Errorf("registry is nil")
	}
	if s.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if s.cfg.BatchSize <= 0 {
		s.cfg.BatchSize = 500
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	cp, found, err := s.cfg.Checkpoint.Load()
	if err != nil {
		return err
	}
	if found {
		s.logger.Info("resume from checkpoint", zap.Uint64("last_seq", cp.LastSeq))
	}

	batch := make([]model.QuoteRecord, 0, s.cfg.BatchSize)
	var seq uint64
	var total, executed, rejected, malformed, skipped int

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			if ferr := s.flush(context.WithoutCancel(ctx), batch, max(seq, cp.LastSeq)); ferr != nil {
				return ferr
			}
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		seq++
		if seq <= cp.LastSeq {
			skipped++
			continue
		}
		total++

		var req model.SwapRequest
		if err := json.Unmarshal(line, &req); err != nil {
			malformed++
			s.logger.Warn("decode swap request", zap.Uint64("seq", seq), zap.Error(err))
			continue
		}

		id, out := s.apply(ctx, seq, req)
		if out.Err != nil {
			rejected++
			s.logger.Debug("request rejected", zap.Uint64("seq", seq), zap.String("pool", id.Hex()), zap.Error(out.Err))
		} else if out.Executed {
			executed++
		}
		batch = append(batch, NewQuoteRecord(id, out, s.now()))

		if len(batch) >= s.cfg.BatchSize {
			if err := s.flush(ctx, batch, seq); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	if err := s.flush(ctx, batch, max(seq, cp.LastSeq)); err != nil {
		return err
	}

	for _, id := range s.registry.IDs() {
		if t := s.totals[id]; t != nil {
			s.logger.Info("pool totals", t.fields()...)
		}
	}
	s.logger.Info("simulate complete",
		zap.Int("total", total),
		zap.Int("executed", executed),
		zap.Int("rejected", rejected),
		zap.Int("malformed", malformed),
		zap.Int("skipped", skipped),
	)
	return nil
}

func (s *Simulator) apply(ctx context.Context, seq uint64, req model.SwapRequest) (common.Address, Outcome) {
	id := s.cfg.DefaultPool
	out := Outcome{Seq: seq}

	if req.Pool != "" {
		if !common.IsHexAddress(req.Pool) {
			out.Err = fmt.Errorf("invalid pool address %q", req.Pool)
			return id, out
		}
		id = common.HexToAddress(req.Pool)
	}

	dir, err := engine.ParseDirection(req.Direction)
	if err != nil {
		out.Err = err
		return id, out
	}
	modeText := req.Mode
	if modeText == "" {
		modeText = engine.ExactIn.String()
	}
	mode, err := engine.ParseMode(modeText)
	if err != nil {
		out.Err = err
		return id, out
	}
	amount, err := fixedpoint.DecimalToWad(req.Amount)
	if err != nil {
		out.Err = fmt.Errorf("amount: %w", err)
		return id, out
	}
	out.Request = engine.Request{Direction: dir, Mode: mode, Amount: amount}

	p, err := s.registry.Get(id)
	if err != nil {
		out.Err = err
		return id, out
	}
	totals := s.totals[id]
	if totals == nil {
		totals = NewTotals(id)
		s.totals[id] = totals
	}

	if out.Inventory, err = p.Inventory(); err != nil {
		out.Err = err
		totals.AddFailure()
		return id, out
	}

	var res engine.Result
	if s.cfg.QuoteOnly {
		if mode == engine.ExactIn {
			res, err = p.QuoteExactIn(dir, amount)
		} else {
			res, err = p.QuoteExactOut(dir, amount)
		}
	} else {
		res, err = p.Swap(ctx, out.Request, s.cfg.Settler)
	}
	if err != nil {
		out.Err = err
		totals.AddFailure()
		return id, out
	}
	out.Result = res
	out.Executed = !s.cfg.QuoteOnly

	if e, err := p.Engine(); err == nil {
		if out.PriceAfter, err = e.CurrentPrice(res.InventoryAfter); err != nil {
			s.logger.Warn("price after swap", zap.Uint64("seq", seq), zap.Error(err))
		}
	}
	if out.Executed {
		totals.AddSwap(dir, res)
	}
	return id, out
}

func (s *Simulator) flush(ctx context.Context, batch []model.QuoteRecord, lastSeq uint64) error {
	if len(batch) > 0 {
		if err := s.sink.PutQuoteBatch(batch); err != nil {
			return fmt.Errorf("write quotes: %w", err)
		}
		if s.store != nil {
			err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
				return s.store.InsertSwaps(ctx, batch)
			})
			if err != nil {
				return fmt.Errorf("insert swaps: %w", err)
			}
		}
	}
	if err := s.cfg.Checkpoint.Save(lastSeq); err != nil {
		return err
	}
	return nil
}
