package simulate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lognormPool/internal/curve"
	"lognormPool/internal/engine"
	"lognormPool/internal/fixedpoint"
	"lognormPool/internal/model"
	"lognormPool/internal/pool"
)

var (
	poolA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	poolB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

type memorySink struct {
	batches [][]model.QuoteRecord
}

func (m *memorySink) PutQuoteBatch(records []model.QuoteRecord) error {
	m.batches = append(m.batches, append([]model.QuoteRecord(nil), records...))
	return nil
}

func (m *memorySink) all() []model.QuoteRecord {
	var out []model.QuoteRecord
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

type memoryStore struct {
	records []model.QuoteRecord
	// failures is the number of calls to reject before accepting.
	failures int
	calls    int
}

func (m *memoryStore) InsertSwaps(ctx context.Context, records []model.QuoteRecord) error {
	m.calls++
	if m.calls <= m.failures {
		return errors.New("connection reset")
	}
	m.records = append(m.records, records...)
	return nil
}

func scenarioParams() curve.Params {
	return curve.Params{
		Mu:        fixedpoint.MustParseWad("4.86753445"),
		Sigma:     fixedpoint.MustParseWad("0.1"),
		PriceMin:  fixedpoint.NewWad(80),
		PriceMax:  fixedpoint.NewWad(200),
		NumBins:   4,
		Liquidity: fixedpoint.NewWad(1_000_000),
		SwapFee:   fixedpoint.MustParseWad("0.003"),
	}
}

func newRegistry(t *testing.T) *pool.Registry {
	t.Helper()
	reg := pool.NewRegistry(pool.RegistryConfig{}, zap.NewNop())
	if _, err := reg.Create(context.Background(), common.Address{}, poolA, scenarioParams()); err != nil {
		t.Fatalf("create pool: %v", err)
	}
	return reg
}

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swaps.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

var replayLines = []string{
	`{"direction":"buy","amount":"1"}`,
	`{bad json`,
	`{"pool":"` + poolB.Hex() + `","direction":"buy","amount":"1"}`,
	`{"direction":"sideways","amount":"1"}`,
	``,
	`{"direction":"quote_to_base","mode":"exact_in","amount":"500000000"}`,
	`{"direction":"sell","mode":"exact_out","amount":"10"}`,
}

func TestRunRecordsEveryRequest(t *testing.T) {
	reg := newRegistry(t)
	sink := &memorySink{}
	store := &memoryStore{}
	sim := NewSimulator(Config{BatchSize: 2, DefaultPool: poolA}, reg, sink, store, zap.NewNop())
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sim.now = func() time.Time { return fixed }

	p, _ := reg.Get(poolA)
	start, _ := p.Inventory()

	if err := sim.Run(context.Background(), writeInput(t, replayLines...)); err != nil {
		t.Fatalf("run: %v", err)
	}

	recs := sink.all()
	if len(recs) != 5 {
		t.Fatalf("expected 5 records, got %d", len(recs))
	}
	if len(sink.batches) != 3 {
		t.Fatalf("expected 3 batches of at most 2, got %d", len(sink.batches))
	}
	if len(store.records) != len(recs) {
		t.Fatalf("store should receive every record, got %d", len(store.records))
	}

	wantSeq := []uint64{1, 3, 4, 5, 6}
	for i, rec := range recs {
		if rec.Seq != wantSeq[i] {
			t.Fatalf("record %d: seq %d want %d", i, rec.Seq, wantSeq[i])
		}
		if rec.CreatedAt != "2024-05-01T12:00:00Z" {
			t.Fatalf("record %d: created_at %s", i, rec.CreatedAt)
		}
	}

	buy := recs[0]
	if !buy.Executed || buy.Error != "" || buy.Direction != "quote_to_base" || buy.Mode != "exact_in" {
		t.Fatalf("unexpected buy record: %+v", buy)
	}
	if !buy.InventoryBefore.Equal(fixedpoint.WadToDecimal(start)) || !buy.InventoryAfter.GreaterThan(buy.InventoryBefore) {
		t.Fatalf("buy should raise inventory: %+v", buy)
	}
	if !buy.Fee.Equal(fixedpoint.WadToDecimal(fixedpoint.MustParseWad("0.003"))) {
		t.Fatalf("buy fee: %s", buy.Fee)
	}
	if !buy.PriceAfter.IsPositive() {
		t.Fatalf("buy should carry the price after")
	}

	if recs[1].Error == "" || recs[1].Executed || recs[1].Retriable {
		t.Fatalf("unknown pool should be rejected: %+v", recs[1])
	}
	if recs[2].Error == "" || recs[2].Executed {
		t.Fatalf("bad direction should be rejected: %+v", recs[2])
	}

	huge := recs[3]
	if huge.Executed || !huge.Retriable || !huge.AmountOut.IsZero() {
		t.Fatalf("oversized buy should be a retriable rejection: %+v", huge)
	}
	if !huge.InventoryAfter.Equal(huge.InventoryBefore) || !huge.InventoryBefore.Equal(buy.InventoryAfter) {
		t.Fatalf("rejected swap must leave inventory: %+v", huge)
	}

	sell := recs[4]
	if !sell.Executed || !sell.AmountOut.Equal(fixedpoint.WadToDecimal(fixedpoint.NewWad(10))) {
		t.Fatalf("unexpected sell record: %+v", sell)
	}
	if !sell.InventoryAfter.LessThan(sell.InventoryBefore) {
		t.Fatalf("sell should lower inventory: %+v", sell)
	}

	final, _ := p.Inventory()
	if !fixedpoint.WadToDecimal(final).Equal(sell.InventoryAfter) {
		t.Fatalf("pool inventory %s does not match last record %s", final, sell.InventoryAfter)
	}

	totals := sim.Totals(poolA)
	if totals == nil {
		t.Fatalf("expected totals for pool A")
	}
	if totals.Swaps != 2 || totals.Failed != 1 {
		t.Fatalf("unexpected totals: swaps=%d failed=%d", totals.Swaps, totals.Failed)
	}
	if totals.QuoteIn.Cmp(fixedpoint.Wad) != 0 {
		t.Fatalf("quote in: %s", totals.QuoteIn)
	}
	if sim.Totals(poolB) != nil {
		t.Fatalf("unknown pool should have no totals")
	}
}

func TestRunQuoteOnlyLeavesInventory(t *testing.T) {
	reg := newRegistry(t)
	sink := &memorySink{}
	sim := NewSimulator(Config{DefaultPool: poolA, QuoteOnly: true}, reg, sink, nil, zap.NewNop())

	p, _ := reg.Get(poolA)
	start, _ := p.Inventory()

	input := writeInput(t,
		`{"direction":"buy","amount":"1000"}`,
		`{"direction":"buy","amount":"1000"}`,
	)
	if err := sim.Run(context.Background(), input); err != nil {
		t.Fatalf("run: %v", err)
	}

	recs := sink.all()
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Executed || !recs[0].AmountOut.Equal(recs[1].AmountOut) {
		t.Fatalf("quotes should not commit: %+v", recs)
	}
	end, _ := p.Inventory()
	if end.Cmp(start) != 0 {
		t.Fatalf("inventory moved: %s -> %s", start, end)
	}
	if sim.Totals(poolA).Swaps != 0 {
		t.Fatalf("quotes should not count as swaps")
	}
}

func TestRunSettlerFailure(t *testing.T) {
	reg := newRegistry(t)
	sink := &memorySink{}
	var settled int
	settler := pool.SettlerFunc(func(ctx context.Context, id common.Address, req engine.Request, res engine.Result) error {
		settled++
		if settled == 2 {
			return context.DeadlineExceeded
		}
		return nil
	})
	sim := NewSimulator(Config{DefaultPool: poolA, Settler: settler}, reg, sink, nil, zap.NewNop())

	input := writeInput(t,
		`{"direction":"buy","amount":"5"}`,
		`{"direction":"buy","amount":"5"}`,
	)
	if err := sim.Run(context.Background(), input); err != nil {
		t.Fatalf("run: %v", err)
	}
	recs := sink.all()
	if !recs[0].Executed || recs[1].Executed || recs[1].Error == "" {
		t.Fatalf("second swap should fail at settlement: %+v", recs)
	}
	if !recs[1].InventoryAfter.Equal(recs[0].InventoryAfter) {
		t.Fatalf("failed settlement must not move inventory")
	}
}

func TestRunCanceled(t *testing.T) {
	reg := newRegistry(t)
	sim := NewSimulator(Config{DefaultPool: poolA}, reg, &memorySink{}, nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sim.Run(ctx, writeInput(t, `{"direction":"buy","amount":"1"}`))
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunMissingInput(t *testing.T) {
	sim := NewSimulator(Config{DefaultPool: poolA}, newRegistry(t), &memorySink{}, nil, zap.NewNop())
	if err := sim.Run(context.Background(), filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Fatalf("expected error for missing input")
	}
}

func TestRunResumesFromCheckpoint(t *testing.T) {
	input := writeInput(t,
		`{"direction":"buy","amount":"1"}`,
		`{"direction":"buy","amount":"2"}`,
		`{"direction":"sell","amount":"0.01"}`,
	)
	cpPath := filepath.Join(t.TempDir(), "state", "checkpoint.json")
	if err := NewCheckpointStore(cpPath).Save(2); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}

	sink := &memorySink{}
	sim := NewSimulator(Config{DefaultPool: poolA, Checkpoint: NewCheckpointStore(cpPath)}, newRegistry(t), sink, nil, zap.NewNop())
	if err := sim.Run(context.Background(), input); err != nil {
		t.Fatalf("run: %v", err)
	}

	recs := sink.all()
	if len(recs) != 1 || recs[0].Seq != 3 || recs[0].Direction != "base_to_quote" {
		t.Fatalf("only the request after the checkpoint should run: %+v", recs)
	}
	cp, found, err := NewCheckpointStore(cpPath).Load()
	if err != nil || !found {
		t.Fatalf("load checkpoint: %v found=%v", err, found)
	}
	if cp.LastSeq != 3 {
		t.Fatalf("checkpoint should advance to 3, got %d", cp.LastSeq)
	}
}

func TestCheckpointDisabled(t *testing.T) {
	var c *CheckpointStore
	if err := c.Save(5); err != nil {
		t.Fatalf("nil store save: %v", err)
	}
	if _, found, err := NewCheckpointStore("").Load(); found || err != nil {
		t.Fatalf("empty path should be disabled: found=%v err=%v", found, err)
	}
}

func TestRunRetriesStore(t *testing.T) {
	store := &memoryStore{failures: 2}
	sim := NewSimulator(Config{DefaultPool: poolA, MaxRetries: 2, RetryBackoff: time.Millisecond}, newRegistry(t), &memorySink{}, store, zap.NewNop())
	if err := sim.Run(context.Background(), writeInput(t, `{"direction":"buy","amount":"1"}`)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if store.calls != 3 || len(store.records) != 1 {
		t.Fatalf("expected success on third attempt: calls=%d records=%d", store.calls, len(store.records))
	}

	failing := &memoryStore{failures: 5}
	sim = NewSimulator(Config{DefaultPool: poolA, MaxRetries: 1, RetryBackoff: time.Millisecond}, newRegistry(t), &memorySink{}, failing, zap.NewNop())
	if err := sim.Run(context.Background(), writeInput(t, `{"direction":"buy","amount":"1"}`)); err == nil {
		t.Fatalf("expected error once retries are exhausted")
	}
	if failing.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", failing.calls)
	}
}
