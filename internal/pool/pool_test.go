package pool

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lognormPool/internal/curve"
	"lognormPool/internal/engine"
	"lognormPool/internal/fixedpoint"
)

var (
	poolA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	poolB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	admin = common.HexToAddress("0x000000000000000000000000000000000000ad01")
)

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

func newConfiguredPool(t *testing.T, store StateStore) *Pool {
	t.Helper()
	p := New(poolA, engine.Config{}, store, zap.NewNop())
	if err := p.Configure(context.Background(), scenarioParams()); err != nil {
		t.Fatalf("configure: %v", err)
	}
	return p
}

func TestConfigureSeedsInventoryAtMean(t *testing.T) {
	store := &MemoryStateStore{}
	p := newConfiguredPool(t, store)

	inv, err := p.Inventory()
	if err != nil {
		t.Fatalf("inventory: %v", err)
	}
	if inv.String() != "462183601113052024328624" {
		t.Fatalf("seeded inventory: %s", inv)
	}
	stored, found, _ := store.Load(context.Background())
	if !found || stored.Cmp(inv) != 0 {
		t.Fatalf("seeded inventory should be persisted")
	}
}

func TestConfigureResumesFromStore(t *testing.T) {
	store := &MemoryStateStore{}
	_ = store.Save(context.Background(), fixedpoint.NewWad(500_000))
	p := newConfiguredPool(t, store)

	inv, _ := p.Inventory()
	if inv.Cmp(fixedpoint.NewWad(500_000)) != 0 {
		t.Fatalf("expected stored inventory, got %s", inv)
	}
	price, err := p.CurrentPrice()
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if price.String() != "131936114273155386908" {
		t.Fatalf("price at stored inventory: %s", price)
	}
}

func TestUnconfiguredPool(t *testing.T) {
	p := New(poolA, engine.Config{}, nil, nil)
	if _, err := p.QuoteExactIn(engine.QuoteToBase, fixedpoint.Wad); !errors.Is(err, engine.ErrNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
	if _, err := p.Swap(context.Background(), engine.Request{Amount: fixedpoint.Wad}, nil); !errors.Is(err, engine.ErrNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
}

func TestSwapCommitsAfterSettlement(t *testing.T) {
	store := &MemoryStateStore{}
	p := newConfiguredPool(t, store)
	before, _ := p.Inventory()

	quote, err := p.QuoteExactIn(engine.QuoteToBase, fixedpoint.NewWad(1_000))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	var settled engine.Result
	settler := SettlerFunc(func(ctx context.Context, id common.Address, req engine.Request, res engine.Result) error {
		if id != poolA {
			t.Fatalf("settled wrong pool %s", id.Hex())
		}
		settled = res
		return nil
	})
	res, err := p.Swap(context.Background(), engine.Request{Direction: engine.QuoteToBase, Mode: engine.ExactIn, Amount: fixedpoint.NewWad(1_000)}, settler)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if !reflect.DeepEqual(res, quote) || !reflect.DeepEqual(settled, res) {
		t.Fatalf("swap should settle exactly the quoted result")
	}

	after, _ := p.Inventory()
	if after.Cmp(res.InventoryAfter) != 0 || after.Cmp(before) <= 0 {
		t.Fatalf("inventory not committed: before %s after %s", before, after)
	}
	stored, _, _ := store.Load(context.Background())
	if stored.Cmp(after) != 0 {
		t.Fatalf("store not updated")
	}
}

func TestSwapFailureLeavesInventory(t *testing.T) {
	store := &MemoryStateStore{}
	p := newConfiguredPool(t, store)
	before, _ := p.Inventory()
	saves := store.Saves()

	boom := errors.New("transfer rejected")
	failing := SettlerFunc(func(context.Context, common.Address, engine.Request, engine.Result) error {
		return boom
	})
	_, err := p.Swap(context.Background(), engine.Request{Direction: engine.QuoteToBase, Mode: engine.ExactIn, Amount: fixedpoint.Wad}, failing)
	if !errors.Is(err, boom) {
		t.Fatalf("expected settlement error, got %v", err)
	}

	_, err = p.Swap(context.Background(), engine.Request{Direction: engine.QuoteToBase, Mode: engine.ExactOut, Amount: fixedpoint.NewWad(2_000_000)}, nil)
	if !errors.Is(err, engine.ErrOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}

	after, _ := p.Inventory()
	if after.Cmp(before) != 0 || store.Saves() != saves {
		t.Fatalf("failed swaps must not touch inventory or state")
	}
}

func TestReconfigureRejectsUnpriceableInventory(t *testing.T) {
	p := newConfiguredPool(t, nil)
	e, _ := p.Engine()
	fp, _ := e.Fingerprint()

	smaller := scenarioParams()
	smaller.Liquidity = fixedpoint.NewWad(1_000)
	if err := p.Configure(context.Background(), smaller); !errors.Is(err, ErrInventoryOutOfRange) {
		t.Fatalf("expected inventory out of range, got %v", err)
	}
	e, _ = p.Engine()
	if got, _ := e.Fingerprint(); got != fp {
		t.Fatalf("rejected reconfiguration must keep the old curve")
	}

	wider := scenarioParams()
	wider.SwapFee = new(big.Int)
	if err := p.Configure(context.Background(), wider); err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	res, err := p.QuoteExactIn(engine.QuoteToBase, fixedpoint.NewWad(1_000))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if res.Fee.Sign() != 0 {
		t.Fatalf("new fee not applied")
	}
}

func TestConcurrentSwapsSerialise(t *testing.T) {
	p := newConfiguredPool(t, nil)
	before, _ := p.Inventory()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := p.Swap(context.Background(), engine.Request{Direction: engine.QuoteToBase, Mode: engine.ExactOut, Amount: fixedpoint.NewWad(10)}, nil)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := p.QuoteExactIn(engine.BaseToQuote, fixedpoint.Wad)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent call: %v", err)
		}
	}

	after, _ := p.Inventory()
	want := new(big.Int).Add(before, fixedpoint.NewWad(10*workers))
	if after.Cmp(want) != 0 {
		t.Fatalf("inventory after concurrent buys: got %s want %s", after, want)
	}
}

func TestFileStateStore(t *testing.T) {
	store := &FileStateStore{Path: filepath.Join(t.TempDir(), "state", "pool.json")}
	ctx := context.Background()

	if _, found, err := store.Load(ctx); err != nil || found {
		t.Fatalf("empty store: found=%v err=%v", found, err)
	}
	want := new(big.Int).Neg(fixedpoint.MustParseWad("12.5"))
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := store.Load(ctx)
	if err != nil || !found || got.Cmp(want) != 0 {
		t.Fatalf("load: %v %v %v", got, found, err)
	}

	var nilStore *FileStateStore
	if err := nilStore.Save(ctx, want); err != nil {
		t.Fatalf("nil store save should be a no-op: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	stores := map[common.Address]*MemoryStateStore{}
	reg := NewRegistry(RegistryConfig{
		Authorizer: NewOwnerAuthorizer(admin),
		StateStore: func(id common.Address) StateStore {
			s := &MemoryStateStore{}
			stores[id] = s
			return s
		},
	}, zap.NewNop())

	if _, err := reg.Create(ctx, poolA, poolA, scenarioParams()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized create, got %v", err)
	}
	if _, err := reg.Create(ctx, admin, poolB, scenarioParams()); err != nil {
		t.Fatalf("create b: %v", err)
	}
	if _, err := reg.Create(ctx, admin, poolA, scenarioParams()); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if _, err := reg.Create(ctx, admin, poolA, scenarioParams()); !errors.Is(err, ErrPoolExists) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if ids := reg.IDs(); !reflect.DeepEqual(ids, []common.Address{poolA, poolB}) {
		t.Fatalf("ids not sorted: %v", ids)
	}

	if _, err := reg.Get(common.HexToAddress("0xdead")); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := reg.Configure(ctx, poolA, poolA, scenarioParams()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized configure, got %v", err)
	}

	res, err := reg.Swap(ctx, poolA, engine.Request{Direction: engine.BaseToQuote, Mode: engine.ExactIn, Amount: fixedpoint.NewWad(5)}, nil)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	a, _ := reg.Get(poolA)
	b, _ := reg.Get(poolB)
	invA, _ := a.Inventory()
	invB, _ := b.Inventory()
	if invA.Cmp(res.InventoryAfter) != 0 || invA.Cmp(invB) >= 0 {
		t.Fatalf("swap on a must not move b: a=%s b=%s", invA, invB)
	}
	storedA, _, _ := stores[poolA].Load(ctx)
	if storedA.Cmp(invA) != 0 {
		t.Fatalf("pool a state not persisted")
	}
}
