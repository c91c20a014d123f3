package simulate

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lognormPool/internal/engine"
	"lognormPool/internal/fixedpoint"
)

// Totals holds running volumes for one pool over a replay.
type Totals struct {
	Pool      common.Address
	Swaps     uint64
	Failed    uint64
	QuoteIn   *big.Int
	QuoteOut  *big.Int
	BaseIn    *big.Int
	BaseOut   *big.Int
	QuoteFees *big.Int
	BaseFees  *big.Int
	TailSwaps uint64
}

func NewTotals(pool common.Address) *Totals {
	return &Totals{
		Pool:      pool,
		QuoteIn:   big.NewInt(0),
		QuoteOut:  big.NewInt(0),
		BaseIn:    big.NewInt(0),
		BaseOut:   big.NewInt(0),
		QuoteFees: big.NewInt(0),
		BaseFees:  big.NewInt(0),
	}
}

// AddSwap records an executed swap. Fees are charged in the input token.
func (t *Totals) AddSwap(dir engine.Direction, res engine.Result) {
	t.Swaps++
	if res.TailUsed {
		t.TailSwaps++
	}
	switch dir {
	case engine.QuoteToBase:
		t.QuoteIn.Add(t.QuoteIn, res.AmountIn)
		t.BaseOut.Add(t.BaseOut, res.AmountOut)
		t.QuoteFees.Add(t.QuoteFees, res.Fee)
	case engine.BaseToQuote:
		t.BaseIn.Add(t.BaseIn, res.AmountIn)
		t.QuoteOut.Add(t.QuoteOut, res.AmountOut)
		t.BaseFees.Add(t.BaseFees, res.Fee)
	}
}

func (t *Totals) AddFailure() {
	t.Failed++
}

// NetBase is the base the pool paid out minus the base it took in.
func (t *Totals) NetBase() *big.Int {
	return new(big.Int).Sub(t.BaseOut, t.BaseIn)
}

func (t *Totals) fields() []zap.Field {
	return []zap.Field{
		zap.String("pool", t.Pool.Hex()),
		zap.Uint64("swaps", t.Swaps),
		zap.Uint64("failed", t.Failed),
		zap.Uint64("tail_swaps", t.TailSwaps),
		zap.String("quote_in", fixedpoint.FormatWad(t.QuoteIn)),
		zap.String("quote_out", fixedpoint.FormatWad(t.QuoteOut)),
		zap.String("base_in", fixedpoint.FormatWad(t.BaseIn)),
		zap.String("base_out", fixedpoint.FormatWad(t.BaseOut)),
		zap.String("quote_fees", fixedpoint.FormatWad(t.QuoteFees)),
		zap.String("base_fees", fixedpoint.FormatWad(t.BaseFees)),
	}
}
