package simulate

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"lognormPool/internal/engine"
	"lognormPool/internal/fixedpoint"
	"lognormPool/internal/model"
)

// Outcome is one priced or failed request.
type Outcome struct {
	Seq     uint64
	Request engine.Request
	// Inventory is the pool inventory before the request.
	Inventory  *big.Int
	Result     engine.Result
	PriceAfter *big.Int
	Executed   bool
	Err        error
}

// NewQuoteRecord converts an outcome into its output record. A failed
// outcome keeps zero amounts and carries the error text instead.
func NewQuoteRecord(pool common.Address, o Outcome, now time.Time) model.QuoteRecord {
	rec := model.QuoteRecord{
		Pool:            pool.Hex(),
		Seq:             o.Seq,
		Direction:       o.Request.Direction.String(),
		Mode:            o.Request.Mode.String(),
		Requested:       fixedpoint.WadToDecimal(o.Request.Amount),
		InventoryBefore: fixedpoint.WadToDecimal(o.Inventory),
		InventoryAfter:  fixedpoint.WadToDecimal(o.Inventory),
		CreatedAt:       now.UTC().Format(time.RFC3339),
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
		rec.Retriable = engine.IsRetriable(o.Err)
		return rec
	}
	rec.AmountIn = fixedpoint.WadToDecimal(o.Result.AmountIn)
	rec.AmountOut = fixedpoint.WadToDecimal(o.Result.AmountOut)
	rec.Fee = fixedpoint.WadToDecimal(o.Result.Fee)
	rec.InventoryAfter = fixedpoint.WadToDecimal(o.Result.InventoryAfter)
	rec.PriceAfter = fixedpoint.WadToDecimal(o.PriceAfter)
	rec.BinsCrossed = o.Result.BinsCrossed
	rec.TailUsed = o.Result.TailUsed
	rec.Executed = o.Executed
	return rec
}
