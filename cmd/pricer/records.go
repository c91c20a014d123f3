package main

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"lognormPool/internal/curve"
	"lognormPool/internal/fixedpoint"
	"lognormPool/internal/model"
)

func poolRecord(addr common.Address, p curve.Params, fp common.Hash) model.Pool {
	return model.Pool{
		Address:     addr.Hex(),
		Mu:          fixedpoint.WadToDecimal(p.Mu),
		Sigma:       fixedpoint.WadToDecimal(p.Sigma),
		PriceMin:    fixedpoint.WadToDecimal(p.PriceMin),
		PriceMax:    fixedpoint.WadToDecimal(p.PriceMax),
		NumBins:     p.NumBins,
		Liquidity:   fixedpoint.WadToDecimal(p.Liquidity),
		SwapFee:     fixedpoint.WadToDecimal(p.SwapFee),
		TailMode:    p.Tail.Mode.String(),
		Fingerprint: hexutil.Encode(fp.Bytes()),
	}
}

// breakpointRecords renders t row by row. With continuous set each row also
// carries the undiscretised log-price at the same inventory and the gap
// z_i minus that value.
func breakpointRecords(t *curve.Table, p curve.Params, continuous bool) ([]model.BreakpointRecord, error) {
	fp := hexutil.Encode(t.Fingerprint().Bytes())
	out := make([]model.BreakpointRecord, 0, len(t.Breakpoints))
	for i, bp := range t.Breakpoints {
		price, err := fixedpoint.ExpWad(bp.LogPrice)
		if err != nil {
			return nil, fmt.Errorf("breakpoint %d price: %w", i, err)
		}
		rec := model.BreakpointRecord{
			Fingerprint: fp,
			Index:       i,
			LogPrice:    fixedpoint.WadToDecimal(bp.LogPrice),
			Price:       fixedpoint.WadToDecimal(price),
			Inventory:   fixedpoint.WadToDecimal(bp.Inventory),
		}
		if continuous {
			z, err := curve.ContinuousLogPrice(p, bp.Inventory)
			if err != nil {
				return nil, fmt.Errorf("breakpoint %d continuous: %w", i, err)
			}
			cz := fixedpoint.WadToDecimal(z)
			gap := fixedpoint.WadToDecimal(new(big.Int).Sub(bp.LogPrice, z))
			rec.ContinuousLogPrice = &cz
			rec.Gap = &gap
		}
		out = append(out, rec)
	}
	return out, nil
}
