package model

import "github.com/shopspring/decimal"

// BreakpointRecord is one row of a built table. ContinuousLogPrice and Gap
// compare the breakpoint against the undiscretised profile and are omitted
// when that comparison was not requested.
type BreakpointRecord struct {
	Fingerprint        string           `json:"fingerprint"`
	Index              int              `json:"index"`
	LogPrice           decimal.Decimal  `json:"log_price"`
	Price              decimal.Decimal  `json:"price"`
	Inventory          decimal.Decimal  `json:"inventory"`
	ContinuousLogPrice *decimal.Decimal `json:"continuous_log_price,omitempty"`
	Gap                *decimal.Decimal `json:"gap,omitempty"`
}
