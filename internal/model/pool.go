package model

import "github.com/shopspring/decimal"

// Pool is the configuration record of a pricing pool.
type Pool struct {
	Address     string          `json:"address"`
	Mu          decimal.Decimal `json:"mu"`
	Sigma       decimal.Decimal `json:"sigma"`
	PriceMin    decimal.Decimal `json:"price_min"`
	PriceMax    decimal.Decimal `json:"price_max"`
	NumBins     int             `json:"num_bins"`
	Liquidity   decimal.Decimal `json:"liquidity"`
	SwapFee     decimal.Decimal `json:"swap_fee"`
	TailMode    string          `json:"tail_mode"`
	Fingerprint string          `json:"fingerprint"`
}
