package model

import "github.com/shopspring/decimal"

// SwapRequest is one line of a swap stream.
type SwapRequest struct {
	Pool      string          `json:"pool"`
	Direction string          `json:"direction"`
	Mode      string          `json:"mode"`
	Amount    decimal.Decimal `json:"amount"`
}

// QuoteRecord is the outcome of a quote or executed swap. Error is set and
// the amounts are zero when the request failed.
type QuoteRecord struct {
	Pool            string          `json:"pool"`
	Seq             uint64          `json:"seq"`
	Direction       string          `json:"direction"`
	Mode            string          `json:"mode"`
	Requested       decimal.Decimal `json:"requested"`
	AmountIn        decimal.Decimal `json:"amount_in"`
	AmountOut       decimal.Decimal `json:"amount_out"`
	Fee             decimal.Decimal `json:"fee"`
	InventoryBefore decimal.Decimal `json:"inventory_before"`
	InventoryAfter  decimal.Decimal `json:"inventory_after"`
	PriceAfter      decimal.Decimal `json:"price_after"`
	BinsCrossed     int             `json:"bins_crossed"`
	TailUsed        bool            `json:"tail_used"`
	Executed        bool            `json:"executed"`
	Error           string          `json:"error,omitempty"`
	Retriable       bool            `json:"retriable,omitempty"`
	CreatedAt       string          `json:"created_at"`
}
