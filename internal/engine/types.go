package engine

import (
	"fmt"
	"math/big"
)

// Direction says which asset the trader pays in.
type Direction uint8

const (
	// QuoteToBase pays quote and receives base; inventory rises.
	QuoteToBase Direction = iota
	// BaseToQuote pays base and receives quote; inventory falls.
	BaseToQuote
)

func (d Direction) String() string {
	switch d {
	case QuoteToBase:
		return "quote_to_base"
	case BaseToQuote:
		return "base_to_quote"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// ParseDirection accepts the String forms plus the short "buy" and "sell".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "quote_to_base", "buy":
		return QuoteToBase, nil
	case "base_to_quote", "sell":
		return BaseToQuote, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// Mode says which side of the trade is fixed.
type Mode uint8

const (
	ExactIn Mode = iota
	ExactOut
)

func (m Mode) String() string {
	switch m {
	case ExactIn:
		return "exact_in"
	case ExactOut:
		return "exact_out"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "exact_in", "in":
		return ExactIn, nil
	case "exact_out", "out":
		return ExactOut, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

// Request is a single swap to quote. Amount is a wad.
type Request struct {
	Direction Direction
	Mode      Mode
	Amount    *big.Int
}

// Result is a priced swap. AmountIn includes Fee.
type Result struct {
	AmountIn        *big.Int
	AmountOut       *big.Int
	Fee             *big.Int
	InventoryBefore *big.Int
	InventoryAfter  *big.Int
	// BinsCrossed counts segments traversed end to end.
	BinsCrossed int
	// TailUsed is set when any tail segment priced part of the trade.
	TailUsed bool
}

// State is a step of the segment walk.
type State uint8

const (
	Idle State = iota
	LocatingBin
	PricingSegment
	AdvancingBin
	TailHandling
	Completed
	Reverted
)

var stateNames = [...]string{
	Idle:           "idle",
	LocatingBin:    "locating_bin",
	PricingSegment: "pricing_segment",
	AdvancingBin:   "advancing_bin",
	TailHandling:   "tail_handling",
	Completed:      "completed",
	Reverted:       "reverted",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Tracer observes walk transitions. Inventory is the position at the time
// of the transition and must not be retained or modified.
type Tracer interface {
	Transition(from, to State, inventory *big.Int)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(from, to State, inventory *big.Int)

func (f TracerFunc) Transition(from, to State, inventory *big.Int) {
	f(from, to, inventory)
}
