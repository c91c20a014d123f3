package fixedpoint

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const WadDecimals = 18

// ParseWad parses a decimal string into a wad. Digits beyond 18 decimal
// places are truncated toward zero.
func ParseWad(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty decimal")
	}
	d, err := decimal.NewFromString(input)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", input, err)
	}
	out, err := DecimalToWad(d)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", input, err)
	}
	return out, nil
}

// DecimalToWad truncates d to 18 decimals and scales it to a wad.
func DecimalToWad(d decimal.Decimal) (*big.Int, error) {
	out := d.Shift(WadDecimals).Truncate(0).BigInt()
	if err := CheckInt256(out); err != nil {
		return nil, err
	}
	return out, nil
}

// MustParseWad is ParseWad for constants; it panics on malformed input.
func MustParseWad(input string) *big.Int {
	out, err := ParseWad(input)
	if err != nil {
		panic(err)
	}
	return out
}

// FormatWad renders a wad as a plain decimal string without trailing zeros.
func FormatWad(x *big.Int) string {
	if x == nil {
		return "0"
	}
	return decimal.NewFromBigInt(x, -WadDecimals).String()
}

// WadToDecimal converts a wad to a decimal.Decimal.
func WadToDecimal(x *big.Int) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x, -WadDecimals)
}
