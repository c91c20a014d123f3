package curve

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Breakpoint is one table row: a log-price and the cumulative inventory at it.
type Breakpoint struct {
	LogPrice  *big.Int
	Inventory *big.Int
}

// Table holds NumBins+1 breakpoints. LogPrice is strictly increasing,
// Inventory non-decreasing, Inventory[0] = 0 and Inventory[n] = L.
// A Table is never mutated after Build returns it.
type Table struct {
	Breakpoints []Breakpoint
	// StepLogPrice is the uniform log-price width of every bin.
	StepLogPrice *big.Int
}

// NumBins returns n.
func (t *Table) NumBins() int {
	return len(t.Breakpoints) - 1
}

// Liquidity returns L, the inventory at the last breakpoint.
func (t *Table) Liquidity() *big.Int {
	return t.Breakpoints[len(t.Breakpoints)-1].Inventory
}

// MinLogPrice returns z_0.
func (t *Table) MinLogPrice() *big.Int {
	return t.Breakpoints[0].LogPrice
}

// MaxLogPrice returns z_n.
func (t *Table) MaxLogPrice() *big.Int {
	return t.Breakpoints[len(t.Breakpoints)-1].LogPrice
}

// LogPrices returns a copy of the z column.
func (t *Table) LogPrices() []*big.Int {
	out := make([]*big.Int, len(t.Breakpoints))
	for i, bp := range t.Breakpoints {
		out[i] = new(big.Int).Set(bp.LogPrice)
	}
	return out
}

// Inventories returns a copy of the X column.
func (t *Table) Inventories() []*big.Int {
	out := make([]*big.Int, len(t.Breakpoints))
	for i, bp := range t.Breakpoints {
		out[i] = new(big.Int).Set(bp.Inventory)
	}
	return out
}

// Fingerprint hashes every breakpoint as two 32-byte two's-complement words
// (log-price then inventory) with keccak-256. Identical parameters always
// produce identical fingerprints.
func (t *Table) Fingerprint() common.Hash {
	buf := make([]byte, 0, 64*len(t.Breakpoints))
	var word uint256.Int
	for _, bp := range t.Breakpoints {
		word.SetFromBig(bp.LogPrice)
		z := word.Bytes32()
		buf = append(buf, z[:]...)
		word.SetFromBig(bp.Inventory)
		x := word.Bytes32()
		buf = append(buf, x[:]...)
	}
	return crypto.Keccak256Hash(buf)
}
