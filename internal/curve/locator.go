package curve

import (
	"math/big"
	"sort"
)

// Sentinels returned by the locators for positions outside the table.
const (
	BelowDomain = -1
	AboveDomain = -2
)

// LocateByInventory returns the bin i with X_i <= x < X_{i+1}. x = L maps to
// the last bin. Zero-width bins are never returned for interior points
// because the largest matching i wins.
func LocateByInventory(t *Table, x *big.Int) int {
	n := t.NumBins()
	if x.Sign() < 0 {
		return BelowDomain
	}
	if x.Cmp(t.Liquidity()) > 0 {
		return AboveDomain
	}
	idx := sort.Search(n+1, func(i int) bool {
		return t.Breakpoints[i].Inventory.Cmp(x) > 0
	})
	return clampBin(idx-1, n)
}

// LocateByLogPrice returns the bin i with z_i <= z < z_{i+1}; z = z_n maps
// to the last bin.
func LocateByLogPrice(t *Table, z *big.Int) int {
	n := t.NumBins()
	if z.Cmp(t.MinLogPrice()) < 0 {
		return BelowDomain
	}
	if z.Cmp(t.MaxLogPrice()) > 0 {
		return AboveDomain
	}
	idx := sort.Search(n+1, func(i int) bool {
		return t.Breakpoints[i].LogPrice.Cmp(z) > 0
	})
	return clampBin(idx-1, n)
}

func clampBin(i, n int) int {
	if i >= n {
		return n - 1
	}
	if i < 0 {
		return 0
	}
	return i
}

// InventoryAtLogPrice maps a log-price to inventory by linear interpolation
// inside its bin, rounding down. Log-prices outside the table clamp to 0 or L.
func (t *Table) InventoryAtLogPrice(z *big.Int) *big.Int {
	i := LocateByLogPrice(t, z)
	switch i {
	case BelowDomain:
		return new(big.Int)
	case AboveDomain:
		return new(big.Int).Set(t.Liquidity())
	}
	lo, hi := t.Breakpoints[i], t.Breakpoints[i+1]
	width := new(big.Int).Sub(hi.Inventory, lo.Inventory)
	dz := new(big.Int).Sub(hi.LogPrice, lo.LogPrice)

	off := new(big.Int).Sub(z, lo.LogPrice)
	off.Mul(off, width)
	off.Quo(off, dz)
	return off.Add(off, lo.Inventory)
}
