package fixedpoint

import (
	"errors"
	"math/big"
	"testing"
)

func mustInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad int literal %q", s)
	}
	return v
}

func assertClose(t *testing.T, name string, got, want *big.Int, tolerance int64) {
	t.Helper()
	diff := new(big.Int).Sub(got, want)
	if diff.Abs(diff).Cmp(big.NewInt(tolerance)) > 0 {
		t.Fatalf("%s: got %s want %s (tolerance %d)", name, got, want, tolerance)
	}
}

func TestMulDivRounding(t *testing.T) {
	down, err := MulDiv(big.NewInt(10), big.NewInt(10), big.NewInt(3), RoundDown)
	if err != nil {
		t.Fatalf("muldiv down: %v", err)
	}
	up, err := MulDiv(big.NewInt(10), big.NewInt(10), big.NewInt(3), RoundUp)
	if err != nil {
		t.Fatalf("muldiv up: %v", err)
	}
	if down.Int64() != 33 || up.Int64() != 34 {
		t.Fatalf("rounding mismatch: down=%s up=%s", down, up)
	}

	exact, err := MulDiv(big.NewInt(12), big.NewInt(10), big.NewInt(3), RoundUp)
	if err != nil {
		t.Fatalf("muldiv exact: %v", err)
	}
	if exact.Int64() != 40 {
		t.Fatalf("exact division should not round up: %s", exact)
	}
}

func TestMulDivErrors(t *testing.T) {
	if _, err := MulDiv(big.NewInt(1), big.NewInt(1), big.NewInt(0), RoundDown); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}

	huge := new(big.Int).Lsh(big.NewInt(1), 200)
	if _, err := MulDiv(huge, huge, big.NewInt(1), RoundDown); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}

	tooWide := new(big.Int).Lsh(big.NewInt(1), 300)
	if _, err := MulDiv(tooWide, big.NewInt(1), big.NewInt(1), RoundDown); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow for 300-bit operand, got %v", err)
	}

	// 2^255 fits uint256 but not int256.
	top := new(big.Int).Lsh(big.NewInt(1), 255)
	if _, err := MulDiv(top, big.NewInt(1), big.NewInt(1), RoundDown); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected int256 overflow, got %v", err)
	}

	// Full-width intermediate: (2^200 * 2^100) / 2^150 fits.
	got, err := MulDiv(huge, new(big.Int).Lsh(big.NewInt(1), 100), new(big.Int).Lsh(big.NewInt(1), 150), RoundDown)
	if err != nil {
		t.Fatalf("512-bit intermediate: %v", err)
	}
	if got.Cmp(new(big.Int).Lsh(big.NewInt(1), 150)) != 0 {
		t.Fatalf("512-bit intermediate mismatch: %s", got)
	}
}

func TestDivRoundSigned(t *testing.T) {
	cases := []struct {
		n, d     int64
		rounding Rounding
		want     int64
	}{
		{7, 2, RoundDown, 3},
		{7, 2, RoundUp, 4},
		{-7, 2, RoundDown, -4},
		{-7, 2, RoundUp, -3},
		{7, -2, RoundDown, -4},
		{-8, 2, RoundUp, -4},
	}
	for _, tc := range cases {
		got, err := DivRound(big.NewInt(tc.n), big.NewInt(tc.d), tc.rounding)
		if err != nil {
			t.Fatalf("div %d/%d: %v", tc.n, tc.d, err)
		}
		if got.Int64() != tc.want {
			t.Fatalf("div %d/%d %s: got %s want %d", tc.n, tc.d, tc.rounding, got, tc.want)
		}
	}
	if _, err := DivRound(big.NewInt(1), big.NewInt(0), RoundDown); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
}

func TestMulWadDivWad(t *testing.T) {
	a := MustParseWad("1.5")
	b := MustParseWad("2.25")
	prod, err := MulWad(a, b, RoundDown)
	if err != nil {
		t.Fatalf("mulwad: %v", err)
	}
	if FormatWad(prod) != "3.375" {
		t.Fatalf("mulwad mismatch: %s", FormatWad(prod))
	}
	back, err := DivWad(prod, b, RoundDown)
	if err != nil {
		t.Fatalf("divwad: %v", err)
	}
	if back.Cmp(a) != 0 {
		t.Fatalf("divwad mismatch: %s", FormatWad(back))
	}
}

func TestExpWadKnownValues(t *testing.T) {
	assertClose(t, "e^1", mustExp(t, Wad), mustInt(t, "2718281828459045235"), 2)
	assertClose(t, "e^-1", mustExp(t, new(big.Int).Neg(Wad)), mustInt(t, "367879441171442321"), 2)
	assertClose(t, "e^10", mustExp(t, NewWad(10)), mustInt(t, "22026465794806716516957"), 2)

	zero, err := ExpWad(new(big.Int))
	if err != nil {
		t.Fatalf("exp 0: %v", err)
	}
	if zero.Cmp(Wad) != 0 {
		t.Fatalf("e^0 should be exactly one: %s", zero)
	}

	tiny, err := ExpWad(NewWad(-50))
	if err != nil {
		t.Fatalf("exp -50: %v", err)
	}
	if tiny.Sign() != 0 {
		t.Fatalf("e^-50 should floor to zero at wad scale: %s", tiny)
	}

	if _, err := ExpWad(NewWad(136)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	big135, err := ExpWad(NewWad(135))
	if err != nil {
		t.Fatalf("exp 135: %v", err)
	}
	if err := CheckInt256(big135); err != nil {
		t.Fatalf("e^135 must fit int256: %v", err)
	}
}

func mustExp(t *testing.T, x *big.Int) *big.Int {
	t.Helper()
	v, err := ExpWad(x)
	if err != nil {
		t.Fatalf("exp %s: %v", x, err)
	}
	return v
}

func mustLn(t *testing.T, x *big.Int) *big.Int {
	t.Helper()
	v, err := LnWad(x)
	if err != nil {
		t.Fatalf("ln %s: %v", x, err)
	}
	return v
}

func TestLnWadKnownValues(t *testing.T) {
	assertClose(t, "ln 2", mustLn(t, NewWad(2)), mustInt(t, "693147180559945309"), 2)
	assertClose(t, "ln 130", mustLn(t, NewWad(130)), mustInt(t, "4867534450455582420"), 2)
	assertClose(t, "ln 0.5", mustLn(t, MustParseWad("0.5")), mustInt(t, "-693147180559945310"), 2)

	if one := mustLn(t, Wad); one.Sign() != 0 {
		t.Fatalf("ln 1 should be zero: %s", one)
	}
	if _, err := LnWad(new(big.Int)); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected domain error for ln 0, got %v", err)
	}
	if _, err := LnWad(big.NewInt(-5)); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected domain error for negative ln, got %v", err)
	}
}

func TestExpLnInverse(t *testing.T) {
	for _, s := range []string{"0.001", "0.37", "1", "80", "130", "200", "12345.678"} {
		x := MustParseWad(s)
		back := mustExp(t, mustLn(t, x))
		// ln floors by at most one wei, which costs about x wei after exp.
		tol := new(big.Int).Quo(x, Wad).Int64() + 4
		assertClose(t, "exp(ln "+s+")", back, x, tol)
	}
}

func TestExpm1AndLn1pSmallArguments(t *testing.T) {
	y := big.NewInt(100_000_000_000_000_000) // 1e-16 at precise scale is 1e20
	y.Mul(y, big.NewInt(1000))
	if got := Expm1(y); got.Cmp(mustInt(t, "100000000000000005000")) != 0 {
		t.Fatalf("expm1 mismatch: %s", got)
	}
	l, err := Ln1p(y)
	if err != nil {
		t.Fatalf("ln1p: %v", err)
	}
	if l.Cmp(mustInt(t, "99999999999999995000")) != 0 {
		t.Fatalf("ln1p mismatch: %s", l)
	}
	neg, err := Ln1p(new(big.Int).Neg(y))
	if err != nil {
		t.Fatalf("ln1p negative: %v", err)
	}
	if neg.Cmp(mustInt(t, "-100000000000000005000")) != 0 {
		t.Fatalf("ln1p negative mismatch: %s", neg)
	}

	if _, err := Ln1p(new(big.Int).Neg(Precise)); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected domain error for ln1p(-1), got %v", err)
	}
}

func TestNormCDFKnownValues(t *testing.T) {
	if got := NormCDF(new(big.Int)); got.Cmp(MustParseWad("0.5")) != 0 {
		t.Fatalf("Phi(0) should be exactly one half: %s", got)
	}
	assertClose(t, "Phi(1.96)", NormCDF(MustParseWad("1.96")), mustInt(t, "975002104851779565"), 2)
	assertClose(t, "Phi(-1)", NormCDF(MustParseWad("-1")), mustInt(t, "158655253931457051"), 2)
	assertClose(t, "Phi(6)", NormCDF(NewWad(6)), mustInt(t, "999999999013412354"), 2)
	assertClose(t, "Phi(-6)", NormCDF(NewWad(-6)), mustInt(t, "986587645"), 2)

	if got := NormCDF(NewWad(14)); got.Cmp(Wad) != 0 {
		t.Fatalf("Phi(14) should saturate: %s", got)
	}
	if got := NormCDF(NewWad(-14)); got.Sign() != 0 {
		t.Fatalf("Phi(-14) should saturate: %s", got)
	}
}

func TestNormCDFMonotone(t *testing.T) {
	prev := new(big.Int).Neg(big.NewInt(1))
	step := MustParseWad("0.25")
	for z := NewWad(-12); z.Cmp(NewWad(12)) <= 0; z = new(big.Int).Add(z, step) {
		v := NormCDFPrecise(ToPrecise(z))
		if v.Cmp(prev) < 0 {
			t.Fatalf("Phi decreased at z=%s", FormatWad(z))
		}
		prev = v
	}
}

func TestNormCDFSymmetry(t *testing.T) {
	for _, s := range []string{"0.3", "1.7", "4.9", "5.1", "8"} {
		z := ToPrecise(MustParseWad(s))
		sum := new(big.Int).Add(NormCDFPrecise(z), NormCDFPrecise(new(big.Int).Neg(z)))
		if sum.Cmp(Precise) != 0 {
			t.Fatalf("Phi(z)+Phi(-z) != 1 for z=%s: %s", s, sum)
		}
	}
}

func TestNormInv(t *testing.T) {
	z, err := NormInv(MustParseWad("0.975"))
	if err != nil {
		t.Fatalf("norminv: %v", err)
	}
	assertClose(t, "NormInv(0.975)", z, mustInt(t, "1959963984540054252"), 1000)

	for _, s := range []string{"-2.5", "-0.4", "0.8", "3.1"} {
		want := MustParseWad(s)
		got, err := NormInv(NormCDF(want))
		if err != nil {
			t.Fatalf("norminv %s: %v", s, err)
		}
		if NormCDF(got).Cmp(NormCDF(want)) > 0 {
			t.Fatalf("NormInv overshot for %s: %s", s, FormatWad(got))
		}
		assertClose(t, "NormInv(Phi("+s+"))", got, want, 1_000_000)
	}

	if _, err := NormInv(new(big.Int)); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected domain error for p=0, got %v", err)
	}
	if _, err := NormInv(Wad); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected domain error for p=1, got %v", err)
	}
}

func TestParseFormatWad(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"0.000000000000000001", "1"},
		{"-2.5", "-2500000000000000000"},
		{"1.0000000000000000019", "1000000000000000001"},
		{" 130 ", "130000000000000000000"},
	}
	for _, tc := range cases {
		got, err := ParseWad(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("parse %q: got %s want %s", tc.in, got, tc.want)
		}
	}

	if _, err := ParseWad("abc"); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := ParseWad(""); err == nil {
		t.Fatalf("expected error for empty input")
	}

	if got := FormatWad(MustParseWad("131.9361")); got != "131.9361" {
		t.Fatalf("format mismatch: %s", got)
	}
	if got := FormatWad(nil); got != "0" {
		t.Fatalf("format nil: %s", got)
	}
}
