// Package fixedpoint implements the checked integer arithmetic shared by the
// vault and reward pool modules. Balances are u64, accumulators are u128 and
// every intermediate product is computed at 256 bits before a floor division.
package fixedpoint

import (
	"math/big"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// Codespace is the error codespace for fixed point errors
const Codespace = "fixedpoint"

const (
	// Precision scales reward rates and reward-per-token accumulators
	Precision uint64 = 1_000_000_000

	// BpsDenominator is 100% expressed in basis points
	BpsDenominator uint64 = 10_000
)

var (
	ErrOverflow       = errors.Register(Codespace, 2, "arithmetic overflow")
	ErrUnderflow      = errors.Register(Codespace, 3, "arithmetic underflow")
	ErrDivisionByZero = errors.Register(Codespace, 4, "division by zero")
)

var (
	maxU64  = math.NewUint(^uint64(0))
	maxU128 = math.NewUintFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)))
)

// MaxU128 returns 2^128-1
func MaxU128() math.Uint {
	return maxU128
}

// ZeroU128 returns an initialized zero accumulator value
func ZeroU128() math.Uint {
	return math.ZeroUint()
}

// OrZero returns x, or zero when x was never set (e.g. absent from JSON)
func OrZero(x math.Uint) math.Uint {
	if x == (math.Uint{}) {
		return math.ZeroUint()
	}
	return x
}

// Add returns a+b or ErrOverflow
func Add(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, errors.Wrapf(ErrOverflow, "%d + %d", a, b)
	}
	return sum, nil
}

// Sub returns a-b or ErrUnderflow
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, errors.Wrapf(ErrUnderflow, "%d - %d", a, b)
	}
	return a - b, nil
}

// Mul returns a*b or ErrOverflow
func Mul(a, b uint64) (uint64, error) {
	return ToUint64(math.NewUint(a).Mul(math.NewUint(b)))
}

// MulDiv returns floor(a*b/c). The product is never truncated before division.
func MulDiv(a, b, c uint64) (uint64, error) {
	q, err := mulDiv(math.NewUint(a), math.NewUint(b), c)
	if err != nil {
		return 0, err
	}
	return ToUint64(q)
}

// MulDivToU128 returns floor(a*b/c) as an accumulator-width value
func MulDivToU128(a, b, c uint64) (math.Uint, error) {
	q, err := mulDiv(math.NewUint(a), math.NewUint(b), c)
	if err != nil {
		return math.ZeroUint(), err
	}
	if err := CheckU128(q); err != nil {
		return math.ZeroUint(), err
	}
	return q, nil
}

// MulDivU128 returns floor(a*b/c) where b is an accumulator-width value and the
// result must fit u64.
func MulDivU128(a uint64, b math.Uint, c uint64) (uint64, error) {
	if err := CheckU128(b); err != nil {
		return 0, err
	}
	q, err := mulDiv(math.NewUint(a), b, c)
	if err != nil {
		return 0, err
	}
	return ToUint64(q)
}

// AddU128 returns a+b bounded to 128 bits
func AddU128(a, b math.Uint) (math.Uint, error) {
	sum := a.Add(b)
	if err := CheckU128(sum); err != nil {
		return math.ZeroUint(), err
	}
	return sum, nil
}

// SubU128 returns a-b or ErrUnderflow
func SubU128(a, b math.Uint) (math.Uint, error) {
	if b.GT(a) {
		return math.ZeroUint(), errors.Wrapf(ErrUnderflow, "%s - %s", a, b)
	}
	return a.Sub(b), nil
}

// CheckU128 fails with ErrOverflow if x does not fit 128 bits
func CheckU128(x math.Uint) error {
	if x.GT(maxU128) {
		return errors.Wrapf(ErrOverflow, "%s exceeds u128", x)
	}
	return nil
}

// ToUint64 narrows x to u64 or fails with ErrOverflow
func ToUint64(x math.Uint) (uint64, error) {
	if x.GT(maxU64) {
		return 0, errors.Wrapf(ErrOverflow, "%s exceeds u64", x)
	}
	return x.Uint64(), nil
}

// BpsOf returns floor(amount*bps/10000)
func BpsOf(amount uint64, bps uint32) (uint64, error) {
	return MulDiv(amount, uint64(bps), BpsDenominator)
}

// PeriodicYield splits an annual yield into equal periods:
// floor(floor(amount*apyBps/10000)/periodsPerYear).
func PeriodicYield(amount uint64, apyBps uint32, periodsPerYear uint32) (uint64, error) {
	if periodsPerYear == 0 {
		return 0, errors.Wrap(ErrDivisionByZero, "periods per year")
	}
	yearly, err := BpsOf(amount, apyBps)
	if err != nil {
		return 0, err
	}
	return yearly / uint64(periodsPerYear), nil
}

// Ratio returns num/den as a decimal for display. A zero denominator yields zero.
func Ratio(num, den uint64) math.LegacyDec {
	if den == 0 {
		return math.LegacyZeroDec()
	}
	return math.LegacyNewDecFromInt(math.NewIntFromUint64(num)).
		Quo(math.LegacyNewDecFromInt(math.NewIntFromUint64(den)))
}

func mulDiv(a, b math.Uint, c uint64) (math.Uint, error) {
	if c == 0 {
		return math.ZeroUint(), errors.Wrap(ErrDivisionByZero, "mul div")
	}
	return a.Mul(b).Quo(math.NewUint(c)), nil
}
