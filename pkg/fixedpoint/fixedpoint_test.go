package fixedpoint

import (
	"errors"
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
)

func TestCheckedU64(t *testing.T) {
	testCases := []struct {
		name    string
		op      func() (uint64, error)
		want    uint64
		wantErr error
	}{
		{"add", func() (uint64, error) { return Add(1, 2) }, 3, nil},
		{"add overflow", func() (uint64, error) { return Add(math.MaxUint64, 1) }, 0, ErrOverflow},
		{"sub", func() (uint64, error) { return Sub(5, 5) }, 0, nil},
		{"sub underflow", func() (uint64, error) { return Sub(4, 5) }, 0, ErrUnderflow},
		{"mul", func() (uint64, error) { return Mul(1<<31, 1<<32) }, 1 << 63, nil},
		{"mul overflow", func() (uint64, error) { return Mul(1<<32, 1<<32) }, 0, ErrOverflow},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.op()
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestMulDiv(t *testing.T) {
	testCases := []struct {
		name    string
		a, b, c uint64
		want    uint64
		wantErr error
	}{
		{"exact", 500, 1100, 1000, 550, nil},
		{"floors", 10, 10, 3, 33, nil},
		{"wide intermediate", math.MaxUint64, math.MaxUint64, math.MaxUint64, math.MaxUint64, nil},
		{"quotient overflow", math.MaxUint64, 2, 1, 0, ErrOverflow},
		{"zero divisor", 1, 1, 0, 0, ErrDivisionByZero},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MulDiv(tc.a, tc.b, tc.c)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestU128Bounds(t *testing.T) {
	limit := MaxU128()

	if _, err := AddU128(limit, sdkmath.OneUint()); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected overflow adding past u128, got %v", err)
	}

	sum, err := AddU128(limit.Sub(sdkmath.OneUint()), sdkmath.OneUint())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Equal(limit) {
		t.Errorf("expected %s, got %s", limit, sum)
	}

	if _, err := SubU128(sdkmath.NewUint(1), sdkmath.NewUint(2)); !errors.Is(err, ErrUnderflow) {
		t.Errorf("expected underflow, got %v", err)
	}

	// elapsed * rate can exceed u64 while the accumulator delta still fits u128
	delta, err := MulDivToU128(math.MaxUint64, math.MaxUint64, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delta.LTE(sdkmath.NewUint(math.MaxUint64)) {
		t.Errorf("expected delta wider than u64, got %s", delta)
	}
}

func TestMulDivU128(t *testing.T) {
	// 200 staked * 1.0 reward per token (scaled) = 200
	got, err := MulDivU128(200, sdkmath.NewUint(Precision), Precision)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 200 {
		t.Errorf("expected 200, got %d", got)
	}

	if _, err := MulDivU128(math.MaxUint64, MaxU128(), 1); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected overflow narrowing to u64, got %v", err)
	}
}

func TestPeriodicYield(t *testing.T) {
	testCases := []struct {
		name    string
		amount  uint64
		apyBps  uint32
		periods uint32
		want    uint64
	}{
		// floor(0.11 * 1_000_000) = 110_000; floor(110_000 / 12) = 9_166
		{"monthly 11%", 1_000_000, 1100, 12, 9_166},
		{"empty vault", 0, 1100, 12, 0},
		{"annual", 12_345, 10_000, 1, 12_345},
		{"dust floors to zero", 10, 1100, 12, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PeriodicYield(tc.amount, tc.apyBps, tc.periods)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}

	if _, err := PeriodicYield(100, 1100, 0); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("expected division by zero, got %v", err)
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio(1100, 1000); !got.Equal(sdkmath.LegacyMustNewDecFromStr("1.1")) {
		t.Errorf("expected 1.1, got %s", got)
	}
	if got := Ratio(5, 0); !got.IsZero() {
		t.Errorf("expected zero for empty denominator, got %s", got)
	}
}
