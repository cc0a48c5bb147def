package fixedpoint

import (
	"errors"
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	stakeerr "stakepool/core/errors"
)

func TestNarrowArithmetic(t *testing.T) {
	cases := []struct {
		name string
		fn   func(a, b uint64) (uint64, error)
		a, b uint64
		want uint64
		err  error
	}{
		{"add", Add, 2, 3, 5, nil},
		{"add overflow", Add, math.MaxUint64, 1, 0, stakeerr.ErrOverflow},
		{"sub", Sub, 5, 3, 2, nil},
		{"sub underflow", Sub, 3, 5, 0, stakeerr.ErrUnderflow},
		{"mul", Mul, 1 << 31, 1 << 31, 1 << 62, nil},
		{"mul overflow", Mul, 1 << 32, 1 << 32, 0, stakeerr.ErrOverflow},
		{"div floors", Div, 7, 2, 3, nil},
		{"div by zero", Div, 7, 0, 0, stakeerr.ErrDivideByZero},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.fn(tc.a, tc.b)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSumStopsOnOverflow(t *testing.T) {
	total, err := Sum(1, 2, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(6), total)

	_, err = Sum(math.MaxUint64, 0, 1)
	require.ErrorIs(t, err, stakeerr.ErrOverflow)
}

func TestPercentOfFloors(t *testing.T) {
	got, err := PercentOf(1000, 500)
	require.NoError(t, err)
	require.Equal(t, uint64(50), got)

	got, err = PercentOf(199, 50)
	require.NoError(t, err)
	require.Equal(t, uint64(0), got, "0.995 must floor to zero")

	// The product exceeds 64 bits but is evaluated in the wide domain.
	got, err = PercentOf(math.MaxUint64, 10_000)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), got)

	got, err = PercentOf(math.MaxUint64, 700)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64/10_000*700+(math.MaxUint64%10_000)*700/10_000), got)
}

func TestPercentOfNarrowingOverflow(t *testing.T) {
	_, err := PercentOf(math.MaxUint64, 20_000)
	require.ErrorIs(t, err, stakeerr.ErrOverflow)
}

func TestWideBoundsAre128Bits(t *testing.T) {
	max128 := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

	_, err := AddWide(max128, uint256.NewInt(1))
	require.ErrorIs(t, err, stakeerr.ErrOverflow)

	_, err = MulWide(Widen(math.MaxUint64), Widen(math.MaxUint64))
	require.NoError(t, err, "64x64 always fits in 128 bits")

	_, err = MulWide(max128, uint256.NewInt(2))
	require.ErrorIs(t, err, stakeerr.ErrOverflow)

	_, err = SubWide(uint256.NewInt(1), uint256.NewInt(2))
	require.ErrorIs(t, err, stakeerr.ErrUnderflow)

	_, err = DivWide(uint256.NewInt(1), new(uint256.Int))
	require.ErrorIs(t, err, stakeerr.ErrDivideByZero)
}

func TestScaleRoundTrip(t *testing.T) {
	scaled, err := Scale(7_000_000_000)
	require.NoError(t, err)
	require.Equal(t, "7000000000000000000000", scaled.Dec())

	back, err := Unscale(scaled)
	require.NoError(t, err)
	require.Equal(t, uint64(7_000_000_000), back)

	_, err = Narrow(scaled)
	if !errors.Is(err, stakeerr.ErrOverflow) {
		t.Fatalf("expected overflow narrowing a scaled value, got %v", err)
	}
}

func TestScaledProduct(t *testing.T) {
	perShare := uint256.NewInt(70_000_000_000)
	got, err := ScaledProduct(10_000_000_000, perShare)
	require.NoError(t, err)
	require.Equal(t, uint64(700_000_000), got.Uint64())
}

func TestNilWideTreatedAsZero(t *testing.T) {
	sum, err := AddWide(nil, uint256.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, uint64(4), sum.Uint64())

	v, err := Narrow(nil)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestAddSeconds(t *testing.T) {
	ts, err := AddSeconds(1_700_000_000, 43_200)
	require.NoError(t, err)
	require.Equal(t, int64(1_700_043_200), ts)

	_, err = AddSeconds(math.MaxInt64, 1)
	require.ErrorIs(t, err, stakeerr.ErrOverflow)
}
