// Package fixedpoint implements the checked integer kernel used by every
// accounting path. Narrow values are uint64; wide values are uint256.Int
// constrained to 128 bits so that results match the persisted field widths.
package fixedpoint

import (
	"math/bits"

	"github.com/holiman/uint256"

	stakeerr "stakepool/core/errors"
)

const (
	// BpsDenominator expresses 100% in basis points.
	BpsDenominator uint64 = 10_000
	// Precision scales reward-per-share values.
	Precision uint64 = 1_000_000_000_000

	wideBits = 128
)

var precisionWide = uint256.NewInt(Precision)

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, stakeerr.ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrUnderflow.
func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, stakeerr.ErrUnderflow
	}
	return diff, nil
}

// Mul returns a*b or ErrOverflow.
func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, stakeerr.ErrOverflow
	}
	return lo, nil
}

// Div returns floor(a/b) or ErrDivideByZero.
func Div(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, stakeerr.ErrDivideByZero
	}
	return a / b, nil
}

// Sum adds all values, failing on the first overflow.
func Sum(values ...uint64) (uint64, error) {
	var total uint64
	for _, v := range values {
		next, err := Add(total, v)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}

// Widen lifts a narrow value into the wide domain.
func Widen(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// Narrow converts a wide value back to uint64, failing with ErrOverflow when
// it does not fit.
func Narrow(v *uint256.Int) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	if !v.IsUint64() {
		return 0, stakeerr.ErrOverflow
	}
	return v.Uint64(), nil
}

// AddWide returns a+b within 128 bits.
func AddWide(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(orZero(a), orZero(b))
	if overflow || z.BitLen() > wideBits {
		return nil, stakeerr.ErrOverflow
	}
	return z, nil
}

// SubWide returns a-b or ErrUnderflow.
func SubWide(a, b *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(orZero(a), orZero(b))
	if underflow {
		return nil, stakeerr.ErrUnderflow
	}
	return z, nil
}

// MulWide returns a*b within 128 bits.
func MulWide(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(orZero(a), orZero(b))
	if overflow || z.BitLen() > wideBits {
		return nil, stakeerr.ErrOverflow
	}
	return z, nil
}

// DivWide returns floor(a/b) or ErrDivideByZero.
func DivWide(a, b *uint256.Int) (*uint256.Int, error) {
	if b == nil || b.IsZero() {
		return nil, stakeerr.ErrDivideByZero
	}
	return new(uint256.Int).Div(orZero(a), b), nil
}

// MulDiv computes floor(a*b/c) with the product evaluated in the wide domain.
func MulDiv(a, b, c uint64) (uint64, error) {
	product, err := MulWide(Widen(a), Widen(b))
	if err != nil {
		return 0, err
	}
	quotient, err := DivWide(product, Widen(c))
	if err != nil {
		return 0, err
	}
	return Narrow(quotient)
}

// PercentOf returns floor(amount*bps/10000). It never rounds up.
func PercentOf(amount, bps uint64) (uint64, error) {
	return MulDiv(amount, bps, BpsDenominator)
}

// Scale multiplies v by Precision.
func Scale(v uint64) (*uint256.Int, error) {
	return MulWide(Widen(v), precisionWide)
}

// Unscale divides v by Precision and narrows the result.
func Unscale(v *uint256.Int) (uint64, error) {
	quotient, err := DivWide(v, precisionWide)
	if err != nil {
		return 0, err
	}
	return Narrow(quotient)
}

// ScaledProduct computes floor(amount*perShare/Precision) without narrowing.
func ScaledProduct(amount uint64, perShare *uint256.Int) (*uint256.Int, error) {
	product, err := MulWide(Widen(amount), perShare)
	if err != nil {
		return nil, err
	}
	return DivWide(product, precisionWide)
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

// AddSeconds advances a unix timestamp, failing with ErrOverflow instead of
// wrapping.
func AddSeconds(ts, seconds int64) (int64, error) {
	sum := ts + seconds
	if (seconds > 0 && sum < ts) || (seconds < 0 && sum > ts) {
		return 0, stakeerr.ErrOverflow
	}
	return sum, nil
}
