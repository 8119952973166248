// Package fixedpoint implements 18-decimal fixed-point arithmetic on
// arbitrary-precision integers, reproducing on-chain rounding behavior
// bit for bit. Values are integers scaled by 1e18 (WAD). Rounding
// direction is always explicit: amounts accruing to a pool round up,
// amounts paid out to a user round down.
package fixedpoint

import (
	"errors"
	"math/big"
)

// WAD is the fixed-point scale factor (1e18).
var WAD = big.NewInt(1e18)

var (
	two  = big.NewInt(2)
	wad2 = new(big.Int).Mul(WAD, two)
	wad4 = new(big.Int).Mul(WAD, big.NewInt(4))
)

// ErrZeroDivision is the panic value raised on a zero divisor. Callers at
// the public API boundary recover it into an arithmetic error.
var ErrZeroDivision = errors.New("fixedpoint: division by zero")

// maxPowRelativeError is the maximum relative error of the pow
// approximation, 1e-14 in WAD terms.
var maxPowRelativeError = big.NewInt(10000)

// MulDown returns a*b/WAD truncated toward zero.
func MulDown(a, b *big.Int) *big.Int {
	p := new(big.Int).Mul(a, b)
	return p.Quo(p, WAD)
}

// MulUp returns a*b/WAD rounded away from zero.
func MulUp(a, b *big.Int) *big.Int {
	p := new(big.Int).Mul(a, b)
	if p.Sign() == 0 {
		return p
	}
	p.Sub(p, oneInt)
	p.Quo(p, WAD)
	return p.Add(p, oneInt)
}

// DivDown returns a*WAD/b truncated toward zero.
func DivDown(a, b *big.Int) *big.Int {
	if b.Sign() == 0 {
		panic(ErrZeroDivision)
	}
	p := new(big.Int).Mul(a, WAD)
	return p.Quo(p, b)
}

// DivUp returns a*WAD/b rounded away from zero.
func DivUp(a, b *big.Int) *big.Int {
	if b.Sign() == 0 {
		panic(ErrZeroDivision)
	}
	if a.Sign() == 0 {
		return new(big.Int)
	}
	p := new(big.Int).Mul(a, WAD)
	p.Sub(p, oneInt)
	p.Quo(p, b)
	return p.Add(p, oneInt)
}

// DivUpRaw returns ceil(a/b) without fixed-point scaling.
func DivUpRaw(a, b *big.Int) *big.Int {
	if b.Sign() == 0 {
		panic(ErrZeroDivision)
	}
	if a.Sign() == 0 {
		return new(big.Int)
	}
	p := new(big.Int).Sub(a, oneInt)
	p.Quo(p, b)
	return p.Add(p, oneInt)
}

// MulDivDown returns a*b/c truncated toward zero.
func MulDivDown(a, b, c *big.Int) *big.Int {
	if c.Sign() == 0 {
		panic(ErrZeroDivision)
	}
	p := new(big.Int).Mul(a, b)
	return p.Quo(p, c)
}

// MulDivUp returns a*b/c rounded away from zero.
func MulDivUp(a, b, c *big.Int) *big.Int {
	if c.Sign() == 0 {
		panic(ErrZeroDivision)
	}
	p := new(big.Int).Mul(a, b)
	if p.Sign() == 0 {
		return p
	}
	p.Sub(p, oneInt)
	p.Quo(p, c)
	return p.Add(p, oneInt)
}

// Complement returns WAD-x when x < WAD, and 0 otherwise.
func Complement(x *big.Int) *big.Int {
	if x.Cmp(WAD) < 0 {
		return new(big.Int).Sub(WAD, x)
	}
	return new(big.Int)
}

// PowDown returns x^y (both WAD-scaled), with the approximation error
// bound subtracted so the result never exceeds the true value.
func PowDown(x, y *big.Int) *big.Int {
	switch {
	case y.Cmp(WAD) == 0:
		return new(big.Int).Set(x)
	case y.Cmp(wad2) == 0:
		return MulDown(x, x)
	case y.Cmp(wad4) == 0:
		sq := MulDown(x, x)
		return MulDown(sq, sq)
	}
	raw := Pow(x, y)
	maxError := MulUp(raw, maxPowRelativeError)
	maxError.Add(maxError, oneInt)
	if raw.Cmp(maxError) < 0 {
		return new(big.Int)
	}
	return raw.Sub(raw, maxError)
}

// PowUp returns x^y (both WAD-scaled), with the approximation error bound
// added so the result is never below the true value.
func PowUp(x, y *big.Int) *big.Int {
	switch {
	case y.Cmp(WAD) == 0:
		return new(big.Int).Set(x)
	case y.Cmp(wad2) == 0:
		return MulUp(x, x)
	case y.Cmp(wad4) == 0:
		sq := MulUp(x, x)
		return MulUp(sq, sq)
	}
	raw := Pow(x, y)
	maxError := MulUp(raw, maxPowRelativeError)
	maxError.Add(maxError, oneInt)
	return raw.Add(raw, maxError)
}

var oneInt = big.NewInt(1)
