package gyroeclp

import "math/big"

// Signed fixed-point helpers. "Mag" rounding is by magnitude: down means
// toward zero, up means away from zero, so rounding is symmetric around
// zero. Np values carry 18 decimals, Xp values carry 38.
var (
	oneNp = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	oneXp = new(big.Int).Exp(big.NewInt(10), big.NewInt(38), nil)
	e19   = new(big.Int).Exp(big.NewInt(10), big.NewInt(19), nil)
	one   = big.NewInt(1)
)

func mulDownMag(a, b *big.Int) *big.Int {
	return new(big.Int).Quo(new(big.Int).Mul(a, b), oneNp)
}

func mulUpMag(a, b *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	switch product.Sign() {
	case 1:
		product.Sub(product, one)
		product.Quo(product, oneNp)
		return product.Add(product, one)
	case -1:
		product.Add(product, one)
		product.Quo(product, oneNp)
		return product.Sub(product, one)
	}
	return product
}

// divDownMag and divUpMag assume a positive divisor, which holds for
// every use here (lambda and dSq are positive by construction).
func divDownMag(a, b *big.Int) *big.Int {
	return new(big.Int).Quo(new(big.Int).Mul(a, oneNp), b)
}

func divUpMag(a, b *big.Int) *big.Int {
	scaled := new(big.Int).Mul(a, oneNp)
	switch scaled.Sign() {
	case 1:
		scaled.Sub(scaled, one)
		scaled.Quo(scaled, b)
		return scaled.Add(scaled, one)
	case -1:
		scaled.Add(scaled, one)
		scaled.Quo(scaled, b)
		return scaled.Sub(scaled, one)
	}
	return scaled
}

func mulXp(a, b *big.Int) *big.Int {
	return new(big.Int).Quo(new(big.Int).Mul(a, b), oneXp)
}

func divXp(a, b *big.Int) *big.Int {
	return new(big.Int).Quo(new(big.Int).Mul(a, oneXp), b)
}

// mulDownXpToNp multiplies an 18-decimal value by a 38-decimal value
// into an 18-decimal result, rounding toward negative infinity. The
// 38-decimal factor is split at 19 digits so no intermediate loses
// precision.
func mulDownXpToNp(a, b *big.Int) *big.Int {
	b1 := new(big.Int).Quo(b, e19)
	b2 := new(big.Int).Rem(b, e19)
	prod1 := new(big.Int).Mul(a, b1)
	prod2 := new(big.Int).Mul(a, b2)
	if prod1.Sign() >= 0 && prod2.Sign() >= 0 {
		sum := prod1.Add(prod1, prod2.Quo(prod2, e19))
		return sum.Quo(sum, e19)
	}
	sum := prod1.Add(prod1, prod2.Quo(prod2, e19))
	sum.Add(sum, one)
	sum.Quo(sum, e19)
	return sum.Sub(sum, one)
}

// mulUpXpToNp is the round toward positive infinity counterpart.
func mulUpXpToNp(a, b *big.Int) *big.Int {
	b1 := new(big.Int).Quo(b, e19)
	b2 := new(big.Int).Rem(b, e19)
	prod1 := new(big.Int).Mul(a, b1)
	prod2 := new(big.Int).Mul(a, b2)
	if prod1.Sign() <= 0 && prod2.Sign() <= 0 {
		sum := prod1.Add(prod1, prod2.Quo(prod2, e19))
		return sum.Quo(sum, e19)
	}
	sum := prod1.Add(prod1, prod2.Quo(prod2, e19))
	sum.Sub(sum, one)
	sum.Quo(sum, e19)
	return sum.Add(sum, one)
}

// sqrtNp returns the square root of an 18-decimal value as an
// 18-decimal value.
func sqrtNp(x *big.Int) *big.Int {
	return new(big.Int).Sqrt(new(big.Int).Mul(x, oneNp))
}
