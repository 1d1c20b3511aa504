package fibonacci

import (
	"context"
	"math"
	"math/big"
)

// IsFibonacci reports whether c is a Fibonacci number, using the identity
// that c is one exactly when 5c²+4 or 5c²−4 is a perfect square. The test is
// exact for any size of c. Nil and negative candidates yield false.
func IsFibonacci(c *big.Int) bool {
	if c == nil || c.Sign() < 0 {
		return false
	}
	v := new(big.Int).Mul(c, c)
	v.Mul(v, big.NewInt(5))

	four := big.NewInt(4)
	plus := new(big.Int).Add(v, four)
	if isPerfectSquare(plus) {
		return true
	}
	minus := v.Sub(v, four)
	return isPerfectSquare(minus)
}

func isPerfectSquare(v *big.Int) bool {
	if v.Sign() < 0 {
		return false
	}
	r := new(big.Int).Sqrt(v)
	return r.Mul(r, r).Cmp(v) == 0
}

// FibonacciIndex returns n such that F(n) = c, when c is a Fibonacci number.
// Since F(1) = F(2) = 1, the index reported for 1 is 1.
//
// The index is estimated from log_φ(c·√5) using the bit length of c and then
// confirmed exactly with the matrix evaluator on the neighboring indices.
func FibonacciIndex(c *big.Int) (uint64, bool) {
	if !IsFibonacci(c) {
		return 0, false
	}
	if c.Sign() == 0 {
		return 0, true
	}
	if c.Cmp(bigOne) == 0 {
		return 1, true
	}

	// log2(c) from the top 64 bits of c.
	shift := max(c.BitLen()-64, 0)
	top := new(big.Int).Rsh(c, uint(shift))
	log2c := math.Log2(float64(top.Uint64())) + float64(shift)
	estimate := uint64(math.Round((log2c + log2Sqrt5) / log2Phi))

	lo := estimate
	if lo > 2 {
		lo -= 2
	}
	fk, fk1, err := fibPair(context.Background(), lo, Options{})
	if err != nil {
		return 0, false
	}
	for k := lo; k <= estimate+2; k++ {
		if fk.Cmp(c) == 0 {
			return k, true
		}
		fk.Add(fk, fk1)
		fk, fk1 = fk1, fk
	}
	return 0, false
}
