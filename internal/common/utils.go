package common

import (
	"math"
	"math/big"
	"strings"
)

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Round rounds the exact decimal value of v to the given number of places,
// halves away from zero. 0.03*0.5 is stored just below 0.015 and rounds to 0.01.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	places = max(places, 0)

	r := new(big.Rat).SetFloat64(v)
	neg := r.Sign() < 0
	r.Abs(r)

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	r.Add(r, big.NewRat(1, 2))
	n := new(big.Int).Quo(r.Num(), r.Denom())

	out, _ := new(big.Rat).SetFrac(n, scale).Float64()
	if neg && out != 0 {
		out = -out
	}
	return out
}
