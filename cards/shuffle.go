/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package cards

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
)

// IntN returns a uniform integer in [0, n).
type IntN func(n int) int

// CryptoIntN draws from crypto/rand, falling back to math/rand/v2 if the
// system source fails.
func CryptoIntN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return mrand.IntN(n)
	}
	return int(v.Int64())
}

// Shuffle returns a uniformly shuffled copy of items. The input is left
// untouched.
func Shuffle[T any](items []T) []T {
	return ShuffleWith(items, CryptoIntN)
}

// ShuffleWith is Shuffle with an explicit random source.
func ShuffleWith[T any](items []T, intn IntN) []T {
	out := append([]T(nil), items...)

	// Fisher-Yates, walking down from the back
	for i := len(out) - 1; i > 0; i-- {
		j := intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}

	return out
}
