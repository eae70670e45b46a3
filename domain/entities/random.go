package entities

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Randomizer yields uniformly distributed integers in [0, n)
type Randomizer interface {
	Intn(n int) (int, error)
}

// CryptoRandomizer draws from crypto/rand
type CryptoRandomizer struct{}

// NewCryptoRandomizer creates a randomizer backed by the OS entropy source
func NewCryptoRandomizer() CryptoRandomizer {
	return CryptoRandomizer{}
}

// Intn returns a cryptographically random integer in [0, n)
func (CryptoRandomizer) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid random range %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return int(v.Int64()), nil
}

// pickDistinct selects k distinct values from pool using a partial Fisher-Yates shuffle
func pickDistinct(rng Randomizer, pool []int64, k int) ([]int64, error) {
	if k > len(pool) {
		return nil, fmt.Errorf("cannot pick %d values from %d", k, len(pool))
	}
	work := make([]int64, len(pool))
	copy(work, pool)
	for i := 0; i < k; i++ {
		j, err := rng.Intn(len(work) - i)
		if err != nil {
			return nil, err
		}
		work[i], work[i+j] = work[i+j], work[i]
	}
	return work[:k], nil
}

// numberRange returns [from, to] inclusive
func numberRange(from, to int64) []int64 {
	out := make([]int64, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, n)
	}
	return out
}
