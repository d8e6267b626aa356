package dice

import (
	"crypto/rand"
	"math/big"
)

// cryptoSource draws from crypto/rand so that contested rolls cannot be
// predicted or replayed, even by a player who knows the server's start time.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand. Safe for
// concurrent use.
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn returns a uniformly distributed random int in [0, n).
//
// Precondition: n > 0, panics otherwise. Also panics if the platform's
// randomness source fails, which is not a condition worth recovering from.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(v.Int64())
}
