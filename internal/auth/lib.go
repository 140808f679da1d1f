package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RandomString returns n characters drawn uniformly from [a-zA-Z0-9].
func RandomString(n int) (string, error) {
	const op = "auth.RandomString"
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	limit := big.NewInt(int64(len(letters)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		b[i] = letters[idx.Int64()]
	}

	return string(b), nil
}
