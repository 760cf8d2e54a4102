// Package password hashes and checks account passwords with bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hash returns a salted bcrypt hash of plain. Costs outside bcrypt's range
// fall back to bcrypt.DefaultCost. The cost is stored inside the hash, so
// hashes made with an older cost keep verifying after it changes.
func Hash(plain string, cost int) ([]byte, error) {
	const op = "password.Hash"

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return hash, nil
}

// Verify reports whether plain matches hash.
func Verify(plain string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain)) == nil
}
