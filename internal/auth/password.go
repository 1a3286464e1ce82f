// Package auth provides password hashing for the credential store
package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plain-text password with bcrypt at the default cost.
// The returned digest embeds the algorithm identifier, cost and salt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a plain-text password against a bcrypt digest.
// It fails closed: malformed digests or digests produced by a different
// algorithm return false rather than an error.
func CheckPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
