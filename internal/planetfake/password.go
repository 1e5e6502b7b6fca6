package planetfake

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var errPasswordMismatch = errors.New("password does not match")

// hashPassword returns a bcrypt hash at the default cost.
func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// verifyPassword compares a plaintext password against a bcrypt hash.
func verifyPassword(password string, hash []byte) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errPasswordMismatch
		}
		return err
	}
	return nil
}
