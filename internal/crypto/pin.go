package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPINMismatch is returned by [PINHasher.Compare] when the submitted
// PIN does not match the stored hash.
var ErrPINMismatch = errors.New("pin mismatch")

const bcryptCost = 10

type pinHasher struct{}

// NewPINHasher returns a bcrypt-backed [PINHasher].
func NewPINHasher() PINHasher {
	return pinHasher{}
}

func (pinHasher) Hash(pin string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), bcryptCost)
	return string(bytes), err
}

func (pinHasher) Compare(hash, pin string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		return ErrPINMismatch
	}
	return nil
}

// ValidPINFormat reports whether pin is exactly length decimal digits.
func ValidPINFormat(pin string, length int) bool {
	if len(pin) != length {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
