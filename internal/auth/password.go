package auth

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/krishna9325/Car-Rental/internal/domain"
)

var (
	ErrEmptyPassword    = errors.Mark(errors.New("password must not be empty"), domain.ErrInvalidInput)
	ErrPasswordMismatch = errors.Mark(errors.New("invalid username or password"), domain.ErrUnauthorized)
)

const DefaultCost = bcrypt.DefaultCost

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "password hashing failed")
	}
	return string(hashed), nil
}

func ComparePassword(hashedPassword, password string) error {
	if hashedPassword == "" || password == "" {
		return ErrPasswordMismatch
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return errors.Wrap(err, "password comparison failed")
	}
	return nil
}
