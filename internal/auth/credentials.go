package auth

import (
	"fmt"
	"regexp"

	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"

	"nebulachat/infrastructure"
)

const DefaultBcryptCost = 12

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)

func checkCredentials(username, password string, minEntropy float64) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-30 letters, digits, '.', '_' or '-'", infrastructure.ErrInvalidInput)
	}

	err := passwordvalidator.Validate(password, minEntropy)
	if err != nil {
		return fmt.Errorf("%w: password is not strong enough: %v", infrastructure.ErrInvalidInput, err)
	}
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func verifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
