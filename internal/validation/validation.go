// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var reservedUsernames = map[string]struct{}{
	"admin":   {},
	"owner":   {},
	"system":  {},
	"console": {},
	"api":     {},
	"auth":    {},
	"chat":    {},
	"forum":   {},
	"login":   {},
	"signup":  {},
	"metrics": {},
	"swagger": {},
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}

	if len(username) > 50 {
		return fmt.Errorf("username must not exceed 50 characters")
	}

	// Only allow alphanumeric and underscores
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, and underscores")
	}

	if _, exists := reservedUsernames[strings.ToLower(username)]; exists {
		return fmt.Errorf("username is reserved")
	}

	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}

	return nil
}

// ValidateRegistrationPassword checks a password submitted at signup.
func ValidateRegistrationPassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters long")
	}

	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}

	return nil
}

// ValidateNewPassword checks a replacement password chosen from settings.
// The bar is higher than at signup and the new password must differ from
// the one it replaces.
func ValidateNewPassword(newPassword, currentPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("new password must be at least 8 characters long")
	}

	if len(newPassword) > 128 {
		return fmt.Errorf("new password must not exceed 128 characters")
	}

	if newPassword == currentPassword {
		return fmt.Errorf("new password must be different from the current password")
	}

	return nil
}
