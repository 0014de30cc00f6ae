package i

import (
	dmn "github.com/robel-ketema/wayfinder-api/domain"
)

// Authenticator manages visitor credentials and session tokens.
type Authenticator interface {
	// Register creates a new account from a username and plain password.
	Register(string, string) error

	// SignIn verifies credentials and returns the user with a signed
	// access token.
	SignIn(string, string) (*dmn.User, string, error)
}
