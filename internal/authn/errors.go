package authn

import "errors"

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnverifiedEmail      = errors.New("email not verified")
	ErrRegistrationRejected = errors.New("registration rejected: only gmail.com accounts are accepted")
	ErrEmailExists          = errors.New("email already registered")
	ErrNoSession            = errors.New("no active session")
)
