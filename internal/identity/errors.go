package identity

import "errors"

var (
	// ErrInvalidCredentials covers unknown email, inactive account and wrong password alike.
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrSelfDeletionForbidden = errors.New("cannot deactivate your own account")
	ErrInternal              = errors.New("internal error")
)
