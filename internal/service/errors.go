package service

import "errors"

// Lifecycle failures are typed so callers can map them to responses. The
// login endpoint deliberately collapses ErrInvalidCredentials and
// ErrAccountNotActivated into one generic denial on the wire.
var (
	ErrEmailConflict        = errors.New("email is already registered")
	ErrEmailInvalid         = errors.New("email address is not valid")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountNotActivated  = errors.New("account is not activated")
	ErrInvalidCredentials   = errors.New("incorrect password or email")
	ErrResetCodeInvalid     = errors.New("password reset code is invalid")
	ErrConfirmationEmpty    = errors.New("password confirmation cannot be empty")
	ErrConfirmationMismatch = errors.New("passwords do not match")
)
