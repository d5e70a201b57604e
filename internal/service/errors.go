package service

import "errors"

// Sentinel errors surfaced to the API layer, which maps them to business
// error codes. Anything not listed here is treated as an internal error.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWrongPassword      = errors.New("old password does not match")

	ErrSelfAction = errors.New("admins cannot change their own role or status")

	ErrSerialTaken = errors.New("serial number already in use")
	ErrGearInUse   = errors.New("gear has units checked out")

	ErrInvalidDueDate = errors.New("due date must be in the future")
)
