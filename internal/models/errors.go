package models

import "errors"

// Domain errors surfaced to users as recoverable form errors. Handlers match
// them with errors.Is; anything else is treated as an internal storage error.
var (
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmptyUsername       = errors.New("username cannot be empty")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUsernameTaken       = errors.New("username already registered")
	ErrUserNotFound        = errors.New("user does not exist")
	ErrIncorrectPassword   = errors.New("incorrect password")
	ErrNotFound            = errors.New("record not found")
	ErrInvalidDueDate      = errors.New("due date must be after borrowed date")
	ErrBookUnavailable     = errors.New("no copies available")
	ErrLoanAlreadyReturned = errors.New("loan already returned")
)
