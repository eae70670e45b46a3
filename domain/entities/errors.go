package entities

import "errors"

// Domain error taxonomy. Callers match these with errors.Is; services wrap
// them with context using fmt.Errorf("...: %w", err).
var (
	// ErrInsufficientFunds is returned when an account's available balance cannot cover a debit or lock
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAlreadySettled is returned when a game or battle has already been paid out.
	// Callers treat it as a no-op.
	ErrAlreadySettled = errors.New("already settled")

	// ErrInvalidStateTransition is returned when an operation does not apply to the current state
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrConcurrencyConflict is returned when a concurrent worker claimed the rows first
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrRefundRequired marks a failure after funds were locked; the enclosing
	// transaction must be rolled back so the locks are reversed.
	ErrRefundRequired = errors.New("refund required")

	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidConfig      = errors.New("invalid game configuration")
	ErrAlreadyQueued      = errors.New("already queued for matchmaking")
	ErrAlreadyRolled      = errors.New("already rolled this round")
	ErrNotParticipant     = errors.New("not an active participant")
	ErrNumberAlreadyDrawn = errors.New("number already drawn")
	ErrInvalidNumber      = errors.New("number outside the game's range")
	ErrNumbersExhausted   = errors.New("all numbers have been drawn")
	ErrNoWinningCard      = errors.New("no winning card")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidInput       = errors.New("invalid input")
)
