package service

import "errors"

// Validation errors, the caller sent something the engine can never accept.
var (
	ErrOutOfRange        = errors.New("slot position out of range")
	ErrInvalidSwap       = errors.New("invalid swap positions")
	ErrInvalidAmount     = errors.New("bet amount must be positive")
	ErrInvalidWinner     = errors.New("winner is not part of this match")
	ErrInvalidCompetitor = errors.New("competitor is not part of this match")
	ErrDuplicateBet      = errors.New("user already placed a bet on this match")
	ErrIncompleteLadder  = errors.New("ladder has no occupied pair for this phase")
	ErrInvalidPairing    = errors.New("pairing does not belong to the phase")
	ErrInvalidSchedule   = errors.New("stagger must not be negative")
	ErrCompetitorSeated  = errors.New("competitor already occupies another slot")
	ErrValidationFailed  = errors.New("validation failed")
)

// State conflicts, the request was valid but the current state rejects it.
var (
	ErrConflictingLiveMatch = errors.New("another match of this event is already live")
	ErrBettingClosed        = errors.New("betting is closed for this match")
	ErrAlreadySettled       = errors.New("match is already settled")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInvalidTransition    = errors.New("invalid match status transition")
	ErrStalePreview         = errors.New("ladder changed since the pairings were previewed")
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrCompetitorNotFound = errors.New("competitor not found")
	ErrUserNotFound       = errors.New("user not found")
)

// ErrInvariantViolation marks a state the engine should never reach. The
// enclosing transaction is rolled back.
var ErrInvariantViolation = errors.New("engine invariant violated")

var (
	validationErrors = []error{ErrOutOfRange, ErrInvalidSwap, ErrInvalidAmount, ErrInvalidWinner,
		ErrInvalidCompetitor, ErrDuplicateBet, ErrIncompleteLadder, ErrInvalidPairing, ErrInvalidSchedule,
		ErrCompetitorSeated, ErrValidationFailed}
	conflictErrors = []error{ErrConflictingLiveMatch, ErrBettingClosed, ErrAlreadySettled,
		ErrInsufficientBalance, ErrInvalidTransition, ErrStalePreview}
	notFoundErrors = []error{ErrEventNotFound, ErrMatchNotFound, ErrCompetitorNotFound, ErrUserNotFound}
)

func IsValidation(err error) bool { return isAny(err, validationErrors) }

func IsConflict(err error) bool { return isAny(err, conflictErrors) }

func IsNotFound(err error) bool { return isAny(err, notFoundErrors) }

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
