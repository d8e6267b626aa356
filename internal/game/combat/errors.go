package combat

import "errors"

// Sentinel errors returned by combat operations. The transport layer maps
// these onto HTTP status codes; they are never broadcast to room members.
var (
	// ErrValidation is returned for malformed or out-of-range input,
	// e.g. an initiative value outside [1, 30].
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when the caller lacks the role or ownership
	// required for the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCombatState is returned when the operation is not legal in
	// the combat's current status.
	ErrInvalidCombatState = errors.New("invalid combat state")

	// ErrNotFound is returned for an unknown combat, participant, or condition ID.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyRolled is returned when a participant's initiative has already
	// been set through the player-facing path. The stored value is unchanged.
	ErrAlreadyRolled = errors.New("initiative already rolled")

	// ErrConflict is returned when a concurrent mutation lost the race,
	// e.g. the second of two simultaneous rolls for the same participant.
	ErrConflict = errors.New("conflicting concurrent mutation")
)
