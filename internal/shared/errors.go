package shared

import "errors"

// Error taxonomy shared by the ledger modules. Packages wrap these with
// entity context, e.g. fmt.Errorf("accounts: account %d: %w", id, ErrConflict).
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates input rejected before any mutation.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a state conflict such as a blocked delete or duplicate number.
	ErrConflict = errors.New("conflict")
	// ErrReference indicates a dangling account or organization reference.
	ErrReference = errors.New("dangling reference")
	// ErrCycle indicates a parent assignment that would loop the hierarchy.
	ErrCycle = errors.New("hierarchy cycle")
)
