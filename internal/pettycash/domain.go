package pettycash

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Kashan-amd/modis/internal/shared"
)

// LineStatus enumerates the petty cash line lifecycle.
type LineStatus string

const (
	StatusPosted LineStatus = "POSTED"
	StatusVoid   LineStatus = "VOID"
)

// Line is a simplified ledger movement against a single account with a
// running balance captured at posting time.
type Line struct {
	ID          int64
	Reference   uuid.UUID
	AccountID   int64
	Date        time.Time
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Balance     decimal.Decimal
	Status      LineStatus
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PostInput groups fields required to record a petty cash movement.
type PostInput struct {
	AccountID   int64
	Date        time.Time
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	ActorID     int64
}

var (
	// ErrLineNotFound indicates a missing petty cash line.
	ErrLineNotFound = fmt.Errorf("pettycash: line %w", shared.ErrNotFound)
	// ErrNoMovement indicates a line with neither debit nor credit.
	ErrNoMovement = fmt.Errorf("pettycash: line requires a debit or credit: %w", shared.ErrValidation)
	// ErrBothSides indicates a line with both debit and credit set.
	ErrBothSides = fmt.Errorf("pettycash: line cannot be both debit and credit: %w", shared.ErrValidation)
	// ErrNegativeAmount indicates a negative debit or credit.
	ErrNegativeAmount = fmt.Errorf("pettycash: amounts must not be negative: %w", shared.ErrValidation)
	// ErrActorRequired indicates a missing actor id.
	ErrActorRequired = fmt.Errorf("pettycash: actor id required: %w", shared.ErrValidation)
	// ErrInvalidStatus indicates the line is not in a voidable state.
	ErrInvalidStatus = fmt.Errorf("pettycash: invalid status transition: %w", shared.ErrConflict)
	// ErrAccountUnavailable indicates the target account is missing or inactive.
	ErrAccountUnavailable = fmt.Errorf("pettycash: missing or inactive account: %w", shared.ErrReference)
)

// Validate checks the movement before any mutation.
func (in PostInput) Validate() error {
	if in.ActorID == 0 {
		return ErrActorRequired
	}
	if in.AccountID == 0 {
		return fmt.Errorf("pettycash: account required: %w", shared.ErrValidation)
	}
	if in.Debit.IsNegative() || in.Credit.IsNegative() {
		return ErrNegativeAmount
	}
	if in.Debit.IsPositive() && in.Credit.IsPositive() {
		return ErrBothSides
	}
	if in.Debit.IsZero() && in.Credit.IsZero() {
		return ErrNoMovement
	}
	return nil
}
