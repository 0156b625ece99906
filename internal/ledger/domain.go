package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kashan-amd/modis/internal/shared"
)

// TransactionStatus enumerates the transaction lifecycle.
type TransactionStatus string

const (
	StatusDraft  TransactionStatus = "DRAFT"
	StatusPosted TransactionStatus = "POSTED"
	StatusVoid   TransactionStatus = "VOID"
)

// TransactionType classifies a transaction for aggregate reporting.
type TransactionType string

const (
	TypeFund    TransactionType = "FUND"
	TypeLoan    TransactionType = "LOAN"
	TypeReturn  TransactionType = "RETURN"
	TypeJournal TransactionType = "JOURNAL"
)

// Valid reports whether the transaction type is known.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeFund, TypeLoan, TypeReturn, TypeJournal:
		return true
	}
	return false
}

// Transaction is a double-entry event. Amount is the transaction total (the
// debit sum), used by the per-organization sent/received aggregates.
type Transaction struct {
	ID                 int64
	Date               time.Time
	Reference          string
	Description        string
	Status             TransactionStatus
	Type               TransactionType
	OrganizationID     *int64
	FromOrganizationID *int64
	ToOrganizationID   *int64
	Amount             decimal.Decimal
	CreatedBy          int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Entries            []Entry
}

// Entry is one debit or credit line. Amount equals Debit - Credit, so a
// reversal entry carries the negated amount of its mirror. ProjectID is an
// optional job-costing dimension.
type Entry struct {
	ID            int64
	TransactionID int64
	AccountID     int64
	ProjectID     *int64
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Amount        decimal.Decimal
	Description   string
	CreatedAt     time.Time
}

// EntryInput describes one line of a posting request.
type EntryInput struct {
	AccountID   int64
	ProjectID   *int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// PostingInput groups fields required to record a transaction.
type PostingInput struct {
	Date               time.Time
	Reference          string
	Description        string
	Type               TransactionType
	OrganizationID     *int64
	FromOrganizationID *int64
	ToOrganizationID   *int64
	Draft              bool
	ActorID            int64
	Entries            []EntryInput
}

// VoidInput wraps parameters for voiding.
type VoidInput struct {
	TransactionID int64
	ActorID       int64
	Reason        string
}

// ReverseInput wraps parameters for reversal. Reference and Description
// override the generated defaults when non-nil.
type ReverseInput struct {
	TransactionID int64
	ActorID       int64
	Reference     *string
	Description   *string
}

// AmountFilter selects transactions for the sum aggregate.
type AmountFilter struct {
	Type               *TransactionType
	FromOrganizationID *int64
	ToOrganizationID   *int64
}

var (
	// ErrTransactionNotFound indicates a missing transaction.
	ErrTransactionNotFound = fmt.Errorf("ledger: transaction %w", shared.ErrNotFound)
	// ErrTooFewEntries indicates fewer than two entries.
	ErrTooFewEntries = fmt.Errorf("ledger: transaction requires at least two entries: %w", shared.ErrValidation)
	// ErrUnbalanced indicates debit sum != credit sum.
	ErrUnbalanced = fmt.Errorf("ledger: entries must balance: %w", shared.ErrValidation)
	// ErrInvalidType indicates an unknown transaction type.
	ErrInvalidType = fmt.Errorf("ledger: unknown transaction type: %w", shared.ErrValidation)
	// ErrActorRequired indicates a missing actor id.
	ErrActorRequired = fmt.Errorf("ledger: actor id required: %w", shared.ErrValidation)
	// ErrInvalidStatus indicates the transition cannot proceed from the current status.
	ErrInvalidStatus = fmt.Errorf("ledger: invalid status transition: %w", shared.ErrConflict)
	// ErrAccountUnavailable indicates an entry referencing a missing or inactive account.
	ErrAccountUnavailable = fmt.Errorf("ledger: entry references missing or inactive account: %w", shared.ErrReference)
)

// Validate checks posting input before any mutation.
func (in PostingInput) Validate() error {
	if in.ActorID == 0 {
		return ErrActorRequired
	}
	if !in.Type.Valid() {
		return ErrInvalidType
	}
	if in.Date.IsZero() {
		return fmt.Errorf("ledger: transaction date required: %w", shared.ErrValidation)
	}
	if len(in.Entries) < 2 {
		return ErrTooFewEntries
	}
	debit, credit := decimal.Zero, decimal.Zero
	for idx, entry := range in.Entries {
		if entry.AccountID == 0 {
			return fmt.Errorf("ledger: entry %d missing account: %w", idx, shared.ErrValidation)
		}
		if entry.Debit.IsNegative() || entry.Credit.IsNegative() {
			return fmt.Errorf("ledger: entry %d negative amount: %w", idx, shared.ErrValidation)
		}
		if entry.Debit.IsPositive() && entry.Credit.IsPositive() {
			return fmt.Errorf("ledger: entry %d cannot be both debit and credit: %w", idx, shared.ErrValidation)
		}
		debit = debit.Add(entry.Debit)
		credit = credit.Add(entry.Credit)
	}
	if !debit.Equal(credit) {
		return ErrUnbalanced
	}
	return nil
}

// Total returns the debit sum of the input's entries.
func (in PostingInput) Total() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range in.Entries {
		total = total.Add(entry.Debit)
	}
	return total
}
