package balances

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kashan-amd/modis/internal/shared"
)

// Side marks which side of the ledger an opening balance sits on.
type Side string

const (
	SideCredit Side = "CREDIT"
	SideDebit  Side = "DEBIT"
)

// Valid reports whether the side is known.
func (s Side) Valid() bool {
	return s == SideCredit || s == SideDebit
}

// OpeningBalance is a per-organization starting offset, applied once when
// computing the net balance. Never mutated except by explicit edit.
type OpeningBalance struct {
	ID             int64
	OrganizationID int64
	Amount         decimal.Decimal
	Side           Side
	Date           time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TypeTotals breaks an amount sum down by transaction type.
type TypeTotals struct {
	Fund   decimal.Decimal `json:"fund"`
	Loan   decimal.Decimal `json:"loan"`
	Return decimal.Decimal `json:"return"`
	Total  decimal.Decimal `json:"total"`
}

// OrganizationBalance is the aggregated ledger position of one organization.
type OrganizationBalance struct {
	OrganizationID     int64           `json:"organization_id"`
	OpeningAmount      decimal.Decimal `json:"opening_amount"`
	OpeningSide        Side            `json:"opening_side,omitempty"`
	Sent               TypeTotals      `json:"sent"`
	Received           TypeTotals      `json:"received"`
	TransactionBalance decimal.Decimal `json:"transaction_balance"`
	FinalBalance       decimal.Decimal `json:"final_balance"`
}

var (
	// ErrOpeningNotFound indicates no opening balance for the organization.
	ErrOpeningNotFound = fmt.Errorf("balances: opening balance %w", shared.ErrNotFound)
	// ErrInvalidSide indicates an unknown opening balance side.
	ErrInvalidSide = fmt.Errorf("balances: side must be CREDIT or DEBIT: %w", shared.ErrValidation)
	// ErrNegativeAmount indicates a negative opening amount.
	ErrNegativeAmount = fmt.Errorf("balances: opening amount must not be negative: %w", shared.ErrValidation)
)

// ZeroTotals returns totals with every bucket at zero, so JSON output never
// carries uninitialised decimals.
func ZeroTotals() TypeTotals {
	return TypeTotals{Fund: decimal.Zero, Loan: decimal.Zero, Return: decimal.Zero, Total: decimal.Zero}
}
