package accounts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kashan-amd/modis/internal/shared"
)

// AccountType enumerates chart-of-accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether the account type is a known category.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// Account models a chart of accounts node. A nil OrganizationID marks a
// shared head-office account visible to every organization.
type Account struct {
	ID             int64
	Number         string
	Name           string
	Type           AccountType
	OrganizationID *int64
	ParentID       *int64
	Level          int
	IsParent       bool
	IsActive       bool
	OpeningBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	BalanceDate    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Node nests an account with its children for hierarchy listings.
type Node struct {
	Account
	Children []*Node
}

var (
	// ErrAccountNotFound indicates a missing account.
	ErrAccountNotFound = fmt.Errorf("accounts: account %w", shared.ErrNotFound)
	// ErrInvalidType indicates an unknown account category.
	ErrInvalidType = fmt.Errorf("accounts: unknown account type: %w", shared.ErrValidation)
	// ErrNumberRequired indicates a blank account number.
	ErrNumberRequired = fmt.Errorf("accounts: account number required: %w", shared.ErrValidation)
	// ErrNameRequired indicates a blank account name.
	ErrNameRequired = fmt.Errorf("accounts: account name required: %w", shared.ErrValidation)
	// ErrHeadHasSeparator indicates a head number carrying the hierarchy separator.
	ErrHeadHasSeparator = fmt.Errorf("accounts: head account number must not contain %q: %w", Separator, shared.ErrValidation)
	// ErrSubNumberMismatch indicates an explicit sub number outside the parent's range.
	ErrSubNumberMismatch = fmt.Errorf("accounts: sub-account number must extend the parent number: %w", shared.ErrValidation)
	// ErrDuplicateNumber indicates the number is taken within the organization scope.
	ErrDuplicateNumber = fmt.Errorf("accounts: account number already in use: %w", shared.ErrConflict)
	// ErrSelfParent indicates an account assigned as its own parent.
	ErrSelfParent = fmt.Errorf("accounts: account cannot be its own parent: %w", shared.ErrValidation)
	// ErrDescendantParent indicates the new parent sits below the account.
	ErrDescendantParent = fmt.Errorf("accounts: new parent is a descendant of the account: %w", shared.ErrCycle)
	// ErrHasEntries indicates transaction entries still reference the account.
	ErrHasEntries = fmt.Errorf("accounts: transaction entries reference account: %w", shared.ErrConflict)
	// ErrHasChildren indicates sub-accounts still hang off the account.
	ErrHasChildren = fmt.Errorf("accounts: sub-accounts reference account: %w", shared.ErrConflict)
)
