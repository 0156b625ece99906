package projects

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kashan-amd/modis/internal/shared"
)

// Project is a job-costing bucket. Ledger entries tagged with a project id
// accumulate against its budget.
type Project struct {
	ID             int64           `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	OrganizationID int64           `json:"organization_id"`
	Budget         decimal.Decimal `json:"budget"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CostSummary reports posted cost against budget for one project.
type CostSummary struct {
	ProjectID int64           `json:"project_id"`
	Budget    decimal.Decimal `json:"budget"`
	Cost      decimal.Decimal `json:"cost"`
	Remaining decimal.Decimal `json:"remaining"`
}

var (
	// ErrNotFound indicates a missing project.
	ErrNotFound = fmt.Errorf("projects: project %w", shared.ErrNotFound)
	// ErrDuplicateCode indicates the code is taken within the organization.
	ErrDuplicateCode = fmt.Errorf("projects: code already in use: %w", shared.ErrConflict)
	// ErrHasEntries indicates ledger entries still reference the project.
	ErrHasEntries = fmt.Errorf("projects: ledger entries reference project: %w", shared.ErrConflict)
)
