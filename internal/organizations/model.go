package organizations

import (
	"fmt"
	"time"

	"github.com/Kashan-amd/modis/internal/shared"
)

// Organization is a bookkeeping tenant. Accounts and transactions are scoped
// to one organization; shared head accounts carry no organization at all.
type Organization struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates a missing organization.
	ErrNotFound = fmt.Errorf("organizations: organization %w", shared.ErrNotFound)
	// ErrDuplicateCode indicates the code is already taken.
	ErrDuplicateCode = fmt.Errorf("organizations: code already in use: %w", shared.ErrConflict)
	// ErrInUse indicates accounts or transactions still reference the organization.
	ErrInUse = fmt.Errorf("organizations: accounts or transactions reference organization: %w", shared.ErrConflict)
)
