package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kashan-amd/modis/internal/balances"
	"github.com/Kashan-amd/modis/internal/organizations"
)

// OrganizationLister provides the organizations to report on.
type OrganizationLister interface {
	List(ctx context.Context) ([]organizations.Organization, error)
}

// BalanceReader resolves the aggregated balance for one organization.
type BalanceReader interface {
	OrganizationBalance(ctx context.Context, organizationID int64) (balances.OrganizationBalance, error)
}

// LedgerRow is one organization's slice of the ledger report.
type LedgerRow struct {
	OrganizationID   int64                         `json:"organization_id"`
	OrganizationCode string                        `json:"organization_code"`
	OrganizationName string                        `json:"organization_name"`
	Balance          balances.OrganizationBalance  `json:"balance"`
}

// LedgerReport groups balances by organization with grand totals.
type LedgerReport struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Rows        []LedgerRow     `json:"rows"`
	TotalFinal  decimal.Decimal `json:"total_final"`
}

// Builder assembles read-only ledger report viewmodels.
type Builder struct {
	organizations OrganizationLister
	balances      BalanceReader
	now           func() time.Time
}

// NewBuilder constructs a report builder.
func NewBuilder(orgs OrganizationLister, bal BalanceReader) *Builder {
	return &Builder{organizations: orgs, balances: bal, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (b *Builder) WithNow(now func() time.Time) *Builder {
	b.now = now
	return b
}

// BuildLedger resolves every organization's balance into one report.
func (b *Builder) BuildLedger(ctx context.Context) (LedgerReport, error) {
	orgs, err := b.organizations.List(ctx)
	if err != nil {
		return LedgerReport{}, err
	}
	report := LedgerReport{
		GeneratedAt: b.now().UTC(),
		Rows:        make([]LedgerRow, 0, len(orgs)),
		TotalFinal:  decimal.Zero,
	}
	for _, org := range orgs {
		balance, err := b.balances.OrganizationBalance(ctx, org.ID)
		if err != nil {
			return LedgerReport{}, err
		}
		report.Rows = append(report.Rows, LedgerRow{
			OrganizationID:   org.ID,
			OrganizationCode: org.Code,
			OrganizationName: org.Name,
			Balance:          balance,
		})
		report.TotalFinal = report.TotalFinal.Add(balance.FinalBalance)
	}
	return report, nil
}
