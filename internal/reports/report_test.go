package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Kashan-amd/modis/internal/balances"
	"github.com/Kashan-amd/modis/internal/organizations"
)

type stubOrganizations struct {
	orgs []organizations.Organization
}

func (s stubOrganizations) List(ctx context.Context) ([]organizations.Organization, error) {
	return s.orgs, nil
}

type stubBalances struct {
	byOrg map[int64]balances.OrganizationBalance
}

func (s stubBalances) OrganizationBalance(ctx context.Context, organizationID int64) (balances.OrganizationBalance, error) {
	return s.byOrg[organizationID], nil
}

func sampleReport(t *testing.T) LedgerReport {
	t.Helper()
	builder := NewBuilder(
		stubOrganizations{orgs: []organizations.Organization{
			{ID: 1, Code: "OSC", Name: "Oil Services Co"},
			{ID: 2, Code: "HO", Name: "Head Office"},
		}},
		stubBalances{byOrg: map[int64]balances.OrganizationBalance{
			1: {
				OrganizationID:     1,
				OpeningAmount:      decimal.RequireFromString("1000"),
				OpeningSide:        balances.SideCredit,
				Sent:               balances.TypeTotals{Fund: decimal.RequireFromString("200"), Total: decimal.RequireFromString("200")},
				Received:           balances.TypeTotals{Fund: decimal.RequireFromString("500"), Total: decimal.RequireFromString("500")},
				TransactionBalance: decimal.RequireFromString("300"),
				FinalBalance:       decimal.RequireFromString("1300"),
			},
			2: {
				OrganizationID: 2,
				Sent:           balances.ZeroTotals(),
				Received:       balances.ZeroTotals(),
				FinalBalance:   decimal.RequireFromString("-50"),
			},
		}},
	).WithNow(func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) })

	report, err := builder.BuildLedger(context.Background())
	require.NoError(t, err)
	return report
}

func TestBuildLedger(t *testing.T) {
	report := sampleReport(t)

	require.Len(t, report.Rows, 2)
	require.Equal(t, "OSC", report.Rows[0].OrganizationCode)
	require.True(t, report.TotalFinal.Equal(decimal.RequireFromString("1250")))
	require.Equal(t, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), report.GeneratedAt)
}

func TestWriteLedgerCSV(t *testing.T) {
	report := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, report))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, "Organization", records[0][0])
	require.Equal(t, "OSC", records[1][0])
	require.Equal(t, "1,300.00", records[1][13])
	require.Equal(t, "TOTAL", records[3][0])
	require.Equal(t, "1,250.00", records[3][13])
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "1,234,567.50", formatAmount(decimal.RequireFromString("1234567.5")))
	require.Equal(t, "0.00", formatAmount(decimal.Zero))
	require.Equal(t, "-700.00", formatAmount(decimal.RequireFromString("-700")))
}

func TestBuildLedgerHTMLEscapes(t *testing.T) {
	report := sampleReport(t)
	report.Rows[0].OrganizationName = "A&B <Works>"

	html := buildLedgerHTML(report)
	require.Contains(t, html, "A&amp;B &lt;Works&gt;")
	require.Contains(t, html, "1,300.00")
	require.NotContains(t, html, "<Works>")
}
