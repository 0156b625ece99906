package reports

import (
	"encoding/csv"
	"io"
)

// WriteLedgerCSV serialises the ledger report to CSV.
func WriteLedgerCSV(w io.Writer, report LedgerReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		"Organization", "Name", "Opening Side", "Opening",
		"Sent Fund", "Sent Loan", "Sent Return", "Sent Total",
		"Received Fund", "Received Loan", "Received Return", "Received Total",
		"Transaction Balance", "Final Balance",
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range report.Rows {
		balance := row.Balance
		record := []string{
			row.OrganizationCode,
			row.OrganizationName,
			string(balance.OpeningSide),
			formatAmount(balance.OpeningAmount),
			formatAmount(balance.Sent.Fund),
			formatAmount(balance.Sent.Loan),
			formatAmount(balance.Sent.Return),
			formatAmount(balance.Sent.Total),
			formatAmount(balance.Received.Fund),
			formatAmount(balance.Received.Loan),
			formatAmount(balance.Received.Return),
			formatAmount(balance.Received.Total),
			formatAmount(balance.TransactionBalance),
			formatAmount(balance.FinalBalance),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{
		"TOTAL", "", "", "", "", "", "", "", "", "", "", "", "",
		formatAmount(report.TotalFinal),
	}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
