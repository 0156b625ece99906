package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// PDFExporter wraps Gotenberg interactions for ledger report exports.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// Ping checks if the remote Gotenberg service is available.
func (p *PDFExporter) Ping(ctx context.Context) error {
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return fmt.Errorf("gotenberg endpoint required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.client().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderLedger sends the report HTML to Gotenberg and returns the PDF bytes.
func (p *PDFExporter) RenderLedger(ctx context.Context, report LedgerReport) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}

	html := buildLedgerHTML(report)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "ledger.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	if err := writer.WriteField("waitDelay", "500"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func (p *PDFExporter) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

func buildLedgerHTML(report LedgerReport) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;} .org-label{text-align:left;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>Ledger Report as of %s</h1>", report.GeneratedAt.Format("2006-01-02 15:04 MST")))

	b.WriteString("<section><table><thead><tr><th>Organization</th><th>Opening</th><th>Sent</th><th>Received</th><th>Movement</th><th>Final</th></tr></thead><tbody>")
	for _, row := range report.Rows {
		balance := row.Balance
		opening := formatAmount(balance.OpeningAmount)
		if balance.OpeningSide != "" {
			opening += " " + string(balance.OpeningSide)
		}
		b.WriteString("<tr><td class=\"org-label\">")
		b.WriteString(templateEscape(row.OrganizationCode + " " + row.OrganizationName))
		b.WriteString("</td><td>")
		b.WriteString(templateEscape(opening))
		b.WriteString("</td><td>")
		b.WriteString(formatAmount(balance.Sent.Total))
		b.WriteString("</td><td>")
		b.WriteString(formatAmount(balance.Received.Total))
		b.WriteString("</td><td>")
		b.WriteString(formatAmount(balance.TransactionBalance))
		b.WriteString("</td><td>")
		b.WriteString(formatAmount(balance.FinalBalance))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table></section>")

	b.WriteString("<section><h2>Movement by Type</h2><table><thead><tr><th>Organization</th><th>Sent Fund</th><th>Sent Loan</th><th>Sent Return</th><th>Recv Fund</th><th>Recv Loan</th><th>Recv Return</th></tr></thead><tbody>")
	for _, row := range report.Rows {
		balance := row.Balance
		b.WriteString("<tr><td class=\"org-label\">")
		b.WriteString(templateEscape(row.OrganizationCode))
		b.WriteString("</td><td>")
		b.WriteString(formatAmount(balance.Sent.Fund))
		b.WriteString("</td><td>")
		b.WriteString(formatAmount(balance.Sent.Loan))
		b.WriteString("</td><td>")
		b.WriteString(formatAmount(balance.Sent.Return))
		b.WriteString("</td><td>")
		b.WriteString(formatAmount(balance.Received.Fund))
		b.WriteString("</td><td>")
		b.WriteString(formatAmount(balance.Received.Loan))
		b.WriteString("</td><td>")
		b.WriteString(formatAmount(balance.Received.Return))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table></section>")

	writeTotalRow(&b, "Combined Final Balance", report.TotalFinal)
	b.WriteString("</body></html>")
	return b.String()
}

func writeTotalRow(b *strings.Builder, label string, value decimal.Decimal) {
	b.WriteString("<section><table><tbody><tr><td class=\"org-label\">")
	b.WriteString(templateEscape(label))
	b.WriteString("</td><td>")
	b.WriteString(formatAmount(value))
	b.WriteString("</td></tr></tbody></table></section>")
}

func templateEscape(v string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(v)
}
