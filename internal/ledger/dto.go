package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type entryRequest struct {
	AccountID   int64  `json:"account_id" validate:"required,gt=0"`
	ProjectID   *int64 `json:"project_id,omitempty" validate:"omitempty,gt=0"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

type createTransactionRequest struct {
	Date               string         `json:"date" validate:"required"`
	Reference          string         `json:"reference" validate:"required,max=100"`
	Description        string         `json:"description,omitempty" validate:"max=500"`
	Type               string         `json:"type" validate:"required,oneof=FUND LOAN RETURN JOURNAL"`
	OrganizationID     *int64         `json:"organization_id,omitempty" validate:"omitempty,gt=0"`
	FromOrganizationID *int64         `json:"from_organization_id,omitempty" validate:"omitempty,gt=0"`
	ToOrganizationID   *int64         `json:"to_organization_id,omitempty" validate:"omitempty,gt=0"`
	Draft              bool           `json:"draft"`
	ActorID            int64          `json:"actor_id" validate:"required,gt=0"`
	Entries            []entryRequest `json:"entries" validate:"required,min=2,dive"`
}

type voidRequest struct {
	ActorID int64  `json:"actor_id" validate:"required,gt=0"`
	Reason  string `json:"reason,omitempty" validate:"max=500"`
}

type reverseRequest struct {
	ActorID     int64   `json:"actor_id" validate:"required,gt=0"`
	Reference   *string `json:"reference,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type entryResponse struct {
	ID          int64  `json:"id"`
	AccountID   int64  `json:"account_id"`
	ProjectID   *int64 `json:"project_id,omitempty"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

type transactionResponse struct {
	ID                 int64           `json:"id"`
	Date               string          `json:"date"`
	Reference          string          `json:"reference"`
	Description        string          `json:"description,omitempty"`
	Status             string          `json:"status"`
	Type               string          `json:"type"`
	OrganizationID     *int64          `json:"organization_id,omitempty"`
	FromOrganizationID *int64          `json:"from_organization_id,omitempty"`
	ToOrganizationID   *int64          `json:"to_organization_id,omitempty"`
	Amount             string          `json:"amount"`
	CreatedBy          int64           `json:"created_by"`
	Entries            []entryResponse `json:"entries,omitempty"`
}

func (req createTransactionRequest) toInput() (PostingInput, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return PostingInput{}, err
	}
	entries := make([]EntryInput, 0, len(req.Entries))
	for _, e := range req.Entries {
		debit, err := parseAmount(e.Debit)
		if err != nil {
			return PostingInput{}, err
		}
		credit, err := parseAmount(e.Credit)
		if err != nil {
			return PostingInput{}, err
		}
		entries = append(entries, EntryInput{
			AccountID:   e.AccountID,
			ProjectID:   e.ProjectID,
			Debit:       debit,
			Credit:      credit,
			Description: e.Description,
		})
	}
	return PostingInput{
		Date:               date,
		Reference:          req.Reference,
		Description:        req.Description,
		Type:               TransactionType(req.Type),
		OrganizationID:     req.OrganizationID,
		FromOrganizationID: req.FromOrganizationID,
		ToOrganizationID:   req.ToOrganizationID,
		Draft:              req.Draft,
		ActorID:            req.ActorID,
		Entries:            entries,
	}, nil
}

func toTransactionResponse(txn Transaction) transactionResponse {
	entries := make([]entryResponse, 0, len(txn.Entries))
	for _, e := range txn.Entries {
		entries = append(entries, entryResponse{
			ID:          e.ID,
			AccountID:   e.AccountID,
			ProjectID:   e.ProjectID,
			Debit:       e.Debit.String(),
			Credit:      e.Credit.String(),
			Amount:      e.Amount.String(),
			Description: e.Description,
		})
	}
	return transactionResponse{
		ID:                 txn.ID,
		Date:               txn.Date.Format("2006-01-02"),
		Reference:          txn.Reference,
		Description:        txn.Description,
		Status:             string(txn.Status),
		Type:               string(txn.Type),
		OrganizationID:     txn.OrganizationID,
		FromOrganizationID: txn.FromOrganizationID,
		ToOrganizationID:   txn.ToOrganizationID,
		Amount:             txn.Amount.String(),
		CreatedBy:          txn.CreatedBy,
		Entries:            entries,
	}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
