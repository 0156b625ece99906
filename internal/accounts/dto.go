package accounts

import "github.com/shopspring/decimal"

type createHeadRequest struct {
	Number         string  `json:"number" validate:"required,max=50"`
	Name           string  `json:"name" validate:"required,max=200"`
	Type           string  `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	OrganizationID *int64  `json:"organization_id,omitempty" validate:"omitempty,gt=0"`
	OpeningBalance *string `json:"opening_balance,omitempty"`
	ActorID        int64   `json:"actor_id" validate:"required,gt=0"`
}

type createSubRequest struct {
	Number  *string `json:"number,omitempty" validate:"omitempty,max=50"`
	Name    string  `json:"name" validate:"required,max=200"`
	Type    *string `json:"type,omitempty" validate:"omitempty,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	ActorID int64   `json:"actor_id" validate:"required,gt=0"`
}

type setParentRequest struct {
	ParentID *int64 `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
	ActorID  int64  `json:"actor_id" validate:"required,gt=0"`
}

type updateAccountRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	IsActive *bool   `json:"is_active,omitempty"`
	ActorID  int64   `json:"actor_id" validate:"required,gt=0"`
}

type accountResponse struct {
	ID             int64   `json:"id"`
	Number         string  `json:"number"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	OrganizationID *int64  `json:"organization_id,omitempty"`
	ParentID       *int64  `json:"parent_id,omitempty"`
	Level          int     `json:"level"`
	IsParent       bool    `json:"is_parent"`
	IsActive       bool    `json:"is_active"`
	OpeningBalance string  `json:"opening_balance"`
	CurrentBalance string  `json:"current_balance"`
	BalanceDate    *string `json:"balance_date,omitempty"`
}

type nodeResponse struct {
	accountResponse
	Children []nodeResponse `json:"children,omitempty"`
}

func toAccountResponse(a Account) accountResponse {
	resp := accountResponse{
		ID:             a.ID,
		Number:         a.Number,
		Name:           a.Name,
		Type:           string(a.Type),
		OrganizationID: a.OrganizationID,
		ParentID:       a.ParentID,
		Level:          a.Level,
		IsParent:       a.IsParent,
		IsActive:       a.IsActive,
		OpeningBalance: a.OpeningBalance.String(),
		CurrentBalance: a.CurrentBalance.String(),
	}
	if a.BalanceDate != nil {
		date := a.BalanceDate.Format("2006-01-02")
		resp.BalanceDate = &date
	}
	return resp
}

func toNodeResponses(nodes []*Node) []nodeResponse {
	out := make([]nodeResponse, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, nodeResponse{
			accountResponse: toAccountResponse(node.Account),
			Children:        toNodeResponses(node.Children),
		})
	}
	return out
}

func parseAmount(raw *string) (decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}
