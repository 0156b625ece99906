package balances

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kashan-amd/modis/internal/shared"
)

// Repository loads opening balances and transaction sums.
type Repository interface {
	GetOpeningBalance(ctx context.Context, organizationID int64) (OpeningBalance, error)
	UpsertOpeningBalance(ctx context.Context, balance OpeningBalance) (OpeningBalance, error)
	SentTotals(ctx context.Context, organizationID int64) (TypeTotals, error)
	ReceivedTotals(ctx context.Context, organizationID int64) (TypeTotals, error)
}

// AuditPort records balance edits.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service computes per-organization balance aggregates.
type Service struct {
	repo  Repository
	cache *Cache
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the aggregator.
func NewService(repo Repository, cache *Cache, audit AuditPort) *Service {
	return &Service{repo: repo, cache: cache, audit: audit, now: time.Now}
}

// SetOpeningInput carries an explicit opening balance edit.
type SetOpeningInput struct {
	OrganizationID int64
	Amount         decimal.Decimal
	Side           Side
	Date           time.Time
	ActorID        int64
}

// SetOpening creates or edits the organization's opening balance.
func (s *Service) SetOpening(ctx context.Context, input SetOpeningInput) (OpeningBalance, error) {
	if !input.Side.Valid() {
		return OpeningBalance{}, ErrInvalidSide
	}
	if input.Amount.IsNegative() {
		return OpeningBalance{}, ErrNegativeAmount
	}
	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	saved, err := s.repo.UpsertOpeningBalance(ctx, OpeningBalance{
		OrganizationID: input.OrganizationID,
		Amount:         input.Amount,
		Side:           input.Side,
		Date:           date,
	})
	if err != nil {
		return OpeningBalance{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "opening_balance.set",
			Entity:   "organization",
			EntityID: fmt.Sprintf("%d", input.OrganizationID),
			Meta:     map[string]any{"amount": input.Amount.String(), "side": string(input.Side)},
			At:       s.now(),
		})
	}
	_ = s.cache.Bump(ctx)
	return saved, nil
}

// GetOpening returns the organization's opening balance.
func (s *Service) GetOpening(ctx context.Context, organizationID int64) (OpeningBalance, error) {
	return s.repo.GetOpeningBalance(ctx, organizationID)
}

// OrganizationBalance aggregates sent/received totals and the final net
// position for one organization. The sum is associative and commutative, so
// the result is identical however many transactions contributed to it.
func (s *Service) OrganizationBalance(ctx context.Context, organizationID int64) (OrganizationBalance, error) {
	key, err := s.cache.BuildKey(ctx, organizationID)
	if err != nil {
		return OrganizationBalance{}, err
	}
	var balance OrganizationBalance
	err = s.cache.FetchJSON(ctx, key, &balance, func(ctx context.Context) (interface{}, error) {
		return s.computeBalance(ctx, organizationID)
	})
	return balance, err
}

func (s *Service) computeBalance(ctx context.Context, organizationID int64) (OrganizationBalance, error) {
	sent, err := s.repo.SentTotals(ctx, organizationID)
	if err != nil {
		return OrganizationBalance{}, err
	}
	received, err := s.repo.ReceivedTotals(ctx, organizationID)
	if err != nil {
		return OrganizationBalance{}, err
	}
	balance := OrganizationBalance{
		OrganizationID:     organizationID,
		OpeningAmount:      decimal.Zero,
		Sent:               sent,
		Received:           received,
		TransactionBalance: received.Total.Sub(sent.Total),
	}
	balance.FinalBalance = balance.TransactionBalance
	opening, err := s.repo.GetOpeningBalance(ctx, organizationID)
	switch {
	case err == nil:
		balance.OpeningAmount = opening.Amount
		balance.OpeningSide = opening.Side
		if opening.Side == SideCredit {
			balance.FinalBalance = balance.TransactionBalance.Add(opening.Amount)
		} else {
			balance.FinalBalance = balance.TransactionBalance.Sub(opening.Amount)
		}
	case errors.Is(err, shared.ErrNotFound):
		// No opening offset recorded; net balance is the transaction balance.
	default:
		return OrganizationBalance{}, err
	}
	return balance, nil
}
