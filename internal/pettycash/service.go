package pettycash

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Kashan-amd/modis/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AuditPort records petty cash events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service maintains the petty cash ledger. It mirrors the main ledger's
// post/void state machine but is scoped to one account per line.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the petty cash service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Post records a movement and updates the account balance in one unit of
// work, capturing the resulting running balance on the line.
func (s *Service) Post(ctx context.Context, input PostInput) (Line, error) {
	if err := input.Validate(); err != nil {
		return Line{}, err
	}
	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	var line Line
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, input.AccountID)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return fmt.Errorf("account %d: %w", input.AccountID, ErrAccountUnavailable)
		}
		delta := input.Debit.Sub(input.Credit)
		balance := account.CurrentBalance.Add(delta)
		inserted, err := tx.InsertLine(ctx, Line{
			Reference:   uuid.New(),
			AccountID:   input.AccountID,
			Date:        date,
			Description: input.Description,
			Debit:       input.Debit,
			Credit:      input.Credit,
			Balance:     balance,
			Status:      StatusPosted,
			CreatedBy:   input.ActorID,
		})
		if err != nil {
			return err
		}
		if err := tx.ApplyBalanceDelta(ctx, input.AccountID, delta, s.now()); err != nil {
			return err
		}
		line = inserted
		return nil
	})
	if err != nil {
		return Line{}, err
	}
	s.record(ctx, input.ActorID, "pettycash.post", line.ID, map[string]any{"account_id": input.AccountID})
	return line, nil
}

// Void restores the account balance and marks the line VOID without deleting
// it, preserving the audit trail.
func (s *Service) Void(ctx context.Context, lineID, actorID int64, reason string) (Line, error) {
	if actorID == 0 {
		return Line{}, ErrActorRequired
	}
	var line Line
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetLineForUpdate(ctx, lineID)
		if err != nil {
			return err
		}
		if current.Status != StatusPosted {
			return fmt.Errorf("line %d is %s: %w", lineID, current.Status, ErrInvalidStatus)
		}
		delta := current.Debit.Sub(current.Credit).Neg()
		if err := tx.ApplyBalanceDelta(ctx, current.AccountID, delta, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateLineStatus(ctx, lineID, StatusVoid); err != nil {
			return err
		}
		current.Status = StatusVoid
		line = current
		return nil
	})
	if err != nil {
		return Line{}, err
	}
	s.record(ctx, actorID, "pettycash.void", lineID, map[string]any{"reason": reason})
	return line, nil
}

// ListByAccount returns the account's petty cash lines, newest first.
func (s *Service) ListByAccount(ctx context.Context, accountID int64) ([]Line, error) {
	var lines []Line
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		lines, err = tx.ListLines(ctx, accountID)
		return err
	})
	return lines, err
}

// Balance returns the sum of posted movements for the account.
func (s *Service) Balance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		balance, err = tx.SumPosted(ctx, accountID)
		return err
	})
	return balance, err
}

func (s *Service) record(ctx context.Context, actorID int64, action string, lineID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "petty_cash_line",
		EntityID: fmt.Sprintf("%d", lineID),
		Meta:     meta,
		At:       s.now(),
	})
}
