package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kashan-amd/modis/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// InvalidatorPort bumps derived-balance caches after a posting changes state.
type InvalidatorPort interface {
	Bump(ctx context.Context) error
}

// Service coordinates posting, voiding, and reversing transactions.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	invalidator InvalidatorPort
	now         func() time.Time
}

// NewService constructs the ledger service.
func NewService(repo RepositoryPort, audit AuditPort, invalidator InvalidatorPort) *Service {
	return &Service{repo: repo, audit: audit, invalidator: invalidator, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create validates and persists a transaction. Posted transactions apply
// their balance effect to every referenced account within the same unit of
// work; drafts record entries without touching balances.
func (s *Service) Create(ctx context.Context, input PostingInput) (Transaction, error) {
	if err := input.Validate(); err != nil {
		return Transaction{}, err
	}
	status := StatusPosted
	if input.Draft {
		status = StatusDraft
	}
	var txn Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if status == StatusPosted {
			if err := ensureAccountsAvailable(ctx, tx, input.Entries); err != nil {
				return err
			}
		}
		inserted, err := tx.InsertTransaction(ctx, input, status, input.Total())
		if err != nil {
			return err
		}
		entries, err := tx.InsertEntries(ctx, inserted.ID, input.Entries)
		if err != nil {
			return err
		}
		if status == StatusPosted {
			if err := applyDeltas(ctx, tx, entries, false, s.now()); err != nil {
				return err
			}
		}
		inserted.Entries = entries
		txn = inserted
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	s.afterMutation(ctx, input.ActorID, "transaction.create", txn.ID, map[string]any{
		"status": string(status),
		"type":   string(input.Type),
		"amount": txn.Amount.String(),
	})
	return txn, nil
}

// PostDraft applies a draft transaction's balance effect and marks it posted.
func (s *Service) PostDraft(ctx context.Context, transactionID, actorID int64) (Transaction, error) {
	if actorID == 0 {
		return Transaction{}, ErrActorRequired
	}
	var txn Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return fmt.Errorf("transaction %d is %s: %w", transactionID, current.Status, ErrInvalidStatus)
		}
		entries, err := tx.ListEntries(ctx, transactionID)
		if err != nil {
			return err
		}
		if err := ensureEntryAccountsAvailable(ctx, tx, entries); err != nil {
			return err
		}
		if err := applyDeltas(ctx, tx, entries, false, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, transactionID, StatusPosted); err != nil {
			return err
		}
		current.Status = StatusPosted
		current.Entries = entries
		txn = current
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	s.afterMutation(ctx, actorID, "transaction.post", transactionID, nil)
	return txn, nil
}

// Void reverses the balance effect of a posted transaction and marks it VOID.
// Entries are never deleted; the audit trail stays intact.
func (s *Service) Void(ctx context.Context, input VoidInput) (Transaction, error) {
	if input.ActorID == 0 {
		return Transaction{}, ErrActorRequired
	}
	var txn Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetTransactionForUpdate(ctx, input.TransactionID)
		if err != nil {
			return err
		}
		if current.Status != StatusPosted {
			return fmt.Errorf("transaction %d is %s: %w", input.TransactionID, current.Status, ErrInvalidStatus)
		}
		entries, err := tx.ListEntries(ctx, input.TransactionID)
		if err != nil {
			return err
		}
		if err := applyDeltas(ctx, tx, entries, true, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, input.TransactionID, StatusVoid); err != nil {
			return err
		}
		current.Status = StatusVoid
		current.Entries = entries
		txn = current
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	s.afterMutation(ctx, input.ActorID, "transaction.void", input.TransactionID, map[string]any{"reason": input.Reason})
	return txn, nil
}

// Reverse creates the exact inverse of a posted transaction: debit and credit
// swapped on every entry, amounts negated, balance deltas cancelling the
// original. Everything commits as one unit of work.
func (s *Service) Reverse(ctx context.Context, input ReverseInput) (Transaction, error) {
	if input.ActorID == 0 {
		return Transaction{}, ErrActorRequired
	}
	var reversal Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetTransactionForUpdate(ctx, input.TransactionID)
		if err != nil {
			return err
		}
		if original.Status != StatusPosted {
			return fmt.Errorf("transaction %d is %s: %w", input.TransactionID, original.Status, ErrInvalidStatus)
		}
		entries, err := tx.ListEntries(ctx, input.TransactionID)
		if err != nil {
			return err
		}
		posting := PostingInput{
			Date:               s.now(),
			Reference:          reversalReference(input.Reference, original),
			Description:        reversalDescription(input.Description, original),
			Type:               original.Type,
			OrganizationID:     original.OrganizationID,
			FromOrganizationID: original.ToOrganizationID,
			ToOrganizationID:   original.FromOrganizationID,
			ActorID:            input.ActorID,
			Entries:            mirrorEntries(entries),
		}
		inserted, err := tx.InsertTransaction(ctx, posting, StatusPosted, posting.Total())
		if err != nil {
			return err
		}
		mirrored, err := tx.InsertEntries(ctx, inserted.ID, posting.Entries)
		if err != nil {
			return err
		}
		// Inverse delta per original entry; identical to applying the
		// mirrored entries since their amounts are negated.
		if err := applyDeltas(ctx, tx, entries, true, s.now()); err != nil {
			return err
		}
		inserted.Entries = mirrored
		reversal = inserted
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	s.afterMutation(ctx, input.ActorID, "transaction.reverse", input.TransactionID, map[string]any{
		"reversal_id": reversal.ID,
	})
	return reversal, nil
}

// Get loads one transaction with entries.
func (s *Service) Get(ctx context.Context, transactionID int64) (Transaction, error) {
	var txn Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		entries, err := tx.ListEntries(ctx, transactionID)
		if err != nil {
			return err
		}
		current.Entries = entries
		txn = current
		return nil
	})
	return txn, err
}

// List returns transactions scoped to an organization, newest first.
func (s *Service) List(ctx context.Context, organizationID *int64) ([]Transaction, error) {
	var txns []Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		txns, err = tx.ListTransactions(ctx, organizationID)
		return err
	})
	return txns, err
}

// SumAmounts aggregates posted transaction totals by type and organization
// flow, for the reporting collaborator.
func (s *Service) SumAmounts(ctx context.Context, filter AmountFilter) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		sum, err = tx.SumAmounts(ctx, filter)
		return err
	})
	return sum, err
}

func mirrorEntries(entries []Entry) []EntryInput {
	out := make([]EntryInput, 0, len(entries))
	for _, entry := range entries {
		out = append(out, EntryInput{
			AccountID:   entry.AccountID,
			ProjectID:   entry.ProjectID,
			Debit:       entry.Credit,
			Credit:      entry.Debit,
			Description: entry.Description,
		})
	}
	return out
}

func reversalReference(override *string, original Transaction) string {
	if override != nil && *override != "" {
		return *override
	}
	return fmt.Sprintf("Reversal of %s", original.Reference)
}

func reversalDescription(override *string, original Transaction) string {
	if override != nil && *override != "" {
		return *override
	}
	return fmt.Sprintf("Reversal of transaction #%d - %s", original.ID, original.Description)
}

func ensureAccountsAvailable(ctx context.Context, tx TxRepository, entries []EntryInput) error {
	for _, entry := range entries {
		if err := checkAccount(ctx, tx, entry.AccountID); err != nil {
			return err
		}
	}
	return nil
}

func ensureEntryAccountsAvailable(ctx context.Context, tx TxRepository, entries []Entry) error {
	for _, entry := range entries {
		if err := checkAccount(ctx, tx, entry.AccountID); err != nil {
			return err
		}
	}
	return nil
}

func checkAccount(ctx context.Context, tx TxRepository, accountID int64) error {
	state, err := tx.GetAccountState(ctx, accountID)
	if err != nil {
		return err
	}
	if !state.IsActive {
		return fmt.Errorf("account %d: %w", accountID, ErrAccountUnavailable)
	}
	return nil
}

// applyDeltas increments each referenced account's current balance by
// debit-credit (or the inverse when reversing a prior effect).
func applyDeltas(ctx context.Context, tx TxRepository, entries []Entry, inverse bool, at time.Time) error {
	for _, entry := range entries {
		delta := entry.Debit.Sub(entry.Credit)
		if inverse {
			delta = delta.Neg()
		}
		if err := tx.ApplyBalanceDelta(ctx, entry.AccountID, delta, at); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) afterMutation(ctx context.Context, actorID int64, action string, transactionID int64, meta map[string]any) {
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   action,
			Entity:   "transaction",
			EntityID: fmt.Sprintf("%d", transactionID),
			Meta:     meta,
			At:       s.now(),
		})
	}
	if s.invalidator != nil {
		_ = s.invalidator.Bump(ctx)
	}
}
