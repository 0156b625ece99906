package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Kashan-amd/modis/internal/platform/db"
)

const transactionColumns = `id, date, reference, description, status, type, organization_id,
from_organization_id, to_organization_id, amount::text, created_by, created_at, updated_at`

// AccountState is the slice of account data the ledger needs for posting.
type AccountState struct {
	ID       int64
	IsActive bool
}

// Repository persists transactions and entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional ledger operations.
type TxRepository interface {
	GetAccountState(ctx context.Context, accountID int64) (AccountState, error)
	InsertTransaction(ctx context.Context, in PostingInput, status TransactionStatus, amount decimal.Decimal) (Transaction, error)
	InsertEntries(ctx context.Context, transactionID int64, entries []EntryInput) ([]Entry, error)
	GetTransactionForUpdate(ctx context.Context, transactionID int64) (Transaction, error)
	ListEntries(ctx context.Context, transactionID int64) ([]Entry, error)
	ListTransactions(ctx context.Context, organizationID *int64) ([]Transaction, error)
	UpdateStatus(ctx context.Context, transactionID int64, status TransactionStatus) error
	ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal, at time.Time) error
	SumAmounts(ctx context.Context, filter AmountFilter) (decimal.Decimal, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction so a posting and
// its account balance updates commit or roll back together.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) GetAccountState(ctx context.Context, accountID int64) (AccountState, error) {
	var state AccountState
	err := r.tx.QueryRow(ctx, `SELECT id, is_active FROM accounts WHERE id=$1 FOR UPDATE`, accountID).
		Scan(&state.ID, &state.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountState{}, fmt.Errorf("account %d: %w", accountID, ErrAccountUnavailable)
		}
		return AccountState{}, err
	}
	return state, nil
}

func (r *txRepository) InsertTransaction(ctx context.Context, in PostingInput, status TransactionStatus, amount decimal.Decimal) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO transactions (date, reference, description, status, type, organization_id, from_organization_id, to_organization_id, amount, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::numeric,$10) RETURNING id, created_at, updated_at`,
		in.Date, in.Reference, in.Description, status, in.Type, in.OrganizationID, in.FromOrganizationID, in.ToOrganizationID, amount.String(), in.ActorID)
	txn := Transaction{
		Date:               in.Date,
		Reference:          in.Reference,
		Description:        in.Description,
		Status:             status,
		Type:               in.Type,
		OrganizationID:     in.OrganizationID,
		FromOrganizationID: in.FromOrganizationID,
		ToOrganizationID:   in.ToOrganizationID,
		Amount:             amount,
		CreatedBy:          in.ActorID,
	}
	if err := row.Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

func (r *txRepository) InsertEntries(ctx context.Context, transactionID int64, entries []EntryInput) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for _, in := range entries {
		amount := in.Debit.Sub(in.Credit)
		row := r.tx.QueryRow(ctx, `INSERT INTO transaction_entries (transaction_id, account_id, project_id, debit, credit, amount, description)
VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6::numeric,$7) RETURNING id, created_at`,
			transactionID, in.AccountID, in.ProjectID, in.Debit.String(), in.Credit.String(), amount.String(), in.Description)
		entry := Entry{
			TransactionID: transactionID,
			AccountID:     in.AccountID,
			ProjectID:     in.ProjectID,
			Debit:         in.Debit,
			Credit:        in.Credit,
			Amount:        amount,
			Description:   in.Description,
		}
		if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *txRepository) GetTransactionForUpdate(ctx context.Context, transactionID int64) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id=$1 FOR UPDATE`, transactionID)
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, fmt.Errorf("transaction %d: %w", transactionID, ErrTransactionNotFound)
		}
		return Transaction{}, err
	}
	return txn, nil
}

func (r *txRepository) ListEntries(ctx context.Context, transactionID int64) ([]Entry, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, transaction_id, account_id, project_id, debit::text, credit::text, amount::text, description, created_at
FROM transaction_entries WHERE transaction_id=$1 ORDER BY id ASC`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var entry Entry
		var debit, credit, amount string
		if err := rows.Scan(&entry.ID, &entry.TransactionID, &entry.AccountID, &entry.ProjectID, &debit, &credit, &amount, &entry.Description, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if entry.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, err
		}
		if entry.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, err
		}
		if entry.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *txRepository) ListTransactions(ctx context.Context, organizationID *int64) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY date DESC, id DESC`
	args := []any{}
	if organizationID != nil {
		query = `SELECT ` + transactionColumns + ` FROM transactions WHERE organization_id=$1 ORDER BY date DESC, id DESC`
		args = append(args, *organizationID)
	}
	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txns []Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func (r *txRepository) UpdateStatus(ctx context.Context, transactionID int64, status TransactionStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE transactions SET status=$2, updated_at=NOW() WHERE id=$1`, transactionID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d: %w", transactionID, ErrTransactionNotFound)
	}
	return nil
}

func (r *txRepository) ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET current_balance = current_balance + $2::numeric, balance_date=$3, updated_at=NOW() WHERE id=$1`,
		accountID, delta.String(), at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", accountID, ErrAccountUnavailable)
	}
	return nil
}

func (r *txRepository) SumAmounts(ctx context.Context, filter AmountFilter) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount),0)::text FROM transactions WHERE status='POSTED'`
	args := []any{}
	idx := 1
	if filter.Type != nil {
		query += fmt.Sprintf(" AND type=$%d", idx)
		args = append(args, *filter.Type)
		idx++
	}
	if filter.FromOrganizationID != nil {
		query += fmt.Sprintf(" AND from_organization_id=$%d", idx)
		args = append(args, *filter.FromOrganizationID)
		idx++
	}
	if filter.ToOrganizationID != nil {
		query += fmt.Sprintf(" AND to_organization_id=$%d", idx)
		args = append(args, *filter.ToOrganizationID)
	}
	var raw string
	if err := r.tx.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var txn Transaction
	var amount string
	err := row.Scan(&txn.ID, &txn.Date, &txn.Reference, &txn.Description, &txn.Status, &txn.Type,
		&txn.OrganizationID, &txn.FromOrganizationID, &txn.ToOrganizationID, &amount, &txn.CreatedBy,
		&txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return Transaction{}, err
	}
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return Transaction{}, err
	}
	return txn, nil
}
