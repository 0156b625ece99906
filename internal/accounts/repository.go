package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Kashan-amd/modis/internal/platform/db"
)

const accountColumns = `id, number, name, type, organization_id, parent_id, level, is_parent, is_active,
opening_balance::text, current_balance::text, balance_date, created_at, updated_at`

// Repository persists chart-of-accounts entities.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional hierarchy operations.
type TxRepository interface {
	GetAccount(ctx context.Context, id int64) (Account, error)
	GetAccountForUpdate(ctx context.Context, id int64) (Account, error)
	FindByNumber(ctx context.Context, organizationID *int64, number string) (Account, error)
	ListChildren(ctx context.Context, parentID int64) ([]Account, error)
	CountChildren(ctx context.Context, parentID int64) (int, error)
	CountEntries(ctx context.Context, accountID int64) (int64, error)
	InsertAccount(ctx context.Context, account Account) (Account, error)
	UpdateAccount(ctx context.Context, account Account) error
	UpdateParent(ctx context.Context, id int64, parentID *int64, level int) error
	SetIsParent(ctx context.Context, id int64, isParent bool) error
	DeleteAccount(ctx context.Context, id int64) error
	ListByOrganization(ctx context.Context, organizationID *int64) ([]Account, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("accounts repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) GetAccount(ctx context.Context, id int64) (Account, error) {
	return r.scanOne(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, id int64) (Account, error) {
	return r.scanOne(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) FindByNumber(ctx context.Context, organizationID *int64, number string) (Account, error) {
	if organizationID == nil {
		return r.scanOne(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE organization_id IS NULL AND number=$1`, number))
	}
	return r.scanOne(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE organization_id=$1 AND number=$2`, *organizationID, number))
}

func (r *txRepository) ListChildren(ctx context.Context, parentID int64) ([]Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE parent_id=$1 ORDER BY number`, parentID)
	if err != nil {
		return nil, err
	}
	return scanAccounts(rows)
}

func (r *txRepository) CountChildren(ctx context.Context, parentID int64) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE parent_id=$1`, parentID).Scan(&count)
	return count, err
}

func (r *txRepository) CountEntries(ctx context.Context, accountID int64) (int64, error) {
	var count int64
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM transaction_entries WHERE account_id=$1`, accountID).Scan(&count)
	return count, err
}

func (r *txRepository) InsertAccount(ctx context.Context, a Account) (Account, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO accounts (number, name, type, organization_id, parent_id, level, is_parent, is_active, opening_balance, current_balance, balance_date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::numeric,$10::numeric,$11) RETURNING id, created_at, updated_at`,
		a.Number, a.Name, a.Type, a.OrganizationID, a.ParentID, a.Level, a.IsParent, a.IsActive,
		a.OpeningBalance.String(), a.CurrentBalance.String(), a.BalanceDate)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Account{}, mapConstraint(err)
	}
	return a, nil
}

func (r *txRepository) UpdateAccount(ctx context.Context, a Account) error {
	_, err := r.tx.Exec(ctx, `UPDATE accounts SET name=$2, is_active=$3, updated_at=NOW() WHERE id=$1`, a.ID, a.Name, a.IsActive)
	return err
}

func (r *txRepository) UpdateParent(ctx context.Context, id int64, parentID *int64, level int) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET parent_id=$2, level=$3, updated_at=NOW() WHERE id=$1`, id, parentID, level)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) SetIsParent(ctx context.Context, id int64, isParent bool) error {
	_, err := r.tx.Exec(ctx, `UPDATE accounts SET is_parent=$2, updated_at=NOW() WHERE id=$1`, id, isParent)
	return err
}

func (r *txRepository) DeleteAccount(ctx context.Context, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) ListByOrganization(ctx context.Context, organizationID *int64) ([]Account, error) {
	if organizationID == nil {
		rows, err := r.tx.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE organization_id IS NULL ORDER BY number`)
		if err != nil {
			return nil, err
		}
		return scanAccounts(rows)
	}
	rows, err := r.tx.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE organization_id=$1 OR organization_id IS NULL ORDER BY number`, *organizationID)
	if err != nil {
		return nil, err
	}
	return scanAccounts(rows)
}

func (r *txRepository) scanOne(row pgx.Row) (Account, error) {
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	var opening, current string
	err := row.Scan(&a.ID, &a.Number, &a.Name, &a.Type, &a.OrganizationID, &a.ParentID, &a.Level, &a.IsParent, &a.IsActive,
		&opening, &current, &a.BalanceDate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	if a.OpeningBalance, err = decimal.NewFromString(opening); err != nil {
		return Account{}, fmt.Errorf("accounts: opening balance: %w", err)
	}
	if a.CurrentBalance, err = decimal.NewFromString(current); err != nil {
		return Account{}, fmt.Errorf("accounts: current balance: %w", err)
	}
	return a, nil
}

func scanAccounts(rows pgx.Rows) ([]Account, error) {
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// mapConstraint converts the per-organization unique index violation into the
// domain duplicate error.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateNumber
	}
	return err
}
