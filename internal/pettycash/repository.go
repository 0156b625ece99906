package pettycash

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

const lineColumns = `id, reference, account_id, date, description, debit::text, credit::text, balance::text, status, created_by, created_at, updated_at`

// AccountState carries the account fields petty cash posting needs.
type AccountState struct {
	ID             int64
	IsActive       bool
	CurrentBalance decimal.Decimal
}

// Repository persists petty cash lines.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional petty cash operations.
type TxRepository interface {
	GetAccountForUpdate(ctx context.Context, accountID int64) (AccountState, error)
	InsertLine(ctx context.Context, line Line) (Line, error)
	GetLineForUpdate(ctx context.Context, lineID int64) (Line, error)
	UpdateLineStatus(ctx context.Context, lineID int64, status LineStatus) error
	ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal, at time.Time) error
	ListLines(ctx context.Context, accountID int64) ([]Line, error)
	SumPosted(ctx context.Context, accountID int64) (decimal.Decimal, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("pettycash repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, accountID int64) (AccountState, error) {
	var state AccountState
	var balance string
	err := r.tx.QueryRow(ctx, `SELECT id, is_active, current_balance::text FROM accounts WHERE id=$1 FOR UPDATE`, accountID).
		Scan(&state.ID, &state.IsActive, &balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountState{}, fmt.Errorf("account %d: %w", accountID, ErrAccountUnavailable)
		}
		return AccountState{}, err
	}
	if state.CurrentBalance, err = decimal.NewFromString(balance); err != nil {
		return AccountState{}, err
	}
	return state, nil
}

func (r *txRepository) InsertLine(ctx context.Context, line Line) (Line, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO petty_cash_lines (reference, account_id, date, description, debit, credit, balance, status, created_by)
VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric,$7::numeric,$8,$9) RETURNING id, created_at, updated_at`,
		line.Reference, line.AccountID, line.Date, line.Description,
		line.Debit.String(), line.Credit.String(), line.Balance.String(), line.Status, line.CreatedBy)
	if err := row.Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt); err != nil {
		return Line{}, err
	}
	return line, nil
}

func (r *txRepository) GetLineForUpdate(ctx context.Context, lineID int64) (Line, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+lineColumns+` FROM petty_cash_lines WHERE id=$1 FOR UPDATE`, lineID)
	line, err := scanLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Line{}, fmt.Errorf("line %d: %w", lineID, ErrLineNotFound)
		}
		return Line{}, err
	}
	return line, nil
}

func (r *txRepository) UpdateLineStatus(ctx context.Context, lineID int64, status LineStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE petty_cash_lines SET status=$2, updated_at=NOW() WHERE id=$1`, lineID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("line %d: %w", lineID, ErrLineNotFound)
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

func (r *txRepository) ListLines(ctx context.Context, accountID int64) ([]Line, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+lineColumns+` FROM petty_cash_lines WHERE account_id=$1 ORDER BY date DESC, id DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *txRepository) SumPosted(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	var raw string
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(debit - credit),0)::text FROM petty_cash_lines WHERE account_id=$1 AND status='POSTED'`, accountID).Scan(&raw)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

func scanLine(row pgx.Row) (Line, error) {
	var line Line
	var debit, credit, balance string
	err := row.Scan(&line.ID, &line.Reference, &line.AccountID, &line.Date, &line.Description,
		&debit, &credit, &balance, &line.Status, &line.CreatedBy, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return Line{}, err
	}
	if line.Debit, err = decimal.NewFromString(debit); err != nil {
		return Line{}, err
	}
	if line.Credit, err = decimal.NewFromString(credit); err != nil {
		return Line{}, err
	}
	if line.Balance, err = decimal.NewFromString(balance); err != nil {
		return Line{}, err
	}
	return line, nil
}
