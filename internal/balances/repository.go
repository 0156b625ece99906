package balances

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed balance repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetOpeningBalance(ctx context.Context, organizationID int64) (OpeningBalance, error) {
	var ob OpeningBalance
	var amount string
	err := r.pool.QueryRow(ctx, `SELECT id, organization_id, amount::text, side, date, created_at, updated_at
FROM opening_balances WHERE organization_id=$1`, organizationID).
		Scan(&ob.ID, &ob.OrganizationID, &amount, &ob.Side, &ob.Date, &ob.CreatedAt, &ob.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OpeningBalance{}, ErrOpeningNotFound
		}
		return OpeningBalance{}, err
	}
	if ob.Amount, err = decimal.NewFromString(amount); err != nil {
		return OpeningBalance{}, err
	}
	return ob, nil
}

func (r *repository) UpsertOpeningBalance(ctx context.Context, ob OpeningBalance) (OpeningBalance, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO opening_balances (organization_id, amount, side, date)
VALUES ($1,$2::numeric,$3,$4)
ON CONFLICT (organization_id) DO UPDATE SET amount=EXCLUDED.amount, side=EXCLUDED.side, date=EXCLUDED.date, updated_at=NOW()
RETURNING id, created_at, updated_at`, ob.OrganizationID, ob.Amount.String(), ob.Side, ob.Date)
	if err := row.Scan(&ob.ID, &ob.CreatedAt, &ob.UpdatedAt); err != nil {
		return OpeningBalance{}, err
	}
	return ob, nil
}

func (r *repository) SentTotals(ctx context.Context, organizationID int64) (TypeTotals, error) {
	return r.sumByType(ctx, `SELECT type, COALESCE(SUM(amount),0)::text FROM transactions
WHERE status='POSTED' AND from_organization_id=$1 GROUP BY type`, organizationID)
}

func (r *repository) ReceivedTotals(ctx context.Context, organizationID int64) (TypeTotals, error) {
	return r.sumByType(ctx, `SELECT type, COALESCE(SUM(amount),0)::text FROM transactions
WHERE status='POSTED' AND to_organization_id=$1 GROUP BY type`, organizationID)
}

func (r *repository) sumByType(ctx context.Context, query string, organizationID int64) (TypeTotals, error) {
	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return TypeTotals{}, err
	}
	defer rows.Close()
	totals := ZeroTotals()
	for rows.Next() {
		var transactionType, raw string
		if err := rows.Scan(&transactionType, &raw); err != nil {
			return TypeTotals{}, err
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return TypeTotals{}, err
		}
		switch transactionType {
		case "FUND":
			totals.Fund = totals.Fund.Add(amount)
		case "LOAN":
			totals.Loan = totals.Loan.Add(amount)
		case "RETURN":
			totals.Return = totals.Return.Add(amount)
		}
		totals.Total = totals.Total.Add(amount)
	}
	return totals, rows.Err()
}
