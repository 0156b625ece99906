package organizations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists organizations.
type Repository interface {
	List(ctx context.Context) ([]Organization, error)
	Get(ctx context.Context, id int64) (Organization, error)
	Create(ctx context.Context, organization Organization) (Organization, error)
	Update(ctx context.Context, id int64, organization Organization) error
	Delete(ctx context.Context, id int64) error
	CountReferences(ctx context.Context, id int64) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Organization, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, is_active, created_at, updated_at FROM organizations ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var organizations []Organization
	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.ID, &o.Code, &o.Name, &o.IsActive, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		organizations = append(organizations, o)
	}
	return organizations, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Organization, error) {
	var o Organization
	err := r.db.QueryRow(ctx, `SELECT id, code, name, is_active, created_at, updated_at FROM organizations WHERE id=$1`, id).
		Scan(&o.ID, &o.Code, &o.Name, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, ErrNotFound
		}
		return Organization{}, err
	}
	return o, nil
}

func (r *repository) Create(ctx context.Context, o Organization) (Organization, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO organizations (code, name, is_active) VALUES ($1,$2,$3) RETURNING id, created_at, updated_at`,
		o.Code, o.Name, o.IsActive)
	if err := row.Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Organization{}, ErrDuplicateCode
		}
		return Organization{}, err
	}
	return o, nil
}

func (r *repository) Update(ctx context.Context, id int64, o Organization) error {
	cmd, err := r.db.Exec(ctx, `UPDATE organizations SET code=$2, name=$3, is_active=$4, updated_at=NOW() WHERE id=$1`,
		id, o.Code, o.Name, o.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCode
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM organizations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CountReferences(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT
(SELECT COUNT(*) FROM accounts WHERE organization_id=$1) +
(SELECT COUNT(*) FROM transactions WHERE organization_id=$1 OR from_organization_id=$1 OR to_organization_id=$1)`, id).
		Scan(&count)
	return count, err
}
