package projects

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists projects and answers costing queries.
type Repository interface {
	List(ctx context.Context, organizationID int64) ([]Project, error)
	Get(ctx context.Context, id int64) (Project, error)
	Create(ctx context.Context, project Project) (Project, error)
	Update(ctx context.Context, id int64, project Project) error
	Delete(ctx context.Context, id int64) error
	CountEntries(ctx context.Context, id int64) (int64, error)
	SumPostedCost(ctx context.Context, id int64) (decimal.Decimal, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const projectColumns = `id, code, name, organization_id, budget::text, is_active, created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var (
		p      Project
		budget string
	)
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.OrganizationID, &budget, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Project{}, err
	}
	var err error
	p.Budget, err = decimal.NewFromString(budget)
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, organizationID int64) ([]Project, error) {
	rows, err := r.db.Query(ctx, `SELECT `+projectColumns+` FROM projects WHERE organization_id=$1 ORDER BY code`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Project, error) {
	p, err := scanProject(r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, p Project) (Project, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO projects (code, name, organization_id, budget, is_active)
VALUES ($1,$2,$3,$4::numeric,$5) RETURNING id, created_at, updated_at`,
		p.Code, p.Name, p.OrganizationID, p.Budget.String(), p.IsActive)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Project{}, mapConstraint(err)
	}
	return p, nil
}

func (r *repository) Update(ctx context.Context, id int64, p Project) error {
	cmd, err := r.db.Exec(ctx, `UPDATE projects SET code=$2, name=$3, budget=$4::numeric, is_active=$5, updated_at=NOW() WHERE id=$1`,
		id, p.Code, p.Name, p.Budget.String(), p.IsActive)
	if err != nil {
		return mapConstraint(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CountEntries(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transaction_entries WHERE project_id=$1`, id).Scan(&count)
	return count, err
}

func (r *repository) SumPostedCost(ctx context.Context, id int64) (decimal.Decimal, error) {
	var total string
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(e.debit - e.credit), 0)::text
FROM transaction_entries e
JOIN transactions t ON t.id = e.transaction_id
WHERE e.project_id = $1 AND t.status = 'POSTED'`, id).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(total)
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCode
	}
	return err
}
