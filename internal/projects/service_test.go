package projects

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Kashan-amd/modis/internal/shared"
)

type memoryProjectsRepo struct {
	projects map[int64]*Project
	entries  map[int64]int64
	costs    map[int64]decimal.Decimal
	nextID   int64
}

func newMemoryProjectsRepo() *memoryProjectsRepo {
	return &memoryProjectsRepo{
		projects: make(map[int64]*Project),
		entries:  make(map[int64]int64),
		costs:    make(map[int64]decimal.Decimal),
	}
}

func (r *memoryProjectsRepo) List(ctx context.Context, organizationID int64) ([]Project, error) {
	var out []Project
	for _, p := range r.projects {
		if p.OrganizationID == organizationID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memoryProjectsRepo) Get(ctx context.Context, id int64) (Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return *p, nil
}

func (r *memoryProjectsRepo) Create(ctx context.Context, p Project) (Project, error) {
	for _, existing := range r.projects {
		if existing.Code == p.Code && existing.OrganizationID == p.OrganizationID {
			return Project{}, ErrDuplicateCode
		}
	}
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	copied := p
	r.projects[p.ID] = &copied
	return p, nil
}

func (r *memoryProjectsRepo) Update(ctx context.Context, id int64, p Project) error {
	stored, ok := r.projects[id]
	if !ok {
		return ErrNotFound
	}
	stored.Code = p.Code
	stored.Name = p.Name
	stored.Budget = p.Budget
	stored.IsActive = p.IsActive
	return nil
}

func (r *memoryProjectsRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.projects[id]; !ok {
		return ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *memoryProjectsRepo) CountEntries(ctx context.Context, id int64) (int64, error) {
	return r.entries[id], nil
}

func (r *memoryProjectsRepo) SumPostedCost(ctx context.Context, id int64) (decimal.Decimal, error) {
	cost, ok := r.costs[id]
	if !ok {
		return decimal.Zero, nil
	}
	return cost, nil
}

func TestCreateProject(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryProjectsRepo()
	svc := NewService(repo)

	created, err := svc.Create(ctx, Project{Code: "SITE-A", Name: "Site A works", OrganizationID: 1, Budget: decimal.RequireFromString("5000")})
	require.NoError(t, err)
	require.True(t, created.IsActive)

	_, err = svc.Create(ctx, Project{Code: "SITE-A", Name: "Dup", OrganizationID: 1})
	require.ErrorIs(t, err, ErrDuplicateCode)

	_, err = svc.Create(ctx, Project{Code: "", Name: "Blank", OrganizationID: 1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, Project{Code: "B", Name: "Bad budget", OrganizationID: 1, Budget: decimal.RequireFromString("-1")})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteProject(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryProjectsRepo()
	svc := NewService(repo)

	created, err := svc.Create(ctx, Project{Code: "SITE-B", Name: "Site B", OrganizationID: 1})
	require.NoError(t, err)

	repo.entries[created.ID] = 3
	err = svc.Delete(ctx, created.ID)
	require.ErrorIs(t, err, ErrHasEntries)

	repo.entries[created.ID] = 0
	require.NoError(t, svc.Delete(ctx, created.ID))
}

func TestCost(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryProjectsRepo()
	svc := NewService(repo)

	created, err := svc.Create(ctx, Project{Code: "SITE-C", Name: "Site C", OrganizationID: 1, Budget: decimal.RequireFromString("1000")})
	require.NoError(t, err)
	repo.costs[created.ID] = decimal.RequireFromString("350.25")

	summary, err := svc.Cost(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, summary.Cost.Equal(decimal.RequireFromString("350.25")))
	require.True(t, summary.Remaining.Equal(decimal.RequireFromString("649.75")))

	_, err = svc.Cost(ctx, 999)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
