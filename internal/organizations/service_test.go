package organizations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Kashan-amd/modis/internal/shared"
)

type memoryOrganizationsRepo struct {
	organizations map[int64]*Organization
	references    map[int64]int64
	nextID        int64
}

func newMemoryOrganizationsRepo() *memoryOrganizationsRepo {
	return &memoryOrganizationsRepo{
		organizations: make(map[int64]*Organization),
		references:    make(map[int64]int64),
	}
}

func (r *memoryOrganizationsRepo) List(ctx context.Context) ([]Organization, error) {
	var out []Organization
	for _, o := range r.organizations {
		out = append(out, *o)
	}
	return out, nil
}

func (r *memoryOrganizationsRepo) Get(ctx context.Context, id int64) (Organization, error) {
	o, ok := r.organizations[id]
	if !ok {
		return Organization{}, ErrNotFound
	}
	return *o, nil
}

func (r *memoryOrganizationsRepo) Create(ctx context.Context, o Organization) (Organization, error) {
	for _, existing := range r.organizations {
		if existing.Code == o.Code {
			return Organization{}, ErrDuplicateCode
		}
	}
	r.nextID++
	o.ID = r.nextID
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	copied := o
	r.organizations[o.ID] = &copied
	return o, nil
}

func (r *memoryOrganizationsRepo) Update(ctx context.Context, id int64, o Organization) error {
	stored, ok := r.organizations[id]
	if !ok {
		return ErrNotFound
	}
	stored.Code = o.Code
	stored.Name = o.Name
	stored.IsActive = o.IsActive
	return nil
}

func (r *memoryOrganizationsRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.organizations[id]; !ok {
		return ErrNotFound
	}
	delete(r.organizations, id)
	return nil
}

func (r *memoryOrganizationsRepo) CountReferences(ctx context.Context, id int64) (int64, error) {
	return r.references[id], nil
}

func TestCreateOrganization(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryOrganizationsRepo()
	svc := NewService(repo)

	created, err := svc.Create(ctx, Organization{Code: "OSC", Name: "Oil Services Co"})
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.NotZero(t, created.ID)

	_, err = svc.Create(ctx, Organization{Code: "OSC", Name: "Duplicate"})
	require.ErrorIs(t, err, ErrDuplicateCode)

	_, err = svc.Create(ctx, Organization{Code: "  ", Name: "Blank"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, Organization{Code: "X", Name: ""})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteOrganization(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryOrganizationsRepo()
	svc := NewService(repo)

	created, err := svc.Create(ctx, Organization{Code: "HO", Name: "Head Office"})
	require.NoError(t, err)

	t.Run("blocked while referenced", func(t *testing.T) {
		repo.references[created.ID] = 4
		err := svc.Delete(ctx, created.ID)
		require.ErrorIs(t, err, ErrInUse)
		require.ErrorIs(t, err, shared.ErrConflict)
	})

	t.Run("removes unreferenced", func(t *testing.T) {
		repo.references[created.ID] = 0
		require.NoError(t, svc.Delete(ctx, created.ID))

		_, err := svc.Get(ctx, created.ID)
		require.ErrorIs(t, err, shared.ErrNotFound)
	})
}
