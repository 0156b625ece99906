package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Kashan-amd/modis/internal/shared"
)

type memoryAccountsRepo struct {
	accounts map[int64]*Account
	entries  map[int64]int64
	nextID   int64
}

func newMemoryAccountsRepo() *memoryAccountsRepo {
	return &memoryAccountsRepo{
		accounts: make(map[int64]*Account),
		entries:  make(map[int64]int64),
	}
}

func (r *memoryAccountsRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryAccountsRepo) GetAccount(ctx context.Context, id int64) (Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return *a, nil
}

func (r *memoryAccountsRepo) GetAccountForUpdate(ctx context.Context, id int64) (Account, error) {
	return r.GetAccount(ctx, id)
}

func (r *memoryAccountsRepo) FindByNumber(ctx context.Context, organizationID *int64, number string) (Account, error) {
	for _, a := range r.accounts {
		if a.Number != number {
			continue
		}
		if organizationID == nil && a.OrganizationID == nil {
			return *a, nil
		}
		if organizationID != nil && a.OrganizationID != nil && *organizationID == *a.OrganizationID {
			return *a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (r *memoryAccountsRepo) ListChildren(ctx context.Context, parentID int64) ([]Account, error) {
	var children []Account
	for _, a := range r.accounts {
		if a.ParentID != nil && *a.ParentID == parentID {
			children = append(children, *a)
		}
	}
	return children, nil
}

func (r *memoryAccountsRepo) CountChildren(ctx context.Context, parentID int64) (int, error) {
	children, _ := r.ListChildren(ctx, parentID)
	return len(children), nil
}

func (r *memoryAccountsRepo) CountEntries(ctx context.Context, accountID int64) (int64, error) {
	return r.entries[accountID], nil
}

func (r *memoryAccountsRepo) InsertAccount(ctx context.Context, a Account) (Account, error) {
	r.nextID++
	a.ID = r.nextID
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	copied := a
	r.accounts[a.ID] = &copied
	return a, nil
}

func (r *memoryAccountsRepo) UpdateAccount(ctx context.Context, a Account) error {
	stored, ok := r.accounts[a.ID]
	if !ok {
		return ErrAccountNotFound
	}
	stored.Name = a.Name
	stored.IsActive = a.IsActive
	return nil
}

func (r *memoryAccountsRepo) UpdateParent(ctx context.Context, id int64, parentID *int64, level int) error {
	stored, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	stored.ParentID = parentID
	stored.Level = level
	return nil
}

func (r *memoryAccountsRepo) SetIsParent(ctx context.Context, id int64, isParent bool) error {
	stored, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	stored.IsParent = isParent
	return nil
}

func (r *memoryAccountsRepo) DeleteAccount(ctx context.Context, id int64) error {
	if _, ok := r.accounts[id]; !ok {
		return ErrAccountNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r *memoryAccountsRepo) ListByOrganization(ctx context.Context, organizationID *int64) ([]Account, error) {
	var out []Account
	for _, a := range r.accounts {
		if a.OrganizationID == nil {
			out = append(out, *a)
			continue
		}
		if organizationID != nil && *a.OrganizationID == *organizationID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func newTestService(repo *memoryAccountsRepo) *Service {
	svc := NewService(repo, nil)
	svc.WithNow(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) })
	return svc
}

func TestCreateHead(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryAccountsRepo()
	svc := newTestService(repo)

	head, err := svc.CreateHead(ctx, CreateHeadInput{
		Number:         " 1000 ",
		Name:           "Cash",
		Type:           AccountTypeAsset,
		OpeningBalance: decimal.RequireFromString("250"),
		ActorID:        7,
	})
	require.NoError(t, err)
	require.Equal(t, "1000", head.Number)
	require.Equal(t, 0, head.Level)
	require.False(t, head.IsParent)
	require.True(t, head.CurrentBalance.Equal(decimal.RequireFromString("250")))

	_, err = svc.CreateHead(ctx, CreateHeadInput{Number: "1000-1", Name: "Bad", Type: AccountTypeAsset, ActorID: 7})
	require.ErrorIs(t, err, ErrHeadHasSeparator)

	_, err = svc.CreateHead(ctx, CreateHeadInput{Number: "1000", Name: "Dup", Type: AccountTypeAsset, ActorID: 7})
	require.ErrorIs(t, err, ErrDuplicateNumber)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateSub(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryAccountsRepo()
	svc := newTestService(repo)

	org := int64(3)
	head, err := svc.CreateHead(ctx, CreateHeadInput{Number: "1000", Name: "Cash", Type: AccountTypeAsset, OrganizationID: &org, ActorID: 7})
	require.NoError(t, err)

	first, err := svc.CreateSub(ctx, CreateSubInput{ParentID: head.ID, Name: "Petty cash", ActorID: 7})
	require.NoError(t, err)
	require.Equal(t, "1000-1", first.Number)
	require.Equal(t, 1, first.Level)
	require.Equal(t, AccountTypeAsset, first.Type)
	require.NotNil(t, first.OrganizationID)
	require.Equal(t, org, *first.OrganizationID)

	parent, err := svc.Get(ctx, head.ID)
	require.NoError(t, err)
	require.True(t, parent.IsParent)

	second, err := svc.CreateSub(ctx, CreateSubInput{ParentID: head.ID, Name: "Bank", ActorID: 7})
	require.NoError(t, err)
	require.Equal(t, "1000-2", second.Number)

	explicit := "1000-9"
	third, err := svc.CreateSub(ctx, CreateSubInput{ParentID: head.ID, Number: &explicit, Name: "Savings", ActorID: 7})
	require.NoError(t, err)
	require.Equal(t, "1000-9", third.Number)

	wrong := "2000-1"
	_, err = svc.CreateSub(ctx, CreateSubInput{ParentID: head.ID, Number: &wrong, Name: "Nope", ActorID: 7})
	require.ErrorIs(t, err, ErrSubNumberMismatch)
}

func TestSetParent(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryAccountsRepo()
	svc := newTestService(repo)

	head, err := svc.CreateHead(ctx, CreateHeadInput{Number: "1000", Name: "Assets", Type: AccountTypeAsset, ActorID: 1})
	require.NoError(t, err)
	child, err := svc.CreateSub(ctx, CreateSubInput{ParentID: head.ID, Name: "Current", ActorID: 1})
	require.NoError(t, err)
	grandchild, err := svc.CreateSub(ctx, CreateSubInput{ParentID: child.ID, Name: "Cash", ActorID: 1})
	require.NoError(t, err)

	t.Run("self parent rejected", func(t *testing.T) {
		id := child.ID
		err := svc.SetParent(ctx, child.ID, &id, 1)
		require.ErrorIs(t, err, ErrSelfParent)
	})

	t.Run("descendant parent rejected", func(t *testing.T) {
		id := grandchild.ID
		err := svc.SetParent(ctx, child.ID, &id, 1)
		require.ErrorIs(t, err, ErrDescendantParent)
		require.ErrorIs(t, err, shared.ErrCycle)
	})

	t.Run("move to root relevels subtree", func(t *testing.T) {
		err := svc.SetParent(ctx, child.ID, nil, 1)
		require.NoError(t, err)

		moved, err := svc.Get(ctx, child.ID)
		require.NoError(t, err)
		require.Nil(t, moved.ParentID)
		require.Equal(t, 0, moved.Level)

		leaf, err := svc.Get(ctx, grandchild.ID)
		require.NoError(t, err)
		require.Equal(t, 1, leaf.Level)

		former, err := svc.Get(ctx, head.ID)
		require.NoError(t, err)
		require.False(t, former.IsParent)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryAccountsRepo()
	svc := newTestService(repo)

	head, err := svc.CreateHead(ctx, CreateHeadInput{Number: "1000", Name: "Assets", Type: AccountTypeAsset, ActorID: 1})
	require.NoError(t, err)
	child, err := svc.CreateSub(ctx, CreateSubInput{ParentID: head.ID, Name: "Cash", ActorID: 1})
	require.NoError(t, err)

	t.Run("blocked by children", func(t *testing.T) {
		err := svc.Delete(ctx, head.ID, 1)
		require.ErrorIs(t, err, ErrHasChildren)
	})

	t.Run("blocked by entries", func(t *testing.T) {
		repo.entries[child.ID] = 2
		err := svc.Delete(ctx, child.ID, 1)
		require.ErrorIs(t, err, ErrHasEntries)
		require.ErrorIs(t, err, shared.ErrConflict)
		repo.entries[child.ID] = 0
	})

	t.Run("deleting last child clears parent flag", func(t *testing.T) {
		err := svc.Delete(ctx, child.ID, 1)
		require.NoError(t, err)

		former, err := svc.Get(ctx, head.ID)
		require.NoError(t, err)
		require.False(t, former.IsParent)

		_, err = svc.Get(ctx, child.ID)
		require.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestBuildTree(t *testing.T) {
	one := int64(1)
	accounts := []Account{
		{ID: 2, Number: "1000-2", ParentID: &one},
		{ID: 1, Number: "1000"},
		{ID: 3, Number: "1000-1", ParentID: &one},
		{ID: 4, Number: "2000"},
	}
	roots := BuildTree(accounts)
	require.Len(t, roots, 2)
	require.Equal(t, "1000", roots[0].Number)
	require.Equal(t, "2000", roots[1].Number)
	require.Len(t, roots[0].Children, 2)
	require.Equal(t, "1000-1", roots[0].Children[0].Number)
	require.Equal(t, "1000-2", roots[0].Children[1].Number)
}

func TestBuildTreeOrphanParentSurfacesAsRoot(t *testing.T) {
	missing := int64(99)
	roots := BuildTree([]Account{{ID: 5, Number: "3000-1", ParentID: &missing}})
	require.Len(t, roots, 1)
	require.Equal(t, "3000-1", roots[0].Number)
}
