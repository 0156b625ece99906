package balances

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryBalancesRepo struct {
	openings     map[int64]OpeningBalance
	sent         map[int64]TypeTotals
	received     map[int64]TypeTotals
	computeCalls int
}

func newMemoryBalancesRepo() *memoryBalancesRepo {
	return &memoryBalancesRepo{
		openings: make(map[int64]OpeningBalance),
		sent:     make(map[int64]TypeTotals),
		received: make(map[int64]TypeTotals),
	}
}

func (r *memoryBalancesRepo) GetOpeningBalance(ctx context.Context, organizationID int64) (OpeningBalance, error) {
	opening, ok := r.openings[organizationID]
	if !ok {
		return OpeningBalance{}, ErrOpeningNotFound
	}
	return opening, nil
}

func (r *memoryBalancesRepo) UpsertOpeningBalance(ctx context.Context, balance OpeningBalance) (OpeningBalance, error) {
	balance.ID = int64(len(r.openings) + 1)
	r.openings[balance.OrganizationID] = balance
	return balance, nil
}

func (r *memoryBalancesRepo) SentTotals(ctx context.Context, organizationID int64) (TypeTotals, error) {
	r.computeCalls++
	totals, ok := r.sent[organizationID]
	if !ok {
		return ZeroTotals(), nil
	}
	return totals, nil
}

func (r *memoryBalancesRepo) ReceivedTotals(ctx context.Context, organizationID int64) (TypeTotals, error) {
	totals, ok := r.received[organizationID]
	if !ok {
		return ZeroTotals(), nil
	}
	return totals, nil
}

func totals(fund, loan, ret string) TypeTotals {
	f := decimal.RequireFromString(fund)
	l := decimal.RequireFromString(loan)
	r := decimal.RequireFromString(ret)
	return TypeTotals{Fund: f, Loan: l, Return: r, Total: f.Add(l).Add(r)}
}

func TestSetOpening(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryBalancesRepo()
	svc := NewService(repo, NewCache(nil, time.Minute), nil)

	saved, err := svc.SetOpening(ctx, SetOpeningInput{
		OrganizationID: 1,
		Amount:         decimal.RequireFromString("1000"),
		Side:           SideCredit,
		ActorID:        7,
	})
	require.NoError(t, err)
	require.Equal(t, SideCredit, saved.Side)
	require.False(t, saved.Date.IsZero())

	_, err = svc.SetOpening(ctx, SetOpeningInput{OrganizationID: 1, Amount: decimal.NewFromInt(5), Side: "LEFT", ActorID: 7})
	require.ErrorIs(t, err, ErrInvalidSide)

	_, err = svc.SetOpening(ctx, SetOpeningInput{OrganizationID: 1, Amount: decimal.RequireFromString("-1"), Side: SideDebit, ActorID: 7})
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestOrganizationBalance(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryBalancesRepo()
	svc := NewService(repo, NewCache(nil, time.Minute), nil)

	repo.sent[1] = totals("200", "0", "0")
	repo.received[1] = totals("300", "150", "50")

	t.Run("credit opening adds", func(t *testing.T) {
		repo.openings[1] = OpeningBalance{OrganizationID: 1, Amount: decimal.RequireFromString("1000"), Side: SideCredit}

		balance, err := svc.OrganizationBalance(ctx, 1)
		require.NoError(t, err)
		require.True(t, balance.TransactionBalance.Equal(decimal.RequireFromString("300")))
		require.True(t, balance.FinalBalance.Equal(decimal.RequireFromString("1300")))
		require.Equal(t, SideCredit, balance.OpeningSide)
	})

	t.Run("debit opening subtracts", func(t *testing.T) {
		repo.openings[1] = OpeningBalance{OrganizationID: 1, Amount: decimal.RequireFromString("1000"), Side: SideDebit}

		balance, err := svc.OrganizationBalance(ctx, 1)
		require.NoError(t, err)
		require.True(t, balance.FinalBalance.Equal(decimal.RequireFromString("-700")))
	})

	t.Run("missing opening tolerated", func(t *testing.T) {
		delete(repo.openings, 1)

		balance, err := svc.OrganizationBalance(ctx, 1)
		require.NoError(t, err)
		require.True(t, balance.OpeningAmount.IsZero())
		require.True(t, balance.FinalBalance.Equal(decimal.RequireFromString("300")))
	})
}

func TestOrganizationBalanceCaching(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryBalancesRepo()
	repo.sent[1] = totals("200", "0", "0")
	repo.received[1] = totals("500", "0", "0")
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache, nil)

	first, err := svc.OrganizationBalance(ctx, 1)
	require.NoError(t, err)
	require.True(t, first.FinalBalance.Equal(decimal.RequireFromString("300")))
	require.Equal(t, 1, repo.computeCalls)

	second, err := svc.OrganizationBalance(ctx, 1)
	require.NoError(t, err)
	require.True(t, second.FinalBalance.Equal(first.FinalBalance))
	require.Equal(t, 1, repo.computeCalls)

	require.NoError(t, cache.Bump(ctx))

	repo.received[1] = totals("900", "0", "0")
	third, err := svc.OrganizationBalance(ctx, 1)
	require.NoError(t, err)
	require.True(t, third.FinalBalance.Equal(decimal.RequireFromString("700")))
	require.Equal(t, 2, repo.computeCalls)
}
