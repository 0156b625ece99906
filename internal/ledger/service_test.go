package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Kashan-amd/modis/internal/shared"
)

type memoryLedgerRepo struct {
	accounts     map[int64]*AccountState
	balances     map[int64]decimal.Decimal
	transactions map[int64]*Transaction
	entries      map[int64][]Entry
	nextTxnID    int64
	nextEntryID  int64
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{
		accounts:     make(map[int64]*AccountState),
		balances:     make(map[int64]decimal.Decimal),
		transactions: make(map[int64]*Transaction),
		entries:      make(map[int64][]Entry),
	}
}

func (r *memoryLedgerRepo) addAccount(id int64, active bool) {
	r.accounts[id] = &AccountState{ID: id, IsActive: active}
	r.balances[id] = decimal.Zero
}

func (r *memoryLedgerRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryLedgerRepo) GetAccountState(ctx context.Context, accountID int64) (AccountState, error) {
	state, ok := r.accounts[accountID]
	if !ok {
		return AccountState{}, ErrAccountUnavailable
	}
	return *state, nil
}

func (r *memoryLedgerRepo) InsertTransaction(ctx context.Context, in PostingInput, status TransactionStatus, amount decimal.Decimal) (Transaction, error) {
	r.nextTxnID++
	txn := Transaction{
		ID:                 r.nextTxnID,
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
		CreatedAt:          time.Now(),
	}
	copied := txn
	r.transactions[txn.ID] = &copied
	return txn, nil
}

func (r *memoryLedgerRepo) InsertEntries(ctx context.Context, transactionID int64, inputs []EntryInput) ([]Entry, error) {
	out := make([]Entry, 0, len(inputs))
	for _, in := range inputs {
		r.nextEntryID++
		entry := Entry{
			ID:            r.nextEntryID,
			TransactionID: transactionID,
			AccountID:     in.AccountID,
			ProjectID:     in.ProjectID,
			Debit:         in.Debit,
			Credit:        in.Credit,
			Amount:        in.Debit.Sub(in.Credit),
			Description:   in.Description,
		}
		out = append(out, entry)
	}
	r.entries[transactionID] = append(r.entries[transactionID], out...)
	return out, nil
}

func (r *memoryLedgerRepo) GetTransactionForUpdate(ctx context.Context, transactionID int64) (Transaction, error) {
	txn, ok := r.transactions[transactionID]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return *txn, nil
}

func (r *memoryLedgerRepo) ListEntries(ctx context.Context, transactionID int64) ([]Entry, error) {
	return r.entries[transactionID], nil
}

func (r *memoryLedgerRepo) ListTransactions(ctx context.Context, organizationID *int64) ([]Transaction, error) {
	var out []Transaction
	for _, txn := range r.transactions {
		out = append(out, *txn)
	}
	return out, nil
}

func (r *memoryLedgerRepo) UpdateStatus(ctx context.Context, transactionID int64, status TransactionStatus) error {
	txn, ok := r.transactions[transactionID]
	if !ok {
		return ErrTransactionNotFound
	}
	txn.Status = status
	return nil
}

func (r *memoryLedgerRepo) ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal, at time.Time) error {
	if _, ok := r.balances[accountID]; !ok {
		return ErrAccountUnavailable
	}
	r.balances[accountID] = r.balances[accountID].Add(delta)
	return nil
}

func (r *memoryLedgerRepo) SumAmounts(ctx context.Context, filter AmountFilter) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, txn := range r.transactions {
		if txn.Status != StatusPosted {
			continue
		}
		if filter.Type != nil && txn.Type != *filter.Type {
			continue
		}
		if filter.FromOrganizationID != nil {
			if txn.FromOrganizationID == nil || *txn.FromOrganizationID != *filter.FromOrganizationID {
				continue
			}
		}
		if filter.ToOrganizationID != nil {
			if txn.ToOrganizationID == nil || *txn.ToOrganizationID != *filter.ToOrganizationID {
				continue
			}
		}
		sum = sum.Add(txn.Amount)
	}
	return sum, nil
}

type countingInvalidator struct {
	bumps int
}

func (c *countingInvalidator) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}

func newTestLedger(t *testing.T) (*Service, *memoryLedgerRepo, *countingInvalidator) {
	t.Helper()
	repo := newMemoryLedgerRepo()
	repo.addAccount(10, true)
	repo.addAccount(20, true)
	repo.addAccount(30, false)
	invalidator := &countingInvalidator{}
	svc := NewService(repo, nil, invalidator)
	svc.WithNow(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) })
	return svc, repo, invalidator
}

func balancedInput(amount string) PostingInput {
	value := decimal.RequireFromString(amount)
	return PostingInput{
		Date:        time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
		Reference:   "TX-100",
		Description: "Office supplies",
		Type:        TypeJournal,
		ActorID:     7,
		Entries: []EntryInput{
			{AccountID: 10, Debit: value},
			{AccountID: 20, Credit: value},
		},
	}
}

func TestPostingInputValidate(t *testing.T) {
	t.Run("balanced input passes", func(t *testing.T) {
		require.NoError(t, balancedInput("100").Validate())
	})

	t.Run("missing actor", func(t *testing.T) {
		in := balancedInput("100")
		in.ActorID = 0
		require.ErrorIs(t, in.Validate(), ErrActorRequired)
	})

	t.Run("unknown type", func(t *testing.T) {
		in := balancedInput("100")
		in.Type = "TRANSFER"
		require.ErrorIs(t, in.Validate(), ErrInvalidType)
	})

	t.Run("single entry", func(t *testing.T) {
		in := balancedInput("100")
		in.Entries = in.Entries[:1]
		require.ErrorIs(t, in.Validate(), ErrTooFewEntries)
	})

	t.Run("unbalanced", func(t *testing.T) {
		in := balancedInput("100")
		in.Entries[1].Credit = decimal.RequireFromString("99.99")
		require.ErrorIs(t, in.Validate(), ErrUnbalanced)
	})

	t.Run("entry on both sides", func(t *testing.T) {
		in := balancedInput("100")
		in.Entries[0].Credit = decimal.RequireFromString("1")
		in.Entries[1].Credit = decimal.RequireFromString("101")
		err := in.Validate()
		require.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("negative amount", func(t *testing.T) {
		in := balancedInput("100")
		in.Entries[0].Debit = decimal.RequireFromString("-5")
		require.ErrorIs(t, in.Validate(), shared.ErrValidation)
	})
}

func TestCreatePosted(t *testing.T) {
	ctx := context.Background()
	svc, repo, invalidator := newTestLedger(t)

	txn, err := svc.Create(ctx, balancedInput("150"))
	require.NoError(t, err)
	require.Equal(t, StatusPosted, txn.Status)
	require.True(t, txn.Amount.Equal(decimal.RequireFromString("150")))
	require.Len(t, txn.Entries, 2)

	require.True(t, repo.balances[10].Equal(decimal.RequireFromString("150")))
	require.True(t, repo.balances[20].Equal(decimal.RequireFromString("-150")))
	require.Equal(t, 1, invalidator.bumps)
}

func TestCreateDraftDefersBalances(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestLedger(t)

	in := balancedInput("80")
	in.Draft = true
	txn, err := svc.Create(ctx, in)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, txn.Status)
	require.True(t, repo.balances[10].IsZero())
	require.True(t, repo.balances[20].IsZero())

	posted, err := svc.PostDraft(ctx, txn.ID, 7)
	require.NoError(t, err)
	require.Equal(t, StatusPosted, posted.Status)
	require.True(t, repo.balances[10].Equal(decimal.RequireFromString("80")))

	_, err = svc.PostDraft(ctx, txn.ID, 7)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCreateRejectsInactiveAccount(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger(t)

	in := balancedInput("50")
	in.Entries[1].AccountID = 30
	_, err := svc.Create(ctx, in)
	require.ErrorIs(t, err, ErrAccountUnavailable)
	require.ErrorIs(t, err, shared.ErrReference)
}

func TestVoid(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestLedger(t)

	txn, err := svc.Create(ctx, balancedInput("200"))
	require.NoError(t, err)

	voided, err := svc.Void(ctx, VoidInput{TransactionID: txn.ID, ActorID: 7, Reason: "entered twice"})
	require.NoError(t, err)
	require.Equal(t, StatusVoid, voided.Status)

	require.True(t, repo.balances[10].IsZero())
	require.True(t, repo.balances[20].IsZero())
	require.Len(t, repo.entries[txn.ID], 2)

	_, err = svc.Void(ctx, VoidInput{TransactionID: txn.ID, ActorID: 7})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestReverse(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestLedger(t)

	original, err := svc.Create(ctx, balancedInput("300"))
	require.NoError(t, err)

	reversal, err := svc.Reverse(ctx, ReverseInput{TransactionID: original.ID, ActorID: 7})
	require.NoError(t, err)
	require.Equal(t, StatusPosted, reversal.Status)
	require.Equal(t, "Reversal of TX-100", reversal.Reference)
	require.Equal(t, "Reversal of transaction #1 - Office supplies", reversal.Description)

	require.Len(t, reversal.Entries, 2)
	require.True(t, reversal.Entries[0].Credit.Equal(decimal.RequireFromString("300")))
	require.True(t, reversal.Entries[0].Amount.Equal(decimal.RequireFromString("-300")))
	require.True(t, reversal.Entries[1].Debit.Equal(decimal.RequireFromString("300")))

	require.True(t, repo.balances[10].IsZero())
	require.True(t, repo.balances[20].IsZero())

	stored, err := svc.Get(ctx, original.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPosted, stored.Status)
}

func TestReverseOverrides(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger(t)

	from, to := int64(1), int64(2)
	in := balancedInput("120")
	in.Type = TypeFund
	in.FromOrganizationID = &from
	in.ToOrganizationID = &to
	original, err := svc.Create(ctx, in)
	require.NoError(t, err)

	ref := "REV-9"
	desc := "manual correction"
	reversal, err := svc.Reverse(ctx, ReverseInput{TransactionID: original.ID, ActorID: 7, Reference: &ref, Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "REV-9", reversal.Reference)
	require.Equal(t, "manual correction", reversal.Description)
	require.Equal(t, to, *reversal.FromOrganizationID)
	require.Equal(t, from, *reversal.ToOrganizationID)
}

func TestReverseRequiresPosted(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger(t)

	in := balancedInput("40")
	in.Draft = true
	draft, err := svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, ReverseInput{TransactionID: draft.ID, ActorID: 7})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSumAmounts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger(t)

	from, to := int64(1), int64(2)
	fund := balancedInput("100")
	fund.Type = TypeFund
	fund.FromOrganizationID = &from
	fund.ToOrganizationID = &to
	_, err := svc.Create(ctx, fund)
	require.NoError(t, err)

	loan := balancedInput("60")
	loan.Type = TypeLoan
	loan.FromOrganizationID = &from
	loan.ToOrganizationID = &to
	_, err = svc.Create(ctx, loan)
	require.NoError(t, err)

	fundType := TypeFund
	sum, err := svc.SumAmounts(ctx, AmountFilter{Type: &fundType, FromOrganizationID: &from})
	require.NoError(t, err)
	require.True(t, sum.Equal(decimal.RequireFromString("100")))

	sum, err = svc.SumAmounts(ctx, AmountFilter{FromOrganizationID: &from})
	require.NoError(t, err)
	require.True(t, sum.Equal(decimal.RequireFromString("160")))
}
