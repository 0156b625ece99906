package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const integrityConcurrency = 4

// LedgerIntegrityJob recomputes each account's balance from its opening
// balance plus the posted entry deltas and compares the result to the stored
// running balance. Drift is logged, never auto-corrected.
type LedgerIntegrityJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	clock  func() time.Time
}

// NewLedgerIntegrityJob wires dependencies for the integrity handler.
func NewLedgerIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{
		Pool:   pool,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes ledger integrity tasks.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	var payload LedgerIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	if payload.OrganizationID != nil {
		logger = logger.With(slog.Int64("organization_id", *payload.OrganizationID))
	}
	started := j.now()
	logger.Info("starting ledger integrity scan")

	ids, err := j.fetchAccountIDs(ctx, payload.OrganizationID)
	if err != nil {
		logger.Error("load accounts", slog.Any("error", err))
		return err
	}
	if len(ids) == 0 {
		logger.Info("no accounts to scan")
		return nil
	}

	var drifted atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(integrityConcurrency)
	for _, id := range ids {
		id := id
		group.Go(func() error {
			drift, err := j.checkAccount(groupCtx, id)
			if err != nil {
				return err
			}
			if drift != nil {
				drifted.Add(1)
				logger.Warn("balance drift detected",
					slog.Int64("account_id", id),
					slog.String("stored", drift.stored.String()),
					slog.String("computed", drift.computed.String()),
					slog.String("delta", drift.stored.Sub(drift.computed).String()),
				)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		logger.Error("integrity scan failed", slog.Any("error", err))
		return err
	}

	logger.Info("completed ledger integrity scan",
		slog.Int("accounts", len(ids)),
		slog.Int64("drifted", drifted.Load()),
		slog.Duration("duration", time.Since(started)),
	)
	return nil
}

type balanceDrift struct {
	stored   decimal.Decimal
	computed decimal.Decimal
}

func (j *LedgerIntegrityJob) checkAccount(ctx context.Context, accountID int64) (*balanceDrift, error) {
	var stored, computed string
	err := j.Pool.QueryRow(ctx, `SELECT a.current_balance::text,
(a.opening_balance + COALESCE((
	SELECT SUM(e.debit - e.credit)
	FROM transaction_entries e
	JOIN transactions t ON t.id = e.transaction_id
	WHERE e.account_id = a.id AND t.status = 'POSTED'
), 0) + COALESCE((
	SELECT SUM(p.debit - p.credit)
	FROM petty_cash_lines p
	WHERE p.account_id = a.id AND p.status = 'POSTED'
), 0))::text
FROM accounts a WHERE a.id = $1`, accountID).Scan(&stored, &computed)
	if err != nil {
		return nil, err
	}
	storedDec, err := decimal.NewFromString(stored)
	if err != nil {
		return nil, err
	}
	computedDec, err := decimal.NewFromString(computed)
	if err != nil {
		return nil, err
	}
	if storedDec.Equal(computedDec) {
		return nil, nil
	}
	return &balanceDrift{stored: storedDec, computed: computedDec}, nil
}

func (j *LedgerIntegrityJob) fetchAccountIDs(ctx context.Context, organizationID *int64) ([]int64, error) {
	query := `SELECT id FROM accounts ORDER BY id`
	args := []any{}
	if organizationID != nil {
		query = `SELECT id FROM accounts WHERE organization_id = $1 OR organization_id IS NULL ORDER BY id`
		args = append(args, *organizationID)
	}
	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (j *LedgerIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerIntegrity))
	}
	return slog.Default().With(slog.String("job", TaskLedgerIntegrity))
}

func (j *LedgerIntegrityJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
