package accounts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kashan-amd/modis/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AuditPort records hierarchy events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service maintains the chart-of-accounts tree.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the hierarchy service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateHeadInput groups fields for a level-0 account.
type CreateHeadInput struct {
	Number         string
	Name           string
	Type           AccountType
	OrganizationID *int64
	OpeningBalance decimal.Decimal
	ActorID        int64
}

// CreateSubInput groups fields for a child account. When Number is nil the
// next `<parent>-<sequence>` number is derived from the existing children.
type CreateSubInput struct {
	ParentID int64
	Number   *string
	Name     string
	Type     *AccountType
	ActorID  int64
}

// CreateHead creates a top-level account. The number must not contain the
// hierarchy separator.
func (s *Service) CreateHead(ctx context.Context, input CreateHeadInput) (Account, error) {
	number := StandardizeNumber(input.Number)
	if number == "" {
		return Account{}, ErrNumberRequired
	}
	if IsSubNumber(number) {
		return Account{}, ErrHeadHasSeparator
	}
	if input.Name == "" {
		return Account{}, ErrNameRequired
	}
	if !input.Type.Valid() {
		return Account{}, ErrInvalidType
	}
	var created Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := ensureNumberFree(ctx, tx, input.OrganizationID, number); err != nil {
			return err
		}
		var err error
		created, err = tx.InsertAccount(ctx, Account{
			Number:         number,
			Name:           input.Name,
			Type:           input.Type,
			OrganizationID: input.OrganizationID,
			Level:          0,
			IsActive:       true,
			OpeningBalance: input.OpeningBalance,
			CurrentBalance: input.OpeningBalance,
		})
		return err
	})
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, input.ActorID, "account.create_head", created.ID, map[string]any{"number": created.Number})
	return created, nil
}

// CreateSub creates a child account under parent, marking the parent as a
// parent node in the same unit of work.
func (s *Service) CreateSub(ctx context.Context, input CreateSubInput) (Account, error) {
	if input.Name == "" {
		return Account{}, ErrNameRequired
	}
	if input.Type != nil && !input.Type.Valid() {
		return Account{}, ErrInvalidType
	}
	var created Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		parent, err := tx.GetAccountForUpdate(ctx, input.ParentID)
		if err != nil {
			return err
		}
		number := ""
		if input.Number != nil {
			number = StandardizeNumber(*input.Number)
			if _, ok := suffixSequence(number, parent.Number); !ok {
				return ErrSubNumberMismatch
			}
		} else {
			siblings, err := tx.ListChildren(ctx, parent.ID)
			if err != nil {
				return err
			}
			numbers := make([]string, 0, len(siblings))
			for _, sibling := range siblings {
				numbers = append(numbers, sibling.Number)
			}
			number = NextSubNumber(parent.Number, numbers)
		}
		if err := ensureNumberFree(ctx, tx, parent.OrganizationID, number); err != nil {
			return err
		}
		accountType := parent.Type
		if input.Type != nil {
			accountType = *input.Type
		}
		parentID := parent.ID
		created, err = tx.InsertAccount(ctx, Account{
			Number:         number,
			Name:           input.Name,
			Type:           accountType,
			OrganizationID: parent.OrganizationID,
			ParentID:       &parentID,
			Level:          parent.Level + 1,
			IsActive:       true,
		})
		if err != nil {
			return err
		}
		if !parent.IsParent {
			return tx.SetIsParent(ctx, parent.ID, true)
		}
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, input.ActorID, "account.create_sub", created.ID, map[string]any{"number": created.Number, "parent_id": input.ParentID})
	return created, nil
}

// SetParent moves an account under a new parent (or to the root when nil).
// Fails on self-parenting and on cycles, recomputes levels for the moved
// subtree, and maintains both parents' is_parent flags.
func (s *Service) SetParent(ctx context.Context, accountID int64, newParentID *int64, actorID int64) error {
	if newParentID != nil && *newParentID == accountID {
		return ErrSelfParent
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		level := 0
		if newParentID != nil {
			parent, err := tx.GetAccountForUpdate(ctx, *newParentID)
			if err != nil {
				return err
			}
			if err := ensureNotDescendant(ctx, tx, accountID, parent); err != nil {
				return err
			}
			level = parent.Level + 1
		}
		if err := tx.UpdateParent(ctx, accountID, newParentID, level); err != nil {
			return err
		}
		if err := relevelChildren(ctx, tx, accountID, level); err != nil {
			return err
		}
		if newParentID != nil {
			if err := tx.SetIsParent(ctx, *newParentID, true); err != nil {
				return err
			}
		}
		if account.ParentID != nil && (newParentID == nil || *account.ParentID != *newParentID) {
			remaining, err := tx.CountChildren(ctx, *account.ParentID)
			if err != nil {
				return err
			}
			if remaining == 0 {
				return tx.SetIsParent(ctx, *account.ParentID, false)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "account.set_parent", accountID, map[string]any{"parent_id": newParentID})
	return nil
}

// Delete removes an account. Blocked while transaction entries or sub-accounts
// still reference it; the former parent's is_parent flag is maintained.
func (s *Service) Delete(ctx context.Context, accountID, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		entries, err := tx.CountEntries(ctx, accountID)
		if err != nil {
			return err
		}
		if entries > 0 {
			return fmt.Errorf("account %d: %w", accountID, ErrHasEntries)
		}
		children, err := tx.CountChildren(ctx, accountID)
		if err != nil {
			return err
		}
		if children > 0 {
			return fmt.Errorf("account %d: %w", accountID, ErrHasChildren)
		}
		if err := tx.DeleteAccount(ctx, accountID); err != nil {
			return err
		}
		if account.ParentID != nil {
			remaining, err := tx.CountChildren(ctx, *account.ParentID)
			if err != nil {
				return err
			}
			if remaining == 0 {
				return tx.SetIsParent(ctx, *account.ParentID, false)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "account.delete", accountID, nil)
	return nil
}

// UpdateInput carries editable account attributes.
type UpdateInput struct {
	Name     *string
	IsActive *bool
	ActorID  int64
}

// Update edits an account's name or active flag.
func (s *Service) Update(ctx context.Context, accountID int64, input UpdateInput) (Account, error) {
	var updated Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if input.Name != nil {
			if *input.Name == "" {
				return ErrNameRequired
			}
			account.Name = *input.Name
		}
		if input.IsActive != nil {
			account.IsActive = *input.IsActive
		}
		if err := tx.UpdateAccount(ctx, account); err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, input.ActorID, "account.update", accountID, nil)
	return updated, nil
}

// Get returns a single account by id.
func (s *Service) Get(ctx context.Context, accountID int64) (Account, error) {
	var account Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		account, err = tx.GetAccount(ctx, accountID)
		return err
	})
	return account, err
}

// ListHierarchy returns the account tree for an organization plus shared
// (null-organization) accounts, ordered by number with children nested.
func (s *Service) ListHierarchy(ctx context.Context, organizationID *int64) ([]*Node, error) {
	var accounts []Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		accounts, err = tx.ListByOrganization(ctx, organizationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return BuildTree(accounts), nil
}

// BuildTree assembles nested nodes from a flat account slice. Links are
// resolved through an id index; accounts whose parent is outside the slice
// surface as roots so nothing is silently dropped.
func BuildTree(accounts []Account) []*Node {
	index := make(map[int64]*Node, len(accounts))
	for _, account := range accounts {
		index[account.ID] = &Node{Account: account}
	}
	var roots []*Node
	for _, account := range accounts {
		node := index[account.ID]
		if account.ParentID != nil {
			if parent, ok := index[*account.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Number < nodes[j].Number })
	for _, node := range nodes {
		sortNodes(node.Children)
	}
}

// ensureNotDescendant walks the candidate parent's ancestor chain; finding
// accountID there means the move would close a loop.
func ensureNotDescendant(ctx context.Context, tx TxRepository, accountID int64, candidate Account) error {
	current := candidate
	for {
		if current.ID == accountID {
			return fmt.Errorf("account %d: %w", accountID, ErrDescendantParent)
		}
		if current.ParentID == nil {
			return nil
		}
		next, err := tx.GetAccount(ctx, *current.ParentID)
		if err != nil {
			return err
		}
		current = next
	}
}

func relevelChildren(ctx context.Context, tx TxRepository, parentID int64, parentLevel int) error {
	children, err := tx.ListChildren(ctx, parentID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if child.Level != parentLevel+1 {
			pid := parentID
			if err := tx.UpdateParent(ctx, child.ID, &pid, parentLevel+1); err != nil {
				return err
			}
		}
		if err := relevelChildren(ctx, tx, child.ID, parentLevel+1); err != nil {
			return err
		}
	}
	return nil
}

func ensureNumberFree(ctx context.Context, tx TxRepository, organizationID *int64, number string) error {
	_, err := tx.FindByNumber(ctx, organizationID, number)
	if err == nil {
		return fmt.Errorf("number %s: %w", number, ErrDuplicateNumber)
	}
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	return err
}

func (s *Service) record(ctx context.Context, actorID int64, action string, accountID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "account",
		EntityID: fmt.Sprintf("%d", accountID),
		Meta:     meta,
		At:       s.now(),
	})
}
