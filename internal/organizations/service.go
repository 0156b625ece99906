package organizations

import (
	"context"
	"fmt"
)

// Service manages organization master data.
type Service struct {
	repo Repository
}

// NewService constructs the organizations service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Organization, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Organization, error) {
	if id <= 0 {
		return Organization{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, organization Organization) (Organization, error) {
	if err := s.validate(organization); err != nil {
		return Organization{}, err
	}
	organization.IsActive = true
	return s.repo.Create(ctx, organization)
}

func (s *Service) Update(ctx context.Context, id int64, organization Organization) error {
	if id <= 0 {
		return ErrNotFound
	}
	if err := s.validate(organization); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, organization)
}

// Delete removes an organization unless ledger data still references it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	references, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return err
	}
	if references > 0 {
		return fmt.Errorf("organization %d: %w", id, ErrInUse)
	}
	return s.repo.Delete(ctx, id)
}
