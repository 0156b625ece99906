package projects

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kashan-amd/modis/internal/shared"
)

// Service manages job-costing projects.
type Service struct {
	repo Repository
}

// NewService constructs the projects service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(p Project) error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("projects: code is required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("projects: name is required: %w", shared.ErrValidation)
	}
	if p.OrganizationID <= 0 {
		return fmt.Errorf("projects: organization is required: %w", shared.ErrValidation)
	}
	if p.Budget.IsNegative() {
		return fmt.Errorf("projects: budget must not be negative: %w", shared.ErrValidation)
	}
	return nil
}

func (s *Service) List(ctx context.Context, organizationID int64) ([]Project, error) {
	return s.repo.List(ctx, organizationID)
}

func (s *Service) Get(ctx context.Context, id int64) (Project, error) {
	if id <= 0 {
		return Project{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, project Project) (Project, error) {
	if err := s.validate(project); err != nil {
		return Project{}, err
	}
	project.IsActive = true
	return s.repo.Create(ctx, project)
}

func (s *Service) Update(ctx context.Context, id int64, project Project) error {
	if id <= 0 {
		return ErrNotFound
	}
	if err := s.validate(project); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, project)
}

// Delete removes a project unless ledger entries still reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	entries, err := s.repo.CountEntries(ctx, id)
	if err != nil {
		return err
	}
	if entries > 0 {
		return fmt.Errorf("project %d: %w", id, ErrHasEntries)
	}
	return s.repo.Delete(ctx, id)
}

// Cost sums posted entry amounts tagged with the project and compares the
// total to its budget.
func (s *Service) Cost(ctx context.Context, id int64) (CostSummary, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return CostSummary{}, err
	}
	cost, err := s.repo.SumPostedCost(ctx, id)
	if err != nil {
		return CostSummary{}, err
	}
	return CostSummary{
		ProjectID: project.ID,
		Budget:    project.Budget,
		Cost:      cost,
		Remaining: project.Budget.Sub(cost),
	}, nil
}
