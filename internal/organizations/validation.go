package organizations

import (
	"fmt"
	"strings"

	"github.com/Kashan-amd/modis/internal/shared"
)

func (s *Service) validate(o Organization) error {
	if strings.TrimSpace(o.Code) == "" {
		return fmt.Errorf("organizations: code is required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("organizations: name is required: %w", shared.ErrValidation)
	}
	return nil
}
