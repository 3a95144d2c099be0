package settings

import (
	"context"
	"fmt"
	"time"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/security"
	"leadtrack/pkg/logger"
)

// Service provides read and guarded-write access to recovery settings.
type Service struct {
	repo  Repository
	guard *security.Guard
}

// NewService creates a settings service.
func NewService(repo Repository, guard *security.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

// Get returns the current recovery settings, falling back to factory
// defaults when the row was never written.
func (s *Service) Get(ctx context.Context) (RecoverySettings, error) {
	current, err := s.repo.Get(ctx)
	if err != nil {
		if apperror.IsNotFound(err) {
			return Defaults(), nil
		}
		return RecoverySettings{}, fmt.Errorf("get settings: %w", err)
	}
	return current, nil
}

// Update replaces the recovery percentages. Admin only. Entries already
// written keep the yields frozen at their write time.
func (s *Service) Update(ctx context.Context, next RecoverySettings) (RecoverySettings, error) {
	if err := s.guard.Require(ctx, security.CapEditSettings); err != nil {
		return RecoverySettings{}, err
	}

	if err := next.Validate(ctx); err != nil {
		return RecoverySettings{}, err
	}

	next.UpdatedAt = time.Now().UTC()
	if p, ok := security.PrincipalFromContext(ctx); ok {
		next.UpdatedBy = p.Name
	}

	if err := s.repo.Save(ctx, next); err != nil {
		return RecoverySettings{}, fmt.Errorf("save settings: %w", err)
	}

	logger.Info(ctx, "recovery settings updated",
		"pp", next.PP.String(),
		"mc_smf", next.MCSMF.String(),
		"hr", next.HR.String(),
	)

	return next, nil
}
