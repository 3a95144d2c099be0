// Package settings_repo provides the PostgreSQL implementation of the
// recovery settings repository.
package settings_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/domain/settings"
	"leadtrack/internal/infrastructure/storage/postgres"
)

// The settings table holds exactly one row, pinned by its primary key.
const settingsRowID = 1

// SettingsRepo implements settings.Repository.
type SettingsRepo struct {
	txManager *postgres.TxManager
}

// NewSettingsRepo creates a new settings repository.
func NewSettingsRepo(txManager *postgres.TxManager) *SettingsRepo {
	return &SettingsRepo{txManager: txManager}
}

// Get returns the current settings row.
func (r *SettingsRepo) Get(ctx context.Context) (settings.RecoverySettings, error) {
	var s settings.RecoverySettings

	sql := `
		SELECT pp_percent, mc_smf_percent, hr_percent, updated_at, updated_by
		FROM recovery_settings
		WHERE id = $1
	`

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &s, sql, settingsRowID); err != nil {
		if pgxscan.NotFound(err) {
			return s, apperror.NewNotFound("recovery settings", settingsRowID)
		}
		return s, fmt.Errorf("get settings: %w", err)
	}

	return s, nil
}

// Save upserts the singleton row.
func (r *SettingsRepo) Save(ctx context.Context, s settings.RecoverySettings) error {
	sql := `
		INSERT INTO recovery_settings (id, pp_percent, mc_smf_percent, hr_percent, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			pp_percent     = EXCLUDED.pp_percent,
			mc_smf_percent = EXCLUDED.mc_smf_percent,
			hr_percent     = EXCLUDED.hr_percent,
			updated_at     = EXCLUDED.updated_at,
			updated_by     = EXCLUDED.updated_by
	`

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql,
		settingsRowID, s.PP, s.MCSMF, s.HR, s.UpdatedAt, s.UpdatedBy,
	); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	return nil
}

// Ensure interface compliance.
var _ settings.Repository = (*SettingsRepo)(nil)
