// Package settings manages the plant-wide recovery percentages used to
// compute receivable lead from battery weight.
package settings

import (
	"context"
	"time"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/types"
)

// RecoverySettings holds the recovery percentage per battery type.
// A single row exists per installation; new values apply to entries
// written after the change, never retroactively.
type RecoverySettings struct {
	PP    types.Percent `db:"pp_percent" json:"ppPercent"`
	MCSMF types.Percent `db:"mc_smf_percent" json:"mcSmfPercent"`
	HR    types.Percent `db:"hr_percent" json:"hrPercent"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// Defaults returns the factory-standard recovery percentages.
func Defaults() RecoverySettings {
	return RecoverySettings{
		PP:    types.MustPercent("60.5"),
		MCSMF: types.MustPercent("58"),
		HR:    types.MustPercent("50"),
	}
}

// Validate implements entity.Validatable.
func (s *RecoverySettings) Validate(_ context.Context) error {
	for field, p := range map[string]types.Percent{
		"ppPercent":    s.PP,
		"mcSmfPercent": s.MCSMF,
		"hrPercent":    s.HR,
	} {
		if !p.InRange() {
			return apperror.NewValidation("recovery percentage must be between 0 and 100").
				WithDetail("field", field).
				WithDetail("value", p.String())
		}
	}
	return nil
}
