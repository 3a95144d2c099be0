package dto

import (
	"time"

	"leadtrack/internal/core/types"
	"leadtrack/internal/domain/settings"
)

// UpdateSettingsRequest replaces the plant recovery percentages.
type UpdateSettingsRequest struct {
	PPPercent    types.Percent `json:"ppPercent"`
	MCSMFPercent types.Percent `json:"mcSmfPercent"`
	HRPercent    types.Percent `json:"hrPercent"`
}

// ToDomain converts to the domain settings value.
func (r *UpdateSettingsRequest) ToDomain() settings.RecoverySettings {
	return settings.RecoverySettings{
		PP:    r.PPPercent,
		MCSMF: r.MCSMFPercent,
		HR:    r.HRPercent,
	}
}

// SettingsResponse represents the current recovery percentages.
type SettingsResponse struct {
	PPPercent    types.Percent `json:"ppPercent"`
	MCSMFPercent types.Percent `json:"mcSmfPercent"`
	HRPercent    types.Percent `json:"hrPercent"`
	UpdatedAt    *time.Time    `json:"updatedAt,omitempty"`
	UpdatedBy    string        `json:"updatedBy,omitempty"`
}

// FromSettings creates a response from the domain value.
func FromSettings(s settings.RecoverySettings) SettingsResponse {
	resp := SettingsResponse{
		PPPercent:    s.PP,
		MCSMFPercent: s.MCSMF,
		HRPercent:    s.HR,
		UpdatedBy:    s.UpdatedBy,
	}
	if !s.UpdatedAt.IsZero() {
		at := s.UpdatedAt
		resp.UpdatedAt = &at
	}
	return resp
}
