// Package yield computes batch yields from weights and recovery
// percentages. All functions are pure: callers freeze the results onto
// the entry at write time, so later settings changes never rewrite
// history.
package yield

import (
	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/types"
	"leadtrack/internal/domain/settings"
)

// BatteryType identifies the battery construction being recycled.
type BatteryType string

const (
	BatteryPP    BatteryType = "PP"
	BatteryMCSMF BatteryType = "MC/SMF"
	BatteryHR    BatteryType = "HR"
)

// KnownBatteryType reports whether t has a configured recovery rate.
func KnownBatteryType(t BatteryType) bool {
	switch t {
	case BatteryPP, BatteryMCSMF, BatteryHR:
		return true
	}
	return false
}

// RecoveryFor returns the configured recovery percentage for a battery type.
func RecoveryFor(s settings.RecoverySettings, t BatteryType) (types.Percent, error) {
	switch t {
	case BatteryPP:
		return s.PP, nil
	case BatteryMCSMF:
		return s.MCSMF, nil
	case BatteryHR:
		return s.HR, nil
	}
	return 0, apperror.NewValidation("unknown battery type").
		WithDetail("field", "batteryType").
		WithDetail("value", string(t))
}

// RecyclingReceivable returns the lead receivable from a battery batch:
// battery weight times the recovery percentage for its type.
func RecyclingReceivable(s settings.RecoverySettings, t BatteryType, batteryKg types.Kg) (types.Kg, error) {
	if batteryKg.IsNegative() {
		return 0, apperror.NewValidation("battery weight must not be negative").
			WithDetail("field", "batteryKg")
	}
	pct, err := RecoveryFor(s, t)
	if err != nil {
		return 0, err
	}
	return types.MulPercent(batteryKg, pct), nil
}

// RecoveryPercentOf returns what share of the input the output weight
// represents, as a percentage. Zero when the input is zero.
func RecoveryPercentOf(outputKg, inputKg types.Kg) types.Percent {
	return types.RatioPercent(outputKg, inputKg)
}

// AntimonyRecoverable returns the antimony content of a lead ingot lot
// given its grade.
func AntimonyRecoverable(leadIngotKg types.Kg, sbPercent types.Percent) types.Kg {
	return types.MulPercent(leadIngotKg, sbPercent)
}
