package yield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/types"
	"leadtrack/internal/domain/settings"
)

func TestRecyclingReceivable(t *testing.T) {
	s := settings.Defaults()

	tests := []struct {
		name      string
		battery   BatteryType
		batteryKg string
		want      string
	}{
		{"pp default rate", BatteryPP, "100.00", "60.50"},
		{"mc smf default rate", BatteryMCSMF, "100.00", "58.00"},
		{"hr default rate", BatteryHR, "200.00", "100.00"},
		{"rounds to two decimals", BatteryPP, "33.33", "20.16"},
		{"zero weight", BatteryPP, "0.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RecyclingReceivable(s, tt.battery, types.MustKg(tt.batteryKg))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestRecyclingReceivable_UnknownType(t *testing.T) {
	_, err := RecyclingReceivable(settings.Defaults(), BatteryType("AGM"), types.MustKg("10.00"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRecyclingReceivable_UsesSettingsAtCallTime(t *testing.T) {
	s := settings.Defaults()
	before, err := RecyclingReceivable(s, BatteryPP, types.MustKg("100.00"))
	require.NoError(t, err)

	s.PP = types.MustPercent("65")
	after, err := RecyclingReceivable(s, BatteryPP, types.MustKg("100.00"))
	require.NoError(t, err)

	assert.Equal(t, "60.50", before.String())
	assert.Equal(t, "65.00", after.String())
}

func TestRecoveryPercentOf(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"typical refining yield", "60.50", "100.00", "60.5"},
		{"full recovery", "50.00", "50.00", "100"},
		{"zero input", "10.00", "0.00", "0"},
		{"zero output", "0.00", "80.00", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecoveryPercentOf(types.MustKg(tt.output), types.MustKg(tt.input))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestAntimonyRecoverable(t *testing.T) {
	got := AntimonyRecoverable(types.MustKg("1000.00"), types.MustPercent("2.5"))
	assert.Equal(t, "25.00", got.String())

	got = AntimonyRecoverable(types.MustKg("333.33"), types.MustPercent("3"))
	assert.Equal(t, "10.00", got.String())
}
