package gateway

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyshop/pkg/utils"
)

func TestMinorUnitRoundTripPreservesCents(t *testing.T) {
	cases := []struct {
		amount string
		minor  int
	}{
		{"19.98", 1998}, // 2 x 9.99, must not round to 20
		{"9.99", 999},
		{"0.01", 1},
		{"250000", 25000000},
	}
	for _, tc := range cases {
		t.Run(tc.amount, func(t *testing.T) {
			minor, err := toMinorUnits(decimal.RequireFromString(tc.amount))
			require.NoError(t, err)
			assert.Equal(t, tc.minor, minor)

			// What the provider reports back must equal what the order
			// stored, exactly, or the callback amount check misfires.
			back := fromMinorUnits(minor)
			assert.True(t, back.Equal(decimal.RequireFromString(tc.amount)),
				"round trip %s -> %d -> %s", tc.amount, minor, back)
		})
	}
}

func TestToMinorUnitsRejectsSubCentPrecision(t *testing.T) {
	_, err := toMinorUnits(decimal.RequireFromString("9.999"))
	require.ErrorIs(t, err, utils.ErrValidation)
}
