package settings

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptmart/promptmart-backend/pkg/enums"
	pkgerrors "github.com/promptmart/promptmart-backend/pkg/errors"
)

type mapRepo struct {
	values map[string]string
	err    error
}

func (r mapRepo) All(context.Context) (map[string]string, error) {
	return r.values, r.err
}

func TestLoadDefaultsWhenUnset(t *testing.T) {
	svc, err := NewService(mapRepo{values: map[string]string{}})
	require.NoError(t, err)

	loaded, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), loaded)
}

func TestLoadParsesStoredValues(t *testing.T) {
	svc, err := NewService(mapRepo{values: map[string]string{
		KeyDefaultCommissionRate: "12.5",
		KeyMinPayoutAmountCents:  "2500",
		KeyPayoutFrequency:       "monthly",
		KeyPayoutDelayDays:       "14",
		KeyEnableAutoPayouts:     "false",
	}})
	require.NoError(t, err)

	loaded, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded.DefaultCommissionRate.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, int64(2500), loaded.MinPayoutAmountCents)
	assert.Equal(t, enums.PayoutFrequencyMonthly, loaded.PayoutFrequency)
	assert.Equal(t, 14, loaded.PayoutDelayDays)
	assert.False(t, loaded.EnableAutoPayouts)
}

func TestLoadTrimsWhitespace(t *testing.T) {
	svc, err := NewService(mapRepo{values: map[string]string{
		KeyMinPayoutAmountCents: " 500 ",
		KeyPayoutFrequency:      " weekly ",
	}})
	require.NoError(t, err)

	loaded, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(500), loaded.MinPayoutAmountCents)
	assert.Equal(t, enums.PayoutFrequencyWeekly, loaded.PayoutFrequency)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad rate":      {KeyDefaultCommissionRate: "abc"},
		"bad minimum":   {KeyMinPayoutAmountCents: "12.5"},
		"bad frequency": {KeyPayoutFrequency: "fortnightly"},
		"bad delay":     {KeyPayoutDelayDays: "soon"},
		"bad toggle":    {KeyEnableAutoPayouts: "si"},
		"rate over 100": {KeyDefaultCommissionRate: "101"},
		"negative rate": {KeyDefaultCommissionRate: "-1"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			svc, err := NewService(mapRepo{values: values})
			require.NoError(t, err)

			_, err = svc.Load(context.Background())
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConfiguration))
		})
	}
}

func TestLoadRejectsNegativeDerivedValues(t *testing.T) {
	svc, err := NewService(mapRepo{values: map[string]string{
		KeyPayoutDelayDays: "-3",
	}})
	require.NoError(t, err)

	_, err = svc.Load(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConfiguration))
}
