package payouts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptmart/promptmart-backend/internal/settings"
	"github.com/promptmart/promptmart-backend/pkg/enums"
)

func TestNextRunDate(t *testing.T) {
	// Wednesday, ISO week 11 (odd).
	wednesday := time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)
	// Monday, ISO week 12 (even).
	monday := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		from      time.Time
		frequency enums.PayoutFrequency
		want      time.Time
	}{
		{
			name:      "daily is the next day",
			from:      wednesday,
			frequency: enums.PayoutFrequencyDaily,
			want:      time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "weekly is the next monday",
			from:      wednesday,
			frequency: enums.PayoutFrequencyWeekly,
			want:      monday,
		},
		{
			name:      "weekly from a monday is the following monday",
			from:      monday,
			frequency: enums.PayoutFrequencyWeekly,
			want:      time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "biweekly targets the next even iso week",
			from:      wednesday,
			frequency: enums.PayoutFrequencyBiweekly,
			want:      monday,
		},
		{
			name:      "biweekly skips an odd-week monday",
			from:      monday,
			frequency: enums.PayoutFrequencyBiweekly,
			// Next Monday (Mar 23) is ISO week 13, odd, so skip to Mar 30.
			want: time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "monthly is the first of next month",
			from:      wednesday,
			frequency: enums.PayoutFrequencyMonthly,
			want:      time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "monthly rolls the year",
			from:      time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
			frequency: enums.PayoutFrequencyMonthly,
			want:      time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextRunDate(tc.from, tc.frequency)
			assert.Equal(t, tc.want, got)
			assert.True(t, got.After(tc.from), "next run is always strictly in the future")
		})
	}
}

func TestLastRunDate(t *testing.T) {
	// Wednesday, ISO week 11 (odd).
	wednesday := time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)
	// Monday, ISO week 12 (even).
	monday := time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		from      time.Time
		frequency enums.PayoutFrequency
		want      time.Time
	}{
		{
			name:      "daily is today's midnight",
			from:      wednesday,
			frequency: enums.PayoutFrequencyDaily,
			want:      time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "weekly is the most recent monday",
			from:      wednesday,
			frequency: enums.PayoutFrequencyWeekly,
			want:      time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "weekly on a monday is that monday",
			from:      monday,
			frequency: enums.PayoutFrequencyWeekly,
			want:      time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "biweekly steps back past an odd-week monday",
			from:      wednesday,
			frequency: enums.PayoutFrequencyBiweekly,
			// Mar 9 is ISO week 11, odd, so step back to Mar 2 (week 10).
			want: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "biweekly on an even-week monday is that monday",
			from:      monday,
			frequency: enums.PayoutFrequencyBiweekly,
			want:      time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "monthly is the first of the current month",
			from:      wednesday,
			frequency: enums.PayoutFrequencyMonthly,
			want:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := LastRunDate(tc.from, tc.frequency)
			assert.Equal(t, tc.want, got)
			assert.False(t, got.After(tc.from), "last run is never in the future")
		})
	}
}

func TestEstimatorNextPayout(t *testing.T) {
	f := newPayoutsFixture(t)
	estimator, err := NewEstimator(f.ledger, staticSettings{settings: settings.Defaults()}, func() time.Time { return f.now })
	require.NoError(t, err)

	seller := f.createSeller(t, "acct_est", "")
	f.addEntry(t, seller, 9_000, enums.PaymentMethodStripe, 30*24*time.Hour)

	estimate, err := estimator.NextPayout(context.Background(), seller)
	require.NoError(t, err)
	require.NotNil(t, estimate)

	assert.Equal(t, seller, estimate.SellerID)
	assert.Equal(t, int64(9_000), estimate.EstimatedAmountCents)
	assert.Equal(t, enums.PayoutFrequencyWeekly, estimate.Frequency)
	// now is Wed Mar 11 2026; next weekly run is Mon Mar 16.
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), estimate.NextPayoutDate)
}

func TestEstimatorBelowMinimumReturnsNil(t *testing.T) {
	f := newPayoutsFixture(t)
	estimator, err := NewEstimator(f.ledger, staticSettings{settings: settings.Defaults()}, func() time.Time { return f.now })
	require.NoError(t, err)

	seller := f.createSeller(t, "acct_small", "")
	f.addEntry(t, seller, 999, enums.PaymentMethodStripe, 30*24*time.Hour)

	estimate, err := estimator.NextPayout(context.Background(), seller)
	require.NoError(t, err)
	assert.Nil(t, estimate)
}

func TestEstimatorCountsEntriesInsideDelayAtRunDate(t *testing.T) {
	f := newPayoutsFixture(t)
	estimator, err := NewEstimator(f.ledger, staticSettings{settings: settings.Defaults()}, func() time.Time { return f.now })
	require.NoError(t, err)

	seller := f.createSeller(t, "acct_window", "")
	// Entry is 4 days old now, but will be 9 days old at the next run's
	// cutoff (Mon Mar 16 minus 7 days = Mar 9; entry created Mar 7).
	f.addEntry(t, seller, 5_000, enums.PaymentMethodStripe, 4*24*time.Hour)

	estimate, err := estimator.NextPayout(context.Background(), seller)
	require.NoError(t, err)
	require.NotNil(t, estimate)
	assert.Equal(t, int64(5_000), estimate.EstimatedAmountCents)
}
