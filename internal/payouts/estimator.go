package payouts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/promptmart/promptmart-backend/internal/ledger"
	"github.com/promptmart/promptmart-backend/internal/settings"
	"github.com/promptmart/promptmart-backend/pkg/enums"
)

// Estimate describes a seller's next expected payout. A nil estimate means
// nothing is due on the next run.
type Estimate struct {
	SellerID             uuid.UUID             `json:"seller_id"`
	NextPayoutDate       time.Time             `json:"next_payout_date"`
	EstimatedAmountCents int64                 `json:"estimated_amount_cents"`
	Frequency            enums.PayoutFrequency `json:"frequency"`
}

// Estimator predicts when a seller will next be paid and how much.
type Estimator struct {
	ledger   ledger.Repository
	settings settings.Service
	now      func() time.Time
}

// NewEstimator builds a payout estimator.
func NewEstimator(ledgerRepo ledger.Repository, settingsSvc settings.Service, now func() time.Time) (*Estimator, error) {
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if settingsSvc == nil {
		return nil, fmt.Errorf("settings service required")
	}
	if now == nil {
		now = time.Now
	}
	return &Estimator{ledger: ledgerRepo, settings: settingsSvc, now: now}, nil
}

// NextPayout estimates the seller's next payout date and amount. It returns
// nil when the eligible balance at the run's cutoff would be below the
// minimum, since the sweep would skip the seller entirely.
func (e *Estimator) NextPayout(ctx context.Context, sellerID uuid.UUID) (*Estimate, error) {
	platform, err := e.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load platform settings: %w", err)
	}

	nextDate := NextRunDate(e.now().UTC(), platform.PayoutFrequency)
	cutoff := nextDate.AddDate(0, 0, -platform.PayoutDelayDays)

	amount, err := e.ledger.SumEligibleForSeller(ctx, sellerID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("sum eligible balance: %w", err)
	}
	if amount < platform.MinPayoutAmountCents {
		return nil, nil
	}

	return &Estimate{
		SellerID:             sellerID,
		NextPayoutDate:       nextDate,
		EstimatedAmountCents: amount,
		Frequency:            platform.PayoutFrequency,
	}, nil
}

// NextRunDate returns the next scheduled sweep date strictly after the given
// instant, at midnight UTC.
//
// daily is the next day; weekly the next Monday; biweekly the next Monday
// falling on an even ISO week; monthly the first of the next month.
func NextRunDate(from time.Time, frequency enums.PayoutFrequency) time.Time {
	from = from.UTC()
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)

	switch frequency {
	case enums.PayoutFrequencyDaily:
		return day.AddDate(0, 0, 1)
	case enums.PayoutFrequencyWeekly:
		return nextMonday(day)
	case enums.PayoutFrequencyBiweekly:
		next := nextMonday(day)
		if _, week := next.ISOWeek(); week%2 != 0 {
			next = next.AddDate(0, 0, 7)
		}
		return next
	case enums.PayoutFrequencyMonthly:
		return time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	default:
		return nextMonday(day)
	}
}

func nextMonday(day time.Time) time.Time {
	offset := (int(time.Monday) - int(day.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return day.AddDate(0, 0, offset)
}

// LastRunDate returns the most recent scheduled sweep date at or before the
// given instant, at midnight UTC. It is NextRunDate's counterpart: the sweep
// compares the latest batch against it so one schedule period gets one sweep
// no matter how often the timer fires.
func LastRunDate(from time.Time, frequency enums.PayoutFrequency) time.Time {
	from = from.UTC()
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)

	switch frequency {
	case enums.PayoutFrequencyDaily:
		return day
	case enums.PayoutFrequencyWeekly:
		return lastMonday(day)
	case enums.PayoutFrequencyBiweekly:
		last := lastMonday(day)
		if _, week := last.ISOWeek(); week%2 != 0 {
			last = last.AddDate(0, 0, -7)
		}
		return last
	case enums.PayoutFrequencyMonthly:
		return time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return lastMonday(day)
	}
}

func lastMonday(day time.Time) time.Time {
	offset := (int(day.Weekday()) - int(time.Monday) + 7) % 7
	return day.AddDate(0, 0, -offset)
}
