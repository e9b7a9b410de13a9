package payouts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/promptmart/promptmart-backend/internal/ledger"
	"github.com/promptmart/promptmart-backend/internal/sellers"
	"github.com/promptmart/promptmart-backend/internal/settings"
	"github.com/promptmart/promptmart-backend/pkg/db/models"
	"github.com/promptmart/promptmart-backend/pkg/enums"
	"github.com/promptmart/promptmart-backend/pkg/logger"
	"github.com/promptmart/promptmart-backend/pkg/metrics"
)

// TransferClient issues connected-account transfers for transfer-based payout
// methods.
type TransferClient interface {
	Transfer(ctx context.Context, destinationAccountID string, amountCents int64, metadata map[string]string) (string, error)
}

// PendingPayoutBreakdown is stored on a pending batch so an operator (or the
// executor) can pay it outside the sweep.
type PendingPayoutBreakdown struct {
	SellerID    uuid.UUID `json:"seller_id"`
	PayoutEmail string    `json:"payout_email,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	EntryCount  int64     `json:"entry_count"`
}

// SweepJobParams configure the payout sweep.
type SweepJobParams struct {
	Logger    *logger.Logger
	Ledger    ledger.Repository
	Sellers   sellers.Repository
	Batches   Repository
	Settings  settings.Service
	Transfers TransferClient
	Metrics   *metrics.SweepMetrics
	Now       func() time.Time
}

// SweepJob runs the scheduled payout sweep: it groups each method's eligible
// seller balances into a batch and pays them one seller at a time.
type SweepJob struct {
	logg      *logger.Logger
	ledger    ledger.Repository
	sellers   sellers.Repository
	batches   Repository
	settings  settings.Service
	transfers TransferClient
	metrics   *metrics.SweepMetrics
	now       func() time.Time

	// busy is the single-flight guard: overlapping timer fires are skipped,
	// never queued. It is process-local; cross-process exclusion is the
	// scheduler lock's job.
	busy atomic.Bool
}

// NewSweepJob builds the payout sweep job.
func NewSweepJob(params SweepJobParams) (*SweepJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Sellers == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	if params.Batches == nil {
		return nil, fmt.Errorf("batches repository required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &SweepJob{
		logg:      params.Logger,
		ledger:    params.Ledger,
		sellers:   params.Sellers,
		batches:   params.Batches,
		settings:  params.Settings,
		transfers: params.Transfers,
		metrics:   params.Metrics,
		now:       now,
	}, nil
}

func (j *SweepJob) Name() string { return "payout-sweep" }

// Run executes one sweep across all payout methods. One method's
// configuration problem aborts only that method's portion.
func (j *SweepJob) Run(ctx context.Context) error {
	if !j.busy.CompareAndSwap(false, true) {
		j.logg.Info(ctx, "sweep already running in this process; skipping")
		return nil
	}
	defer j.busy.Store(false)

	platform, err := j.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load platform settings: %w", err)
	}
	if !platform.EnableAutoPayouts {
		j.logg.Info(ctx, "auto payouts disabled; sweep is a no-op")
		return nil
	}

	now := j.now().UTC()
	due, err := j.sweepDue(ctx, now, platform.PayoutFrequency)
	if err != nil {
		return fmt.Errorf("check sweep schedule: %w", err)
	}
	if !due {
		j.logg.Info(j.logg.WithField(ctx, "next_run",
			NextRunDate(now, platform.PayoutFrequency).Format(time.DateOnly)),
			"current schedule period already swept; skipping")
		return nil
	}

	cutoff := now.AddDate(0, 0, -platform.PayoutDelayDays)

	var errs []error
	for _, method := range enums.PaymentMethods() {
		methodCtx := j.logg.WithField(ctx, "payout_method", method.String())
		if err := j.sweepMethod(methodCtx, method, platform, cutoff); err != nil {
			j.logg.Error(methodCtx, "sweep failed for payout method", err)
			errs = append(errs, fmt.Errorf("method %s: %w", method, err))
		}
	}
	return multierr.Combine(errs...)
}

// sweepDue reports whether the current schedule period still needs a sweep.
// The timer fires far more often than the configured payout frequency; the
// latest batch tells us whether this period's sweep already ran. Empty sweeps
// create no batch, so re-checking an unswept period stays cheap.
func (j *SweepJob) sweepDue(ctx context.Context, now time.Time, frequency enums.PayoutFrequency) (bool, error) {
	latest, err := j.batches.Latest(ctx)
	if err != nil {
		return false, fmt.Errorf("load latest batch: %w", err)
	}
	if latest == nil {
		return true, nil
	}
	return latest.CreatedAt.UTC().Before(LastRunDate(now, frequency)), nil
}

func (j *SweepJob) sweepMethod(ctx context.Context, method enums.PaymentMethod, platform settings.Settings, cutoff time.Time) error {
	groups, err := j.ledger.EligibleGroups(ctx, method, cutoff, platform.MinPayoutAmountCents)
	if err != nil {
		return fmt.Errorf("query eligible groups: %w", err)
	}
	if len(groups) == 0 {
		return nil
	}

	var totalAmount int64
	for _, group := range groups {
		totalAmount += group.TotalNetCents
	}

	now := j.now().UTC()
	batch := &models.PayoutBatch{
		PayoutMethod:     method,
		Status:           enums.PayoutBatchStatusProcessing,
		TotalAmountCents: totalAmount,
		TotalPayouts:     len(groups),
		ProcessedAt:      &now,
	}
	if !method.SupportsRealTimeTransfer() {
		batch.Status = enums.PayoutBatchStatusPending
	}

	if _, err := j.batches.Create(ctx, batch); err != nil {
		return fmt.Errorf("create payout batch: %w", err)
	}
	j.metrics.IncBatchCreated(method.String())

	ctx = j.logg.WithBatchID(ctx, batch.ID.String())
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"eligible_sellers":   len(groups),
		"total_amount_cents": totalAmount,
	}), "payout batch created")

	if method.SupportsRealTimeTransfer() {
		return j.payBatch(ctx, batch, groups, method, cutoff)
	}
	return j.stagePendingBatch(ctx, batch, groups, method, cutoff)
}

// payBatch pays each seller group sequentially. A seller's processor failure
// releases that seller's claim and moves on; it never aborts the batch.
func (j *SweepJob) payBatch(ctx context.Context, batch *models.PayoutBatch, groups []ledger.SellerGroup, method enums.PaymentMethod, cutoff time.Time) error {
	var (
		successful int
		failed     int
		errorLog   models.PayoutErrorLog
	)

	for _, group := range groups {
		sellerCtx := j.logg.WithSellerID(ctx, group.SellerID.String())

		claimed, err := j.ledger.ClaimForSeller(ctx, batch.ID, group.SellerID, method, cutoff, j.now().UTC())
		if err != nil {
			return fmt.Errorf("claim rows for seller %s: %w", group.SellerID, err)
		}
		if claimed == 0 {
			j.logg.Warn(sellerCtx, "no rows claimed; likely swept by another instance")
			continue
		}

		amount, err := j.ledger.SumClaimed(ctx, batch.ID, group.SellerID)
		if err != nil {
			return fmt.Errorf("sum claimed rows: %w", err)
		}

		if payErr := j.paySeller(sellerCtx, batch, group.SellerID, amount); payErr != nil {
			if releaseErr := j.ledger.ReleaseClaim(ctx, batch.ID, group.SellerID, payErr.Error()); releaseErr != nil {
				j.logg.Error(sellerCtx, "failed to release claim after payout failure", releaseErr)
			}
			failed++
			errorLog = append(errorLog, models.PayoutError{SellerID: group.SellerID, Message: payErr.Error()})
			j.metrics.IncPayoutFailure(method.String())
			j.logg.Error(sellerCtx, "seller payout failed; rows released for next sweep", payErr)
		} else {
			successful++
			j.metrics.ObservePayout(method.String(), amount)
		}

		if err := j.batches.UpdateProgress(ctx, batch.ID, successful, failed, errorLog); err != nil {
			j.logg.Error(sellerCtx, "failed to update batch progress", err)
		}
	}

	if successful == 0 && failed == 0 {
		j.logg.Warn(ctx, "every claim went to another instance; finalizing empty batch")
	}

	batch.SuccessfulPayouts = successful
	batch.FailedPayouts = failed
	final := batch.FinalStatus()
	if err := j.batches.Finalize(ctx, batch.ID, final, j.now().UTC()); err != nil {
		return fmt.Errorf("finalize batch: %w", err)
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"status":     final.String(),
		"successful": successful,
		"failed":     failed,
	}), "payout batch finished")
	return nil
}

func (j *SweepJob) paySeller(ctx context.Context, batch *models.PayoutBatch, sellerID uuid.UUID, amountCents int64) error {
	if j.transfers == nil {
		return fmt.Errorf("no transfer client configured for method %s", batch.PayoutMethod)
	}

	profile, err := j.sellers.FindByUserID(ctx, sellerID)
	if err != nil {
		return fmt.Errorf("load seller profile: %w", err)
	}
	if profile.ProcessorAccountID == nil {
		return fmt.Errorf("seller %s has no connected processor account", sellerID)
	}

	transferID, err := j.transfers.Transfer(ctx, *profile.ProcessorAccountID, amountCents, map[string]string{
		"payout_batch_id": batch.ID.String(),
		"seller_id":       sellerID.String(),
	})
	if err != nil {
		return err
	}

	if err := j.ledger.MarkClaimedPaid(ctx, batch.ID, sellerID, &transferID, nil, j.now().UTC()); err != nil {
		// Money moved but the stamp failed; keep the claim so the rows are
		// not re-swept, and surface loudly for operators.
		j.logg.Error(ctx, "transfer sent but ledger stamp failed; claim retained", err)
	}
	return nil
}

// stagePendingBatch claims every group's rows for a payout-API method and
// records the per-seller breakdown on the batch. Claimed-but-not-yet-paid is
// the deliberate trade-off: it beats double-claiming across sweeps.
func (j *SweepJob) stagePendingBatch(ctx context.Context, batch *models.PayoutBatch, groups []ledger.SellerGroup, method enums.PaymentMethod, cutoff time.Time) error {
	breakdown := make([]PendingPayoutBreakdown, 0, len(groups))
	for _, group := range groups {
		claimed, err := j.ledger.ClaimForSeller(ctx, batch.ID, group.SellerID, method, cutoff, j.now().UTC())
		if err != nil {
			return fmt.Errorf("claim rows for seller %s: %w", group.SellerID, err)
		}
		if claimed == 0 {
			continue
		}

		amount, err := j.ledger.SumClaimed(ctx, batch.ID, group.SellerID)
		if err != nil {
			return fmt.Errorf("sum claimed rows: %w", err)
		}

		entry := PendingPayoutBreakdown{
			SellerID:    group.SellerID,
			AmountCents: amount,
			EntryCount:  claimed,
		}
		if profile, err := j.sellers.FindByUserID(ctx, group.SellerID); err == nil && profile.PayoutEmail != nil {
			entry.PayoutEmail = *profile.PayoutEmail
		}
		breakdown = append(breakdown, entry)
	}

	metadata, err := json.Marshal(map[string]any{"payouts": breakdown})
	if err != nil {
		return fmt.Errorf("encode batch breakdown: %w", err)
	}
	if err := j.batches.SetMetadata(ctx, batch.ID, metadata); err != nil {
		return fmt.Errorf("record batch breakdown: %w", err)
	}

	j.logg.Info(j.logg.WithField(ctx, "staged_sellers", len(breakdown)),
		"pending payout batch staged for external execution")
	return nil
}
