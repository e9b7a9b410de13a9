package payouts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/promptmart/promptmart-backend/internal/ledger"
	"github.com/promptmart/promptmart-backend/internal/sellers"
	"github.com/promptmart/promptmart-backend/pkg/db"
	"github.com/promptmart/promptmart-backend/pkg/db/models"
	"github.com/promptmart/promptmart-backend/pkg/enums"
	pkgerrors "github.com/promptmart/promptmart-backend/pkg/errors"
	"github.com/promptmart/promptmart-backend/pkg/logger"
	"github.com/promptmart/promptmart-backend/pkg/metrics"
)

// PayoutClient pays a seller through a payout API keyed by their payout
// email rather than a connected account.
type PayoutClient interface {
	Payout(ctx context.Context, receiverEmail string, amountCents int64, senderItemID string) (string, error)
}

// Service exposes batch inspection and execution of staged batches.
type Service interface {
	GetBatch(ctx context.Context, id uuid.UUID) (*models.PayoutBatch, error)
	ListBatches(ctx context.Context, limit int) ([]models.PayoutBatch, error)
	ExecutePendingBatch(ctx context.Context, id uuid.UUID) (*models.PayoutBatch, error)
}

// ServiceParams configure the payout batch service.
type ServiceParams struct {
	Logger  *logger.Logger
	Ledger  ledger.Repository
	Sellers sellers.Repository
	Batches Repository
	Payouts PayoutClient
	Metrics *metrics.SweepMetrics
	Now     func() time.Time
}

type service struct {
	logg    *logger.Logger
	ledger  ledger.Repository
	sellers sellers.Repository
	batches Repository
	payouts PayoutClient
	metrics *metrics.SweepMetrics
	now     func() time.Time
}

// NewService builds the payout batch service.
func NewService(params ServiceParams) (Service, error) {
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
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		logg:    params.Logger,
		ledger:  params.Ledger,
		sellers: params.Sellers,
		batches: params.Batches,
		payouts: params.Payouts,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (s *service) GetBatch(ctx context.Context, id uuid.UUID) (*models.PayoutBatch, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("payout batch %s not found", id))
		}
		return nil, err
	}
	return batch, nil
}

func (s *service) ListBatches(ctx context.Context, limit int) ([]models.PayoutBatch, error) {
	return s.batches.List(ctx, limit)
}

// ExecutePendingBatch pays every seller claimed into a pending batch through
// the payout API. Per-seller failures release that seller's claim; the batch
// finishes partial or failed accordingly.
func (s *service) ExecutePendingBatch(ctx context.Context, id uuid.UUID) (*models.PayoutBatch, error) {
	batch, err := s.GetBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch.Status != enums.PayoutBatchStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("batch %s is %s, only pending batches can be executed", id, batch.Status))
	}
	if s.payouts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration,
			fmt.Sprintf("no payout client configured for method %s", batch.PayoutMethod))
	}

	ctx = s.logg.WithBatchID(ctx, batch.ID.String())

	groups, err := s.ledger.ClaimedGroups(ctx, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("load claimed groups: %w", err)
	}

	var (
		successful int
		failed     int
		errorLog   models.PayoutErrorLog
	)
	for _, group := range groups {
		sellerCtx := s.logg.WithSellerID(ctx, group.SellerID.String())

		if payErr := s.paySeller(sellerCtx, batch, group); payErr != nil {
			if releaseErr := s.ledger.ReleaseClaim(ctx, batch.ID, group.SellerID, payErr.Error()); releaseErr != nil {
				s.logg.Error(sellerCtx, "failed to release claim after payout failure", releaseErr)
			}
			failed++
			errorLog = append(errorLog, models.PayoutError{SellerID: group.SellerID, Message: payErr.Error()})
			s.metrics.IncPayoutFailure(batch.PayoutMethod.String())
			s.logg.Error(sellerCtx, "seller payout failed; rows released for next sweep", payErr)
		} else {
			successful++
			s.metrics.ObservePayout(batch.PayoutMethod.String(), group.TotalNetCents)
		}

		if err := s.batches.UpdateProgress(ctx, batch.ID, successful, failed, errorLog); err != nil {
			s.logg.Error(sellerCtx, "failed to update batch progress", err)
		}
	}

	batch.SuccessfulPayouts = successful
	batch.FailedPayouts = failed
	final := batch.FinalStatus()
	if err := s.batches.Finalize(ctx, batch.ID, final, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("finalize batch: %w", err)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"status":     final.String(),
		"successful": successful,
		"failed":     failed,
	}), "pending payout batch executed")

	return s.batches.FindByID(ctx, batch.ID)
}

func (s *service) paySeller(ctx context.Context, batch *models.PayoutBatch, group ledger.SellerGroup) error {
	profile, err := s.sellers.FindByUserID(ctx, group.SellerID)
	if err != nil {
		return fmt.Errorf("load seller profile: %w", err)
	}
	if profile.PayoutEmail == nil || *profile.PayoutEmail == "" {
		return fmt.Errorf("seller %s has no payout email on file", group.SellerID)
	}

	senderItemID := fmt.Sprintf("%s:%s", batch.ID, group.SellerID)
	payoutID, err := s.payouts.Payout(ctx, *profile.PayoutEmail, group.TotalNetCents, senderItemID)
	if err != nil {
		return err
	}

	if err := s.ledger.MarkClaimedPaid(ctx, batch.ID, group.SellerID, nil, &payoutID, s.now().UTC()); err != nil {
		// Money moved but the stamp failed; keep the claim so the rows are
		// not re-swept, and surface loudly for operators.
		s.logg.Error(ctx, "payout sent but ledger stamp failed; claim retained", err)
	}
	return nil
}
