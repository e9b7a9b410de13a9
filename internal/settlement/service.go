package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/promptmart/promptmart-backend/internal/ledger"
	"github.com/promptmart/promptmart-backend/internal/orders"
	"github.com/promptmart/promptmart-backend/internal/sellers"
	"github.com/promptmart/promptmart-backend/internal/settings"
	"github.com/promptmart/promptmart-backend/pkg/db"
	"github.com/promptmart/promptmart-backend/pkg/db/models"
	"github.com/promptmart/promptmart-backend/pkg/enums"
	pkgerrors "github.com/promptmart/promptmart-backend/pkg/errors"
	"github.com/promptmart/promptmart-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Processor is the payment-processor capability settlement consumes. Calls are
// not idempotent on the processor side; callers own double-send protection.
type Processor interface {
	Transfer(ctx context.Context, destinationAccountID string, amountCents int64, metadata map[string]string) (string, error)
	Refund(ctx context.Context, paymentRef string, amountCents int64) (string, error)
}

// Result is the structured outcome returned to settlement callers.
type Result struct {
	Success        bool
	TransactionIDs []uuid.UUID
}

// Service converts completed orders into ledger entries and processes refunds.
type Service interface {
	CompleteOrder(ctx context.Context, orderID uuid.UUID, processorPaymentRef *string) (*Result, error)
	ProcessRefund(ctx context.Context, orderID uuid.UUID, amountCents *int64, reason *string) (*Result, error)
}

// ServiceParams configure the settlement service.
type ServiceParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Orders    orders.Repository
	Sellers   sellers.Repository
	Ledger    ledger.Repository
	Settings  settings.Service
	Processor Processor
	Now       func() time.Time
}

type service struct {
	logg      *logger.Logger
	db        txRunner
	orders    orders.Repository
	sellers   sellers.Repository
	ledger    ledger.Repository
	settings  settings.Service
	processor Processor
	now       func() time.Time
}

// NewService builds a settlement service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Sellers == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		logg:      params.Logger,
		db:        params.DB,
		orders:    params.Orders,
		sellers:   params.Sellers,
		ledger:    params.Ledger,
		settings:  params.Settings,
		processor: params.Processor,
		now:       now,
	}, nil
}

// CompleteOrder settles one paid order: it books the purchase and commission
// ledger entries, flips the order to completed, and bumps seller totals in a
// single transaction. A repeat call for an already-completed order is a
// success no-op, which shields against re-delivered payment webhooks. The
// real-time transfer runs after the transaction commits so a processor outage
// can never roll back the bookkeeping.
func (s *service) CompleteOrder(ctx context.Context, orderID uuid.UUID, processorPaymentRef *string) (*Result, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", orderID))
		}
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if order.Status == enums.OrderStatusCompleted {
		s.logg.Info(ctx, "order already completed; skipping settlement")
		return &Result{Success: true}, nil
	}
	if order.Status == enums.OrderStatusRefunded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is refunded; cannot complete")
	}

	profile, err := s.sellers.FindByUserID(ctx, order.SellerUserID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("seller profile %s not found", order.SellerUserID))
		}
		return nil, err
	}

	platform, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	rate := platform.DefaultCommissionRate
	if profile.CommissionRateOverride != nil {
		rate = *profile.CommissionRateOverride
	}
	commissionCents := commissionFor(order.AmountCents, rate)
	netCents := order.AmountCents - commissionCents

	purchase := &models.LedgerEntry{
		OrderID:         &order.ID,
		Type:            enums.LedgerEntryTypePurchase,
		Status:          enums.LedgerEntryStatusCompleted,
		FromUserID:      order.BuyerUserID,
		ToUserID:        &order.SellerUserID,
		AmountCents:     order.AmountCents,
		CommissionCents: commissionCents,
		NetAmountCents:  netCents,
		PaymentMethod:   order.PaymentMethod,
	}
	commission := &models.LedgerEntry{
		OrderID:       &order.ID,
		Type:          enums.LedgerEntryTypeCommission,
		Status:        enums.LedgerEntryStatusCompleted,
		FromUserID:    order.SellerUserID,
		AmountCents:   commissionCents,
		PaymentMethod: order.PaymentMethod,
	}

	now := s.now().UTC()
	purchase.CompletedAt = &now
	commission.CompletedAt = &now

	alreadyCompleted := false
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		claimed, err := s.orders.WithTx(tx).MarkCompleted(ctx, order.ID, processorPaymentRef, now)
		if err != nil {
			return fmt.Errorf("mark order completed: %w", err)
		}
		if !claimed {
			// Lost the race to a concurrent completion (or refund); the
			// conditional update keeps the ledger free of duplicates.
			current, err := s.orders.WithTx(tx).FindByID(ctx, order.ID)
			if err != nil {
				return err
			}
			if current.Status == enums.OrderStatusRefunded {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order is refunded; cannot complete")
			}
			alreadyCompleted = true
			return nil
		}

		ledgerRepo := s.ledger.WithTx(tx)
		if err := ledgerRepo.Create(ctx, purchase); err != nil {
			return fmt.Errorf("create purchase entry: %w", err)
		}
		if err := ledgerRepo.Create(ctx, commission); err != nil {
			return fmt.Errorf("create commission entry: %w", err)
		}
		if err := s.sellers.WithTx(tx).AddSale(ctx, order.SellerUserID, netCents); err != nil {
			return fmt.Errorf("update seller totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyCompleted {
		s.logg.Info(ctx, "order completed concurrently; skipping settlement")
		return &Result{Success: true}, nil
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"amount_cents":     order.AmountCents,
		"commission_cents": commissionCents,
		"net_cents":        netCents,
	}), "order settled")

	s.attemptRealTimeTransfer(ctx, order, profile, purchase, netCents)

	return &Result{
		Success:        true,
		TransactionIDs: []uuid.UUID{purchase.ID, commission.ID},
	}, nil
}

// attemptRealTimeTransfer pushes the seller's net proceeds to their connected
// account. Failures are non-fatal: the entry drops back to pending and the
// next sweep retries it.
func (s *service) attemptRealTimeTransfer(ctx context.Context, order *models.Order, profile *models.SellerProfile, purchase *models.LedgerEntry, netCents int64) {
	if s.processor == nil || profile.ProcessorAccountID == nil {
		return
	}
	if !order.PaymentMethod.SupportsRealTimeTransfer() {
		return
	}

	transferID, err := s.processor.Transfer(ctx, *profile.ProcessorAccountID, netCents, map[string]string{
		"order_id":        order.ID.String(),
		"ledger_entry_id": purchase.ID.String(),
	})
	if err != nil {
		s.logg.Error(ctx, "real-time transfer failed; entry queued for next sweep", err)
		if markErr := s.ledger.RecordTransferFailure(ctx, purchase.ID, err.Error()); markErr != nil {
			s.logg.Error(ctx, "failed to record transfer failure", markErr)
		}
		return
	}

	if err := s.ledger.RecordTransferSuccess(ctx, purchase.ID, transferID, s.now().UTC()); err != nil {
		s.logg.Error(ctx, "failed to record transfer id", err)
	}
}

// ProcessRefund reverses an order: it marks the order refunded, books the
// refund entry, and walks seller totals back with a floor of zero, all in one
// transaction. Partial amounts are allowed. When a payment reference exists
// the processor refund runs only after that transaction commits; the
// conditional MarkRefunded is the claim, so two concurrent calls can never
// both reach the processor. The entry is the write-ahead intent: it commits
// as pending and is completed or failed once the processor answers.
func (s *service) ProcessRefund(ctx context.Context, orderID uuid.UUID, amountCents *int64, reason *string) (*Result, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", orderID))
		}
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if order.Status == enums.OrderStatusRefunded {
		s.logg.Info(ctx, "order already refunded; skipping")
		return &Result{Success: true}, nil
	}

	refundCents := order.AmountCents
	if amountCents != nil {
		refundCents = *amountCents
	}
	if refundCents <= 0 || refundCents > order.AmountCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("refund amount %d out of range for order amount %d", refundCents, order.AmountCents))
	}

	needsProcessor := s.processor != nil && order.ProcessorPaymentRef != nil

	metadata := map[string]string{}
	if reason != nil {
		metadata["reason"] = *reason
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode refund metadata: %w", err)
	}

	now := s.now().UTC()
	entry := &models.LedgerEntry{
		OrderID:       &order.ID,
		Type:          enums.LedgerEntryTypeRefund,
		Status:        enums.LedgerEntryStatusCompleted,
		FromUserID:    order.SellerUserID,
		ToUserID:      &order.BuyerUserID,
		AmountCents:   refundCents,
		PaymentMethod: order.PaymentMethod,
		CompletedAt:   &now,
		Metadata:      metadataJSON,
	}
	if needsProcessor {
		entry.Status = enums.LedgerEntryStatusPending
		entry.CompletedAt = nil
	}

	alreadyRefunded := false
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		marked, err := s.orders.WithTx(tx).MarkRefunded(ctx, order.ID, now)
		if err != nil {
			return fmt.Errorf("mark order refunded: %w", err)
		}
		if !marked {
			alreadyRefunded = true
			return nil
		}
		if err := s.ledger.WithTx(tx).Create(ctx, entry); err != nil {
			return fmt.Errorf("create refund entry: %w", err)
		}
		if err := s.sellers.WithTx(tx).SubtractRefund(ctx, order.SellerUserID, refundCents); err != nil {
			return fmt.Errorf("update seller totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyRefunded {
		s.logg.Info(ctx, "order refunded concurrently; skipping")
		return &Result{Success: true}, nil
	}

	if needsProcessor {
		processorRefundID, err := s.processor.Refund(ctx, *order.ProcessorPaymentRef, refundCents)
		if err != nil {
			if markErr := s.ledger.RecordRefundFailure(ctx, entry.ID, err.Error()); markErr != nil {
				s.logg.Error(ctx, "failed to record refund failure", markErr)
			}
			s.logg.Error(ctx, "processor refund failed; intent entry retained for reconciliation", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodeProcessor, err, "processor refund failed")
		}

		metadata["processor_refund_id"] = processorRefundID
		stampedJSON, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("encode refund metadata: %w", err)
		}
		if err := s.ledger.CompleteRefundEntry(ctx, entry.ID, stampedJSON, s.now().UTC()); err != nil {
			// Processor refunded but the stamp failed; the intent entry plus
			// the refunded order still tell operators what happened.
			s.logg.Error(ctx, "refund sent but ledger stamp failed", err)
		}
	}

	s.logg.Info(s.logg.WithField(ctx, "refund_cents", refundCents), "order refunded")

	return &Result{
		Success:        true,
		TransactionIDs: []uuid.UUID{entry.ID},
	}, nil
}

// commissionFor computes floor(amountCents * rate / 100) for a percentage
// rate that may carry decimals.
func commissionFor(amountCents int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amountCents).
		Mul(rate).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}
