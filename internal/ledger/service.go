package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/promptmart/promptmart-backend/pkg/db/models"
	"github.com/promptmart/promptmart-backend/pkg/enums"
)

// Service defines read/write operations over the ledger store.
type Service interface {
	RecordEntry(ctx context.Context, input RecordEntryInput) (*models.LedgerEntry, error)
	EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
	SellerBalance(ctx context.Context, sellerID uuid.UUID, cutoff time.Time) (int64, error)
}

type service struct {
	repo Repository
}

// RecordEntryInput captures the immutable data a ledger entry requires.
type RecordEntryInput struct {
	OrderID         *uuid.UUID
	Type            enums.LedgerEntryType
	Status          enums.LedgerEntryStatus
	FromUserID      uuid.UUID
	ToUserID        *uuid.UUID
	AmountCents     int64
	CommissionCents int64
	NetAmountCents  int64
	PaymentMethod   enums.PaymentMethod
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordEntry(ctx context.Context, input RecordEntryInput) (*models.LedgerEntry, error) {
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid ledger entry type %q", input.Type)
	}
	if !input.Status.IsValid() {
		return nil, fmt.Errorf("invalid ledger entry status %q", input.Status)
	}
	if input.FromUserID == uuid.Nil {
		return nil, fmt.Errorf("from user id is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, fmt.Errorf("invalid payment method %q", input.PaymentMethod)
	}
	if input.Type == enums.LedgerEntryTypePurchase && input.NetAmountCents+input.CommissionCents != input.AmountCents {
		return nil, fmt.Errorf("purchase entry split %d+%d does not equal %d",
			input.NetAmountCents, input.CommissionCents, input.AmountCents)
	}

	entry := &models.LedgerEntry{
		OrderID:         input.OrderID,
		Type:            input.Type,
		Status:          input.Status,
		FromUserID:      input.FromUserID,
		ToUserID:        input.ToUserID,
		AmountCents:     input.AmountCents,
		CommissionCents: input.CommissionCents,
		NetAmountCents:  input.NetAmountCents,
		PaymentMethod:   input.PaymentMethod,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	return s.repo.ListByOrderID(ctx, orderID)
}

// SellerBalance returns the seller's eligible un-batched balance at the cutoff.
func (s *service) SellerBalance(ctx context.Context, sellerID uuid.UUID, cutoff time.Time) (int64, error) {
	if sellerID == uuid.Nil {
		return 0, fmt.Errorf("seller id is required")
	}
	return s.repo.SumEligibleForSeller(ctx, sellerID, cutoff)
}
