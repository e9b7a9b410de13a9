package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptmart/promptmart-backend/pkg/db/models"
	"github.com/promptmart/promptmart-backend/pkg/enums"
)

// SellerGroup is one seller's aggregated purchase balance within a query.
type SellerGroup struct {
	SellerID      uuid.UUID `gorm:"column:seller_id"`
	TotalNetCents int64     `gorm:"column:total_net_cents"`
	EntryCount    int64     `gorm:"column:entry_count"`
}

// Repository manages persistence for ledger entries, including the sweep's
// claim lifecycle.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)

	EligibleGroups(ctx context.Context, method enums.PaymentMethod, cutoff time.Time, minCents int64) ([]SellerGroup, error)
	ClaimForSeller(ctx context.Context, batchID, sellerID uuid.UUID, method enums.PaymentMethod, cutoff time.Time, claimedAt time.Time) (int64, error)
	ClaimedGroups(ctx context.Context, batchID uuid.UUID) ([]SellerGroup, error)
	SumClaimed(ctx context.Context, batchID, sellerID uuid.UUID) (int64, error)
	MarkClaimedPaid(ctx context.Context, batchID, sellerID uuid.UUID, transferID, payoutID *string, completedAt time.Time) error
	ReleaseClaim(ctx context.Context, batchID, sellerID uuid.UUID, reason string) error

	SumEligibleForSeller(ctx context.Context, sellerID uuid.UUID, cutoff time.Time) (int64, error)
	RecordTransferSuccess(ctx context.Context, entryID uuid.UUID, transferID string, completedAt time.Time) error
	RecordTransferFailure(ctx context.Context, entryID uuid.UUID, reason string) error
	CompleteRefundEntry(ctx context.Context, entryID uuid.UUID, metadata json.RawMessage, completedAt time.Time) error
	RecordRefundFailure(ctx context.Context, entryID uuid.UUID, reason string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// eligibleStatuses are the entry states a sweep may pay: completed rows that
// were never transferred in real time, and rows whose real-time transfer
// failed (downgraded to pending for retry).
var eligibleStatuses = []enums.LedgerEntryStatus{
	enums.LedgerEntryStatusCompleted,
	enums.LedgerEntryStatusPending,
}

// EligibleGroups sums un-batched, un-transferred purchase balances per seller
// for one payment method, dropping sellers below the minimum payout threshold.
func (r *repository) EligibleGroups(ctx context.Context, method enums.PaymentMethod, cutoff time.Time, minCents int64) ([]SellerGroup, error) {
	var groups []SellerGroup
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("to_user_id AS seller_id, SUM(net_amount_cents) AS total_net_cents, COUNT(*) AS entry_count").
		Where("type = ? AND status IN ? AND payout_batch_id IS NULL AND processor_transfer_id IS NULL AND payment_method = ? AND created_at <= ?",
			enums.LedgerEntryTypePurchase, eligibleStatuses, method, cutoff).
		Where("to_user_id IS NOT NULL").
		Group("to_user_id").
		Having("SUM(net_amount_cents) >= ?", minCents).
		Order("seller_id ASC").
		Scan(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// ClaimForSeller stamps every eligible row of one seller with the batch id in
// a single conditional update. Rows another process already claimed are left
// alone; the affected-row count tells the caller what it actually owns.
func (r *repository) ClaimForSeller(ctx context.Context, batchID, sellerID uuid.UUID, method enums.PaymentMethod, cutoff time.Time, claimedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("type = ? AND status IN ? AND payout_batch_id IS NULL AND processor_transfer_id IS NULL AND payment_method = ? AND created_at <= ? AND to_user_id = ?",
			enums.LedgerEntryTypePurchase, eligibleStatuses, method, cutoff, sellerID).
		Updates(map[string]any{
			"payout_batch_id": batchID,
			"status":          enums.LedgerEntryStatusProcessing,
			"processed_at":    claimedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) ClaimedGroups(ctx context.Context, batchID uuid.UUID) ([]SellerGroup, error) {
	var groups []SellerGroup
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("to_user_id AS seller_id, SUM(net_amount_cents) AS total_net_cents, COUNT(*) AS entry_count").
		Where("payout_batch_id = ?", batchID).
		Group("to_user_id").
		Order("seller_id ASC").
		Scan(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *repository) SumClaimed(ctx context.Context, batchID, sellerID uuid.UUID) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("SUM(net_amount_cents)").
		Where("payout_batch_id = ? AND to_user_id = ?", batchID, sellerID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repository) MarkClaimedPaid(ctx context.Context, batchID, sellerID uuid.UUID, transferID, payoutID *string, completedAt time.Time) error {
	updates := map[string]any{
		"status":       enums.LedgerEntryStatusCompleted,
		"completed_at": completedAt,
	}
	if transferID != nil {
		updates["processor_transfer_id"] = *transferID
	}
	if payoutID != nil {
		updates["processor_payout_id"] = *payoutID
	}
	return r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("payout_batch_id = ? AND to_user_id = ?", batchID, sellerID).
		Updates(updates).Error
}

// ReleaseClaim undoes a claim whose processor call failed so the rows stay
// eligible for a future sweep. Only still-processing rows of the batch are
// touched; rows already paid keep their batch id forever.
func (r *repository) ReleaseClaim(ctx context.Context, batchID, sellerID uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("payout_batch_id = ? AND to_user_id = ? AND status = ?",
			batchID, sellerID, enums.LedgerEntryStatusProcessing).
		Updates(map[string]any{
			"payout_batch_id": nil,
			"status":          enums.LedgerEntryStatusCompleted,
			"failure_reason":  reason,
		}).Error
}

func (r *repository) SumEligibleForSeller(ctx context.Context, sellerID uuid.UUID, cutoff time.Time) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("SUM(net_amount_cents)").
		Where("type = ? AND status IN ? AND payout_batch_id IS NULL AND processor_transfer_id IS NULL AND to_user_id = ? AND created_at <= ?",
			enums.LedgerEntryTypePurchase, eligibleStatuses, sellerID, cutoff).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repository) RecordTransferSuccess(ctx context.Context, entryID uuid.UUID, transferID string, completedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]any{
			"processor_transfer_id": transferID,
			"status":                enums.LedgerEntryStatusCompleted,
			"completed_at":          completedAt,
		}).Error
}

// RecordTransferFailure downgrades a purchase entry to pending after a failed
// real-time transfer; the next sweep picks the row back up.
func (r *repository) RecordTransferFailure(ctx context.Context, entryID uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]any{
			"status":         enums.LedgerEntryStatusPending,
			"failure_reason": reason,
		}).Error
}

// CompleteRefundEntry finalizes a refund intent once the processor confirmed
// the refund, replacing the metadata with the processor-stamped version.
func (r *repository) CompleteRefundEntry(ctx context.Context, entryID uuid.UUID, metadata json.RawMessage, completedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]any{
			"status":       enums.LedgerEntryStatusCompleted,
			"completed_at": completedAt,
			"metadata":     metadata,
		}).Error
}

// RecordRefundFailure marks a refund intent whose processor call failed. The
// bookkeeping stands; the failure reason is the handle for reconciliation.
func (r *repository) RecordRefundFailure(ctx context.Context, entryID uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]any{
			"status":         enums.LedgerEntryStatusFailed,
			"failure_reason": reason,
		}).Error
}
