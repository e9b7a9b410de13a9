package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/promptmart/promptmart-backend/pkg/enums"
)

// PayoutError records one seller's failure inside a batch.
type PayoutError struct {
	SellerID uuid.UUID `json:"seller_id"`
	Message  string    `json:"message"`
}

// PayoutErrorLog is the ordered list of per-seller failures for a batch.
type PayoutErrorLog []PayoutError

// PayoutBatch is the bookkeeping unit for one sweep's payouts on one method.
type PayoutBatch struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BatchNumber       int64                   `gorm:"column:batch_number;not null;unique"`
	PayoutMethod      enums.PaymentMethod     `gorm:"column:payout_method;type:text;not null"`
	Status            enums.PayoutBatchStatus `gorm:"column:status;type:text;not null;default:'processing'"`
	TotalAmountCents  int64                   `gorm:"column:total_amount_cents;not null"`
	TotalPayouts      int                     `gorm:"column:total_payouts;not null"`
	SuccessfulPayouts int                     `gorm:"column:successful_payouts;not null;default:0"`
	FailedPayouts     int                     `gorm:"column:failed_payouts;not null;default:0"`
	ErrorLog          PayoutErrorLog          `gorm:"column:error_log;type:jsonb;serializer:json"`
	ProcessedAt       *time.Time              `gorm:"column:processed_at"`
	CompletedAt       *time.Time              `gorm:"column:completed_at"`
	Metadata          json.RawMessage         `gorm:"column:metadata;type:jsonb"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// FinalStatus derives the terminal batch status from the success/failure
// counters: completed iff nothing failed, failed iff nothing succeeded,
// partial otherwise.
func (b PayoutBatch) FinalStatus() enums.PayoutBatchStatus {
	switch {
	case b.SuccessfulPayouts == 0 && b.FailedPayouts == 0:
		// No-op batch: every claim went to another instance before this one
		// could pay. Nothing moved and nothing failed.
		return enums.PayoutBatchStatusCompleted
	case b.FailedPayouts == 0:
		return enums.PayoutBatchStatusCompleted
	case b.SuccessfulPayouts == 0:
		return enums.PayoutBatchStatusFailed
	default:
		return enums.PayoutBatchStatusPartial
	}
}
