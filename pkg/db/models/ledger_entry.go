package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/promptmart/promptmart-backend/pkg/enums"
)

// LedgerEntry records an immutable monetary fact. Purchase entries carry the
// commission split; payout_batch_id is written once when a sweep claims the
// row and is never reassigned.
type LedgerEntry struct {
	ID                  uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             *uuid.UUID              `gorm:"column:order_id;type:uuid;index"`
	Type                enums.LedgerEntryType   `gorm:"column:type;type:text;not null"`
	Status              enums.LedgerEntryStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	FromUserID          uuid.UUID               `gorm:"column:from_user_id;type:uuid;not null"`
	ToUserID            *uuid.UUID              `gorm:"column:to_user_id;type:uuid;index"`
	AmountCents         int64                   `gorm:"column:amount_cents;not null"`
	CommissionCents     int64                   `gorm:"column:commission_cents;not null;default:0"`
	NetAmountCents      int64                   `gorm:"column:net_amount_cents;not null;default:0"`
	PaymentMethod       enums.PaymentMethod     `gorm:"column:payment_method;type:text;not null"`
	ProcessorTransferID *string                 `gorm:"column:processor_transfer_id"`
	ProcessorPayoutID   *string                 `gorm:"column:processor_payout_id"`
	PayoutBatchID       *uuid.UUID              `gorm:"column:payout_batch_id;type:uuid;index"`
	FailureReason       *string                 `gorm:"column:failure_reason"`
	ProcessedAt         *time.Time              `gorm:"column:processed_at"`
	CompletedAt         *time.Time              `gorm:"column:completed_at"`
	Metadata            json.RawMessage         `gorm:"column:metadata;type:jsonb"`
	CreatedAt           time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
