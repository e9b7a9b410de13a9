package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/promptmart/promptmart-backend/pkg/enums"
)

// Order represents one purchase transaction between a buyer and a seller.
type Order struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber         int64               `gorm:"column:order_number;not null;unique"`
	BuyerUserID         uuid.UUID           `gorm:"column:buyer_user_id;type:uuid;not null"`
	SellerUserID        uuid.UUID           `gorm:"column:seller_user_id;type:uuid;not null;index"`
	AmountCents         int64               `gorm:"column:amount_cents;not null"`
	PaymentMethod       enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Status              enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	ProcessorPaymentRef *string             `gorm:"column:processor_payment_ref"`
	DeliveredAt         *time.Time          `gorm:"column:delivered_at"`
	RefundedAt          *time.Time          `gorm:"column:refunded_at"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
