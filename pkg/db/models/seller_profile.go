package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/promptmart/promptmart-backend/pkg/enums"
)

// SellerProfile holds a seller's settlement configuration and running totals.
// TotalSales and TotalRevenueCents are best-effort lifetime counters, floored
// at zero on refunds; they are not derivable from the ledger alone.
type SellerProfile struct {
	UserID                 uuid.UUID              `gorm:"column:user_id;type:uuid;primaryKey"`
	ProcessorAccountID     *string                `gorm:"column:processor_account_id"`
	PayoutEmail            *string                `gorm:"column:payout_email"`
	PayoutMethod           enums.PaymentMethod    `gorm:"column:payout_method;type:text;not null;default:'stripe'"`
	CommissionRateOverride *decimal.Decimal       `gorm:"column:commission_rate_override;type:numeric(5,2)"`
	OnboardingStatus       enums.OnboardingStatus `gorm:"column:onboarding_status;type:text;not null;default:'pending'"`
	TotalSales             int64                  `gorm:"column:total_sales;not null;default:0"`
	TotalRevenueCents      int64                  `gorm:"column:total_revenue_cents;not null;default:0"`
	CreatedAt              time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
