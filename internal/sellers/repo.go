package sellers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptmart/promptmart-backend/pkg/db/models"
)

// Repository manages persistence for seller profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, profile *models.SellerProfile) (*models.SellerProfile, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.SellerProfile, error)
	AddSale(ctx context.Context, userID uuid.UUID, netAmountCents int64) error
	SubtractRefund(ctx context.Context, userID uuid.UUID, amountCents int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sellers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, profile *models.SellerProfile) (*models.SellerProfile, error) {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.SellerProfile, error) {
	var profile models.SellerProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// AddSale bumps the lifetime counters after a completed settlement.
func (r *repository) AddSale(ctx context.Context, userID uuid.UUID, netAmountCents int64) error {
	return r.db.WithContext(ctx).
		Model(&models.SellerProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"total_sales":         gorm.Expr("total_sales + 1"),
			"total_revenue_cents": gorm.Expr("total_revenue_cents + ?", netAmountCents),
		}).Error
}

// SubtractRefund walks the lifetime counters back after a refund, never below
// zero. The counters are best-effort totals, so read-clamp-write inside the
// caller's transaction is sufficient.
func (r *repository) SubtractRefund(ctx context.Context, userID uuid.UUID, amountCents int64) error {
	profile, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}

	sales := profile.TotalSales - 1
	if sales < 0 {
		sales = 0
	}
	revenue := profile.TotalRevenueCents - amountCents
	if revenue < 0 {
		revenue = 0
	}

	return r.db.WithContext(ctx).
		Model(&models.SellerProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"total_sales":         sales,
			"total_revenue_cents": revenue,
		}).Error
}
