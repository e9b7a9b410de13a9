package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptmart/promptmart-backend/pkg/db/models"
	"github.com/promptmart/promptmart-backend/pkg/enums"
)

// Repository manages persistence for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, paymentRef *string, deliveredAt time.Time) (bool, error)
	MarkRefunded(ctx context.Context, id uuid.UUID, refundedAt time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkCompleted flips a pending order to completed. The status predicate makes
// the check-then-act race-free: concurrent calls for the same order see
// exactly one row affected. Returns false when the order was not pending.
func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, paymentRef *string, deliveredAt time.Time) (bool, error) {
	updates := map[string]any{
		"status":       enums.OrderStatusCompleted,
		"delivered_at": deliveredAt,
	}
	if paymentRef != nil {
		updates["processor_payment_ref"] = *paymentRef
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkRefunded moves a not-yet-refunded order to refunded; refunded is
// terminal. Returns false when the order was already refunded.
func (r *repository) MarkRefunded(ctx context.Context, id uuid.UUID, refundedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status <> ?", id, enums.OrderStatusRefunded).
		Updates(map[string]any{
			"status":      enums.OrderStatusRefunded,
			"refunded_at": refundedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
