package payouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptmart/promptmart-backend/pkg/db/models"
	"github.com/promptmart/promptmart-backend/pkg/enums"
)

// Repository manages persistence for payout batches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, batch *models.PayoutBatch) (*models.PayoutBatch, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutBatch, error)
	Latest(ctx context.Context) (*models.PayoutBatch, error)
	List(ctx context.Context, limit int) ([]models.PayoutBatch, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, successful, failed int, errorLog models.PayoutErrorLog) error
	SetMetadata(ctx context.Context, id uuid.UUID, metadata json.RawMessage) error
	Finalize(ctx context.Context, id uuid.UUID, status enums.PayoutBatchStatus, completedAt time.Time) error
}

// batchNumberAttempts bounds the retry loop when two instances allocate the
// same batch number at once.
const batchNumberAttempts = 3

type repository struct {
	db *gorm.DB

	nextNumber func(ctx context.Context) (int64, error)
}

// NewRepository builds a payout batch repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return newRepository(db)
}

func newRepository(db *gorm.DB) *repository {
	r := &repository{db: db}
	r.nextNumber = r.nextBatchNumber
	return r
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return newRepository(tx)
}

func (r *repository) Create(ctx context.Context, batch *models.PayoutBatch) (*models.PayoutBatch, error) {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	if batch.BatchNumber != 0 {
		if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
			return nil, err
		}
		return batch, nil
	}

	// MAX+1 races across instances; the unique index turns the loser's insert
	// into a duplicate-key error, so recompute the number and retry.
	var lastErr error
	for attempt := 0; attempt < batchNumberAttempts; attempt++ {
		number, err := r.nextNumber(ctx)
		if err != nil {
			return nil, err
		}
		batch.BatchNumber = number

		lastErr = r.db.WithContext(ctx).Create(batch).Error
		if lastErr == nil {
			return batch, nil
		}
		if !errors.Is(lastErr, gorm.ErrDuplicatedKey) {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("allocate batch number: %w", lastErr)
}

func (r *repository) nextBatchNumber(ctx context.Context) (int64, error) {
	var max *int64
	err := r.db.WithContext(ctx).
		Model(&models.PayoutBatch{}).
		Select("MAX(batch_number)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutBatch, error) {
	var batch models.PayoutBatch
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// Latest returns the most recently created batch, or nil when none exist.
func (r *repository) Latest(ctx context.Context) (*models.PayoutBatch, error) {
	var batch models.PayoutBatch
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

func (r *repository) List(ctx context.Context, limit int) ([]models.PayoutBatch, error) {
	if limit <= 0 {
		limit = 50
	}
	var batches []models.PayoutBatch
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *repository) UpdateProgress(ctx context.Context, id uuid.UUID, successful, failed int, errorLog models.PayoutErrorLog) error {
	// Map-based updates bypass gorm serializers; store the log as raw JSON.
	logJSON, err := json.Marshal(errorLog)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.PayoutBatch{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"successful_payouts": successful,
			"failed_payouts":     failed,
			"error_log":          json.RawMessage(logJSON),
		}).Error
}

func (r *repository) SetMetadata(ctx context.Context, id uuid.UUID, metadata json.RawMessage) error {
	return r.db.WithContext(ctx).
		Model(&models.PayoutBatch{}).
		Where("id = ?", id).
		Update("metadata", metadata).Error
}

func (r *repository) Finalize(ctx context.Context, id uuid.UUID, status enums.PayoutBatchStatus, completedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PayoutBatch{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       status,
			"completed_at": completedAt,
		}).Error
}
