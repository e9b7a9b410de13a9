package settings

import (
	"context"

	"gorm.io/gorm"

	"github.com/promptmart/promptmart-backend/pkg/db/models"
)

// Repository reads platform settings rows.
type Repository interface {
	All(ctx context.Context) (map[string]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) All(ctx context.Context) (map[string]string, error) {
	var rows []models.PlatformSetting
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}
