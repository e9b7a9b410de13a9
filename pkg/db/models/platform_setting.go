package models

import "time"

// PlatformSetting is one key/value configuration row managed by the admin
// surface. The settlement core only reads current values.
type PlatformSetting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
