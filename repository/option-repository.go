package repository

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Option rows form the key-value configuration store. Backup snapshots and
// the latest-version pointer live here.
type Option struct {
	Key       string    `gorm:"primaryKey"`
	Value     []byte    `gorm:"not null"`
	Timestamp time.Time `gorm:"not null"`
}

type OptionRepository struct {
	DB *gorm.DB
}

func NewOptionRepository(db *gorm.DB) *OptionRepository {
	return &OptionRepository{DB: db}
}

func (r *OptionRepository) SetOption(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.DB.Save(&Option{
		Key:       key,
		Value:     data,
		Timestamp: time.Now(),
	}).Error
}

func (r *OptionRepository) GetOption(key string, value any) error {
	var option Option
	result := r.DB.First(&option, Option{Key: key})
	if result.Error != nil {
		return result.Error
	}
	return json.Unmarshal(option.Value, value)
}
