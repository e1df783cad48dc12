package services

import (
	"errors"

	"arxiv_pulse_go_backend/internal/models"

	"gorm.io/gorm"
)

// SettingAIProcessing is the runtime flag the admin toggle endpoint flips.
// Both the API and worker processes read it from the database, so a toggle
// takes effect without a restart.
const SettingAIProcessing = "ai_processing_enabled"

type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

func (s *SettingsService) Get(key, defaultValue string) (string, error) {
	var setting models.Setting
	err := s.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultValue, nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (s *SettingsService) Set(key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	return s.db.Where(models.Setting{Key: key}).
		Assign(models.Setting{Value: value}).
		FirstOrCreate(&setting).Error
}

// AIProcessingEnabled defaults to on when the flag was never set.
func (s *SettingsService) AIProcessingEnabled() (bool, error) {
	value, err := s.Get(SettingAIProcessing, "true")
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

func (s *SettingsService) SetAIProcessing(enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return s.Set(SettingAIProcessing, value)
}
