package repository

import (
	"time"

	"nice/internal/models"

	"gorm.io/gorm"
)

type OTPRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) Create(c *models.OTPCode) error {
	return r.db.Create(c).Error
}

// LatestActive returns the newest unconsumed, unexpired code record for
// the phone, or nil.
func (r *OTPRepository) LatestActive(phone string) (*models.OTPCode, error) {
	var c models.OTPCode
	err := r.db.Where("phone = ? AND consumed_at IS NULL AND expires_at > ?", phone, time.Now()).
		Order("created_at DESC").First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *OTPRepository) MarkConsumed(id uint) error {
	now := time.Now()
	return r.db.Model(&models.OTPCode{}).Where("id = ?", id).Update("consumed_at", &now).Error
}
