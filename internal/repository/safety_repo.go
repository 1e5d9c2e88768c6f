package repository

import (
	"nice/internal/models"

	"gorm.io/gorm"
)

type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(db *gorm.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

func (r *BlockRepository) Create(b *models.Block) error {
	return r.db.Create(b).Error
}

func (r *BlockRepository) Delete(blockerID, blockedID uint) (int64, error) {
	res := r.db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Delete(&models.Block{})
	return res.RowsAffected, res.Error
}

func (r *BlockRepository) IsBlocked(blockerID, blockedID uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.Block{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Count(&c).Error
	return c > 0, err
}

// IsBlockedEither reports whether a block edge exists in either direction.
func (r *BlockRepository) IsBlockedEither(a, b uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&c).Error
	return c > 0, err
}

func (r *BlockRepository) ListBlocked(blockerID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Table("users u").
		Joins("INNER JOIN blocks b ON b.blocked_id = u.id").
		Where("b.blocker_id = ? AND u.deleted_at IS NULL", blockerID).
		Order("b.created_at DESC").
		Find(&users).Error
	return users, err
}

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(log *models.AuditLog) error {
	return r.db.Create(log).Error
}
