package database

import (
	"nice/config"
	"nice/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
		// Unique-index violations surface as gorm.ErrDuplicatedKey so the
		// store is the single arbiter of duplicates (friend requests,
		// phone numbers, likes) instead of check-then-insert reads.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserChild{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Block{},
		&models.Message{},
		&models.Forum{},
		&models.ForumMember{},
		&models.ForumPost{},
		&models.PostAttachment{},
		&models.PostComment{},
		&models.PostLike{},
		&models.Notification{},
		&models.UserPresence{},
		&models.AuditLog{},
		&models.OTPCode{},
	)
}
