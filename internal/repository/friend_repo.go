package repository

import (
	"nice/internal/models"

	"gorm.io/gorm"
)

type FriendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// CreateRequest inserts a friend request. The pair_key unique index makes
// a concurrent duplicate surface as gorm.ErrDuplicatedKey.
func (r *FriendRepository) CreateRequest(fr *models.FriendRequest) error {
	return r.db.Create(fr).Error
}

func (r *FriendRepository) GetRequestByID(id uint) (*models.FriendRequest, error) {
	var fr models.FriendRequest
	err := r.db.First(&fr, id).Error
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

func (r *FriendRepository) DeleteRequest(id uint) error {
	return r.db.Delete(&models.FriendRequest{}, id).Error
}

// DeleteRequestsBetween removes any request between the pair, in either
// direction. Returns the number of rows removed.
func (r *FriendRepository) DeleteRequestsBetween(a, b uint) (int64, error) {
	res := r.db.Where("pair_key = ?", models.PairKey(a, b)).Delete(&models.FriendRequest{})
	return res.RowsAffected, res.Error
}

func (r *FriendRepository) GetRequestBetween(a, b uint) (*models.FriendRequest, error) {
	var fr models.FriendRequest
	err := r.db.Where("pair_key = ?", models.PairKey(a, b)).First(&fr).Error
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

func (r *FriendRepository) ListIncomingRequests(userID uint, limit, offset int) ([]models.FriendRequest, error) {
	var list []models.FriendRequest
	err := r.db.Where("receiver_id = ?", userID).
		Preload("Sender").Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *FriendRepository) ListOutgoingRequests(userID uint, limit, offset int) ([]models.FriendRequest, error) {
	var list []models.FriendRequest
	err := r.db.Where("sender_id = ?", userID).
		Preload("Receiver").Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *FriendRepository) CreateFriendship(f *models.Friendship) error {
	return r.db.Create(f).Error
}

// DeleteFriendship removes the canonical row for the pair regardless of
// which orientation the caller passes. Zero rows is not an error.
func (r *FriendRepository) DeleteFriendship(a, b uint) (int64, error) {
	if a > b {
		a, b = b, a
	}
	res := r.db.Where("user_id = ? AND friend_id = ?", a, b).Delete(&models.Friendship{})
	return res.RowsAffected, res.Error
}

func (r *FriendRepository) AreFriends(a, b uint) (bool, error) {
	if a > b {
		a, b = b, a
	}
	var c int64
	err := r.db.Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", a, b).Count(&c).Error
	return c > 0, err
}

// ListFriends returns the peers of userID, resolving whichever side of
// the canonical row the user occupies.
func (r *FriendRepository) ListFriends(userID uint, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := r.db.Table("users u").
		Joins("INNER JOIN friendships f ON (f.user_id = ? AND f.friend_id = u.id) OR (f.friend_id = ? AND f.user_id = u.id)", userID, userID).
		Where("u.deleted_at IS NULL").
		Order("f.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	return users, err
}

func (r *FriendRepository) CountFriends(userID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.Friendship{}).
		Where("user_id = ? OR friend_id = ?", userID, userID).Count(&c).Error
	return c, err
}
