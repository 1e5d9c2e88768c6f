package repository

import (
	"time"

	"nice/internal/models"
	"nice/pkg/location"

	"gorm.io/gorm"
)

// DiscoveryRepository builds the "people you may know" list and the
// nearby-users map. All relationship exclusions happen in SQL so the
// page size is honest.
type DiscoveryRepository struct {
	db *gorm.DB
}

func NewDiscoveryRepository(db *gorm.DB) *DiscoveryRepository {
	return &DiscoveryRepository{db: db}
}

// visibleScope excludes, relative to viewerID: the viewer, users either
// side has blocked, existing friends, and pairs with a pending request.
func visibleScope(db *gorm.DB, viewerID uint) *gorm.DB {
	return db.
		Where("u.id != ?", viewerID).
		Where("NOT EXISTS (SELECT 1 FROM blocks b WHERE (b.blocker_id = ? AND b.blocked_id = u.id) OR (b.blocker_id = u.id AND b.blocked_id = ?))", viewerID, viewerID).
		Where("NOT EXISTS (SELECT 1 FROM friendships f WHERE (f.user_id = ? AND f.friend_id = u.id) OR (f.user_id = u.id AND f.friend_id = ?))", viewerID, viewerID).
		Where("NOT EXISTS (SELECT 1 FROM friend_requests fr WHERE (fr.sender_id = ? AND fr.receiver_id = u.id) OR (fr.sender_id = u.id AND fr.receiver_id = ?))", viewerID, viewerID)
}

// Discover returns profiles the viewer could befriend.
func (r *DiscoveryRepository) Discover(viewerID uint, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = 20
	}
	var users []models.User
	err := visibleScope(r.db.Table("users u"), viewerID).
		Where("u.deleted_at IS NULL AND u.profile_complete = ?", true).
		Order("u.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	return users, err
}

type NearbyUser struct {
	User       models.User `json:"user"`
	DistanceKm float64     `json:"distance_km"`
	IsOnline   bool        `json:"is_online"`
	LastSeenAt time.Time   `json:"last_seen_at"`
}

// Nearby returns users with shared coordinates within radiusKm of the
// viewer. Bounding-box pre-filter in SQL, exact Haversine in app.
func (r *DiscoveryRepository) Nearby(viewerID uint, lat, lng, radiusKm float64, limit int) ([]NearbyUser, error) {
	if limit <= 0 {
		limit = 50
	}
	// 1 degree ~ 111km
	delta := radiusKm / 111.0
	latMin, latMax := lat-delta, lat+delta
	lngMin, lngMax := lng-delta, lng+delta

	var rows []struct {
		models.User
		IsOnline   bool
		LastSeenAt *time.Time
	}
	err := r.db.Table("users u").
		Select("u.*, up.is_online, up.last_seen_at").
		Joins("LEFT JOIN user_presence up ON up.user_id = u.id").
		Where("u.id != ? AND u.deleted_at IS NULL", viewerID).
		Where("u.latitude BETWEEN ? AND ? AND u.longitude BETWEEN ? AND ?", latMin, latMax, lngMin, lngMax).
		Where("NOT EXISTS (SELECT 1 FROM blocks b WHERE (b.blocker_id = ? AND b.blocked_id = u.id) OR (b.blocker_id = u.id AND b.blocked_id = ?))", viewerID, viewerID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]NearbyUser, 0, len(rows))
	now := time.Now()
	for _, row := range rows {
		if row.Latitude == nil || row.Longitude == nil {
			continue
		}
		distKm := location.HaversineKm(lat, lng, *row.Latitude, *row.Longitude)
		if distKm > radiusKm {
			continue
		}
		lastSeen := now
		if row.LastSeenAt != nil {
			lastSeen = *row.LastSeenAt
		}
		out = append(out, NearbyUser{
			User:       row.User,
			DistanceKm: distKm,
			IsOnline:   row.IsOnline,
			LastSeenAt: lastSeen,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
