package handler

import (
	"math"
	"net/http"
	"strconv"

	"nice/config"
	"nice/internal/middleware"
	"nice/internal/repository"

	"github.com/gin-gonic/gin"
)

type DiscoveryHandler struct {
	cfg           *config.Config
	discoveryRepo *repository.DiscoveryRepository
	userRepo      *repository.UserRepository
}

func NewDiscoveryHandler(cfg *config.Config, discoveryRepo *repository.DiscoveryRepository, userRepo *repository.UserRepository) *DiscoveryHandler {
	return &DiscoveryHandler{cfg: cfg, discoveryRepo: discoveryRepo, userRepo: userRepo}
}

// Discover lists complete profiles the viewer could befriend. Friends,
// pending pairs and blocked pairs are excluded in the query.
func (h *DiscoveryHandler) Discover(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)
	users, err := h.discoveryRepo.Discover(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "discover failed"})
		return
	}
	views := make([]gin.H, 0, len(users))
	for i := range users {
		views = append(views, publicProfileView(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

// Nearby returns users around the viewer for the map, with coordinates
// rounded so exact positions are never exposed.
func (h *DiscoveryHandler) Nearby(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	lat, lng := parseCoord(c, "lat"), parseCoord(c, "lng")
	if lat == nil || lng == nil {
		// Fall back to the stored profile location.
		lat, lng = u.Latitude, u.Longitude
	}
	if lat == nil || lng == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no location available; pass lat and lng"})
		return
	}
	radiusKm := h.cfg.Map.DefaultRadiusKm
	if v, err := strconv.ParseFloat(c.Query("radius_km"), 64); err == nil && v > 0 && v <= 100 {
		radiusKm = v
	}
	limit, _ := pagination(c)
	nearby, err := h.discoveryRepo.Nearby(userID, *lat, *lng, radiusKm, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "nearby failed"})
		return
	}
	out := make([]gin.H, 0, len(nearby))
	for i := range nearby {
		n := &nearby[i]
		view := publicProfileView(&n.User)
		// ~3 decimals of a degree is about 110m, matching the map fuzz.
		view["lat"] = roundCoord(*n.User.Latitude)
		view["lng"] = roundCoord(*n.User.Longitude)
		view["distance_km"] = math.Round(n.DistanceKm*10) / 10
		view["is_online"] = n.IsOnline
		view["last_seen_at"] = n.LastSeenAt
		out = append(out, view)
	}
	c.JSON(http.StatusOK, gin.H{"users": out, "radius_km": radiusKm})
}

func parseCoord(c *gin.Context, name string) *float64 {
	v, err := strconv.ParseFloat(c.Query(name), 64)
	if err != nil {
		return nil
	}
	return &v
}

func roundCoord(v float64) float64 {
	return math.Round(v*1000) / 1000
}
