package handler

import (
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nice/config"
	"nice/internal/domain"
	"nice/internal/middleware"
	"nice/internal/models"
	"nice/internal/repository"
	"nice/internal/service"
	"nice/internal/ws"
	"nice/pkg/cloudinary"
	"nice/pkg/location"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProfileHandler struct {
	cfg           *config.Config
	userRepo      *repository.UserRepository
	presenceRepo  *repository.PresenceRepository
	friendshipSvc *service.FriendshipService
	cloud         cloudinary.Client
	mapHub        *ws.MapHub
}

func NewProfileHandler(cfg *config.Config, userRepo *repository.UserRepository, presenceRepo *repository.PresenceRepository, friendshipSvc *service.FriendshipService, cloud cloudinary.Client, mapHub *ws.MapHub) *ProfileHandler {
	return &ProfileHandler{
		cfg:           cfg,
		userRepo:      userRepo,
		presenceRepo:  presenceRepo,
		friendshipSvc: friendshipSvc,
		cloud:         cloud,
		mapHub:        mapHub,
	}
}

// profileView shapes a user for API responses, exposing the ordered
// language list instead of the stored join.
func profileView(u *models.User) gin.H {
	return gin.H{
		"id":                  u.ID,
		"email":               u.Email,
		"phone":               u.Phone,
		"first_name":          u.FirstName,
		"last_name":           u.LastName,
		"display_name":        u.DisplayName(),
		"avatar_url":          u.AvatarURL,
		"bio":                 u.Bio,
		"profession":          u.Profession,
		"languages":           u.LanguageList(),
		"primary_language":    u.PrimaryLanguage(),
		"marital_status":      u.MaritalStatus,
		"emergency_contact_1": u.EmergencyContact1,
		"emergency_contact_2": u.EmergencyContact2,
		"latitude":            u.Latitude,
		"longitude":           u.Longitude,
		"address_line":        u.AddressLine,
		"city":                u.City,
		"country":             u.Country,
		"education_level":     u.EducationLevel,
		"education_field":     u.EducationField,
		"profile_complete":    u.ProfileComplete,
		"phone_verified":      u.PhoneVerifiedAt != nil,
		"children":            u.Children,
		"created_at":          u.CreatedAt,
	}
}

// publicProfileView hides contact details and exact location from other
// users.
func publicProfileView(u *models.User) gin.H {
	return gin.H{
		"id":               u.ID,
		"display_name":     u.DisplayName(),
		"avatar_url":       u.AvatarURL,
		"bio":              u.Bio,
		"profession":       u.Profession,
		"languages":        u.LanguageList(),
		"primary_language": u.PrimaryLanguage(),
		"city":             u.City,
		"country":          u.Country,
	}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	u, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profileView(u)})
}

type updateProfileRequest struct {
	FirstName         *string            `json:"first_name"`
	LastName          *string            `json:"last_name"`
	Bio               *string            `json:"bio"`
	Profession        *string            `json:"profession"`
	Languages         *[]string          `json:"languages"`
	MaritalStatus     *string            `json:"marital_status"`
	EmergencyContact1 *string            `json:"emergency_contact_1"`
	EmergencyContact2 *string            `json:"emergency_contact_2"`
	AddressLine       *string            `json:"address_line"`
	City              *string            `json:"city"`
	Country           *string            `json:"country"`
	EducationLevel    *string            `json:"education_level"`
	EducationField    *string            `json:"education_field"`
	Children          *[]childRequest    `json:"children"`
}

type childRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
}

// UpdateMe applies a partial profile update. Languages stay in the order
// the client sends them; the first one is the primary language.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.Profession != nil {
		u.Profession = *req.Profession
	}
	if req.Languages != nil {
		langs := make([]string, 0, len(*req.Languages))
		for _, l := range *req.Languages {
			if l = strings.TrimSpace(l); l != "" {
				langs = append(langs, l)
			}
		}
		u.Languages = strings.Join(langs, ",")
	}
	if req.MaritalStatus != nil {
		u.MaritalStatus = *req.MaritalStatus
	}
	if req.EmergencyContact1 != nil {
		u.EmergencyContact1 = *req.EmergencyContact1
	}
	if req.EmergencyContact2 != nil {
		u.EmergencyContact2 = *req.EmergencyContact2
	}
	if req.AddressLine != nil {
		u.AddressLine = *req.AddressLine
	}
	if req.City != nil {
		u.City = *req.City
	}
	if req.Country != nil {
		u.Country = *req.Country
	}
	if req.EducationLevel != nil {
		u.EducationLevel = *req.EducationLevel
	}
	if req.EducationField != nil {
		u.EducationField = *req.EducationField
	}
	if req.Children != nil {
		if len(*req.Children) > domain.MaxChildren {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at most 4 children allowed"})
			return
		}
		children := make([]models.UserChild, 0, len(*req.Children))
		for _, ch := range *req.Children {
			child := models.UserChild{Name: strings.TrimSpace(ch.Name)}
			if ch.DateOfBirth != "" {
				dob, err := time.Parse("2006-01-02", ch.DateOfBirth)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_of_birth format (use YYYY-MM-DD)"})
					return
				}
				child.DateOfBirth = dob
			}
			children = append(children, child)
		}
		if err := h.userRepo.ReplaceChildren(userID, children); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	u.ProfileComplete = isProfileComplete(u)
	if err := h.userRepo.Update(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	u, _ = h.userRepo.GetByID(userID)
	c.JSON(http.StatusOK, gin.H{"user": profileView(u)})
}

// missingProfileFields lists what still blocks the complete-profile
// gate: name, phone, profession and at least one language.
func missingProfileFields(u *models.User) []string {
	var missing []string
	if strings.TrimSpace(u.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(u.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(u.Profession) == "" {
		missing = append(missing, "profession")
	}
	if u.Languages == "" {
		missing = append(missing, "languages")
	}
	return missing
}

// isProfileComplete gates discovery visibility.
func isProfileComplete(u *models.User) bool {
	return len(missingProfileFields(u)) == 0
}

// CompleteProfile is the explicit gate check: it reports which required
// fields are still missing, or sets the flag when everything is in
// place.
func (h *ProfileHandler) CompleteProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if missing := missingProfileFields(u); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile incomplete", "missing": missing})
		return
	}
	if !u.ProfileComplete {
		u.ProfileComplete = true
		if err := h.userRepo.Update(u); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"user": profileView(u)})
}

// UpdateAvatar replaces the profile picture: the new image is uploaded
// first, the row updated, then the old asset destroyed so a failed
// upload never leaves the profile without a picture.
func (h *ProfileHandler) UpdateAvatar(c *gin.Context) {
	userID := middleware.GetUserID(c)
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()
	folder := "nice/avatars/" + strconv.FormatUint(uint64(userID), 10)
	publicID := "avatar_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	url, _, err := h.cloud.UploadImage(c.Request.Context(), f, folder, publicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	oldURL := u.AvatarURL
	u.AvatarURL = url
	if err := h.userRepo.Update(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if oldURL != "" {
		_ = h.cloud.DeleteByURL(c.Request.Context(), oldURL)
	}
	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}

// UpdateLocation stores exact coordinates and pushes a fuzzed marker to
// the live map. Exact coordinates never leave the row.
func (h *ProfileHandler) UpdateLocation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Latitude  float64 `json:"latitude" binding:"required,min=-90,max=90"`
		Longitude float64 `json:"longitude" binding:"required,min=-180,max=180"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.userRepo.UpdateLocation(userID, req.Latitude, req.Longitude); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if h.mapHub != nil {
		u, err := h.userRepo.GetByID(userID)
		if err == nil {
			online := false
			if p, _ := h.presenceRepo.GetByUserID(userID); p != nil {
				online = p.IsOnline
			}
			fuzz := location.FuzzMeters(h.cfg.Map.FuzzMeters)
			lat := req.Latitude + (rand.Float64()*2-1)*fuzz
			lng := req.Longitude + (rand.Float64()*2-1)*fuzz
			h.mapHub.UpdateLocation(userID, u.DisplayName(), lat, lng, online)
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetUser returns another user's public profile together with the
// viewer's relationship to them. Blocked pairs see nothing.
func (h *ProfileHandler) GetUser(c *gin.Context) {
	viewerID := middleware.GetUserID(c)
	targetID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if targetID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	u, err := h.userRepo.GetByID(uint(targetID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	rel, err := h.friendshipSvc.Relationship(viewerID, u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if rel.State == service.RelBlocked {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": publicProfileView(u), "relationship": rel})
}
