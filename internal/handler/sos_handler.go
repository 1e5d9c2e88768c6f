package handler

import (
	"net/http"

	"nice/internal/middleware"
	"nice/internal/service"
	"nice/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SOSHandler struct {
	svc *service.SOSService
}

func NewSOSHandler(svc *service.SOSService) *SOSHandler {
	return &SOSHandler{svc: svc}
}

// Trigger fires an emergency SMS to the user's emergency contacts.
// Location is optional; included as a maps link when present.
func (h *SOSHandler) Trigger(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	// Body is optional.
	_ = c.ShouldBindJSON(&req)
	count, err := h.svc.Trigger(c.Request.Context(), userID, req.Latitude, req.Longitude)
	if err != nil {
		switch err {
		case service.ErrNoEmergencyContacts, service.ErrBadPhone:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case service.ErrGatewayUnconfigured:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			logger.Log.Error("sos trigger failed", zap.Uint("user_id", userID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "alert could not be sent"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent", "contacts_alerted": count})
}
