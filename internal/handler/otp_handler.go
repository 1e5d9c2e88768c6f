package handler

import (
	"net/http"

	"nice/internal/middleware"
	"nice/internal/service"

	"github.com/gin-gonic/gin"
)

type OTPHandler struct {
	svc *service.OTPService
}

func NewOTPHandler(svc *service.OTPService) *OTPHandler {
	return &OTPHandler{svc: svc}
}

// Send delivers a verification code to the phone.
func (h *OTPHandler) Send(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.Send(c.Request.Context(), req.Phone); err != nil {
		switch err {
		case service.ErrBadPhone:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case service.ErrOTPTooSoon:
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		case service.ErrGatewayUnconfigured:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "code could not be sent"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// Verify checks the code and marks the caller's phone verified.
func (h *OTPHandler) Verify(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Phone string `json:"phone" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.Verify(c.Request.Context(), userID, req.Phone, req.Code); err != nil {
		switch err {
		case service.ErrOTPExpired, service.ErrOTPInvalid:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case service.ErrGatewayUnconfigured:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}
