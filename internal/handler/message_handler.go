package handler

import (
	"net/http"
	"strconv"

	"nice/internal/domain"
	"nice/internal/middleware"
	"nice/internal/models"
	"nice/internal/realtime"
	"nice/internal/repository"
	"nice/internal/service"
	"nice/internal/ws"

	"github.com/gin-gonic/gin"
)

// threadKey scopes a feed room to a message thread, shared by both
// participants regardless of direction.
func threadKey(a, b uint) string {
	return "thread:" + models.PairKey(a, b)
}

type MessageHandler struct {
	svc         *service.MessagingService
	messageRepo *repository.MessageRepository
	userRepo    *repository.UserRepository
	feedHub     *ws.FeedHub
	notifSvc    *service.NotificationService
}

func NewMessageHandler(svc *service.MessagingService, messageRepo *repository.MessageRepository, userRepo *repository.UserRepository, feedHub *ws.FeedHub, notifSvc *service.NotificationService) *MessageHandler {
	return &MessageHandler{svc: svc, messageRepo: messageRepo, userRepo: userRepo, feedHub: feedHub, notifSvc: notifSvc}
}

// ListConversations returns the latest message per peer.
func (h *MessageHandler) ListConversations(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := pagination(c)
	rows, err := h.messageRepo.ListConversations(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": rows})
}

// GetThread returns the thread with a peer plus its consent status.
func (h *MessageHandler) GetThread(c *gin.Context) {
	userID := middleware.GetUserID(c)
	peerID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if peerID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	limit, offset := pagination(c)
	list, err := h.svc.ListThread(userID, uint(peerID), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	status, err := h.svc.ThreadStatus(userID, uint(peerID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status failed"})
		return
	}
	pendingForMe, _ := h.messageRepo.CountPendingFor(userID, uint(peerID))
	c.JSON(http.StatusOK, gin.H{
		"messages":       list,
		"thread_status":  status,
		"pending_for_me": pendingForMe,
		"can_send":       h.svc.CanSend(userID, uint(peerID)) == nil,
	})
}

type sendMessageRequest struct {
	ReceiverID uint   `json:"receiver_id" binding:"required"`
	Content    string `json:"content"`
	MediaURL   string `json:"media_url"`
}

// Send creates a message and publishes the insert to the thread feed.
func (h *MessageHandler) Send(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.svc.Send(userID, req.ReceiverID, req.Content, req.MediaURL)
	if err != nil {
		switch err {
		case service.ErrSelfRequest, service.ErrEmptyMessage:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case service.ErrBlocked, service.ErrThreadPending:
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "send failed"})
		}
		return
	}
	h.feedHub.Publish(threadKey(userID, req.ReceiverID),
		realtime.NewEvent(realtime.ActionInsert, "messages", m.ID, m))
	h.notifyReceiver(userID, m)
	c.JSON(http.StatusCreated, gin.H{"message": m})
}

func (h *MessageHandler) notifyReceiver(senderID uint, m *models.Message) {
	if h.notifSvc == nil {
		return
	}
	sender, err := h.userRepo.GetByID(senderID)
	if err != nil {
		return
	}
	if m.RequestStatus == domain.RequestStatusPending {
		_ = h.notifSvc.NotifyMessageRequest(m.ReceiverID, senderID, sender.DisplayName())
		return
	}
	preview := m.Content
	if preview == "" {
		preview = "Sent you a photo"
	}
	_ = h.notifSvc.NotifyNewMessage(m.ReceiverID, senderID, sender.DisplayName(), preview)
}

// Accept relabels the peer's pending messages as accepted and publishes
// one update event per touched row so live views converge.
func (h *MessageHandler) Accept(c *gin.Context) {
	h.decide(c, domain.RequestStatusAccepted)
}

func (h *MessageHandler) Reject(c *gin.Context) {
	h.decide(c, domain.RequestStatusRejected)
}

func (h *MessageHandler) decide(c *gin.Context, status string) {
	userID := middleware.GetUserID(c)
	peerID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if peerID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var ids []uint
	var err error
	if status == domain.RequestStatusAccepted {
		ids, err = h.svc.Accept(userID, uint(peerID))
	} else {
		ids, err = h.svc.Reject(userID, uint(peerID))
	}
	if err != nil {
		if err == service.ErrNothingToAct {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	key := threadKey(userID, uint(peerID))
	for _, id := range ids {
		if m, err := h.messageRepo.GetByID(id); err == nil {
			h.feedHub.Publish(key, realtime.NewEvent(realtime.ActionUpdate, "messages", id, m))
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "updated": len(ids)})
}
