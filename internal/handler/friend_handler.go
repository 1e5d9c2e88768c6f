package handler

import (
	"net/http"
	"strconv"

	"nice/internal/middleware"
	"nice/internal/repository"
	"nice/internal/service"

	"github.com/gin-gonic/gin"
)

type FriendHandler struct {
	svc        *service.FriendshipService
	friendRepo *repository.FriendRepository
	blockRepo  *repository.BlockRepository
	userRepo   *repository.UserRepository
	notifSvc   *service.NotificationService
}

func NewFriendHandler(svc *service.FriendshipService, friendRepo *repository.FriendRepository, blockRepo *repository.BlockRepository, userRepo *repository.UserRepository, notifSvc *service.NotificationService) *FriendHandler {
	return &FriendHandler{svc: svc, friendRepo: friendRepo, blockRepo: blockRepo, userRepo: userRepo, notifSvc: notifSvc}
}

func friendshipStatusCode(err error) int {
	switch err {
	case service.ErrSelfRequest:
		return http.StatusBadRequest
	case service.ErrBlocked, service.ErrNotReceiver:
		return http.StatusForbidden
	case service.ErrAlreadyFriends, service.ErrDuplicateRequest:
		return http.StatusConflict
	case service.ErrRequestNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// SendRequest starts a friendship with another user.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		ReceiverID uint `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fr, err := h.svc.SendRequest(userID, req.ReceiverID)
	if err != nil {
		c.JSON(friendshipStatusCode(err), gin.H{"error": err.Error()})
		return
	}
	if h.notifSvc != nil {
		if sender, err := h.userRepo.GetByID(userID); err == nil {
			_ = h.notifSvc.NotifyFriendRequest(req.ReceiverID, fr.ID, sender.DisplayName())
		}
	}
	c.JSON(http.StatusCreated, gin.H{"request": fr})
}

func (h *FriendHandler) Accept(c *gin.Context) {
	userID := middleware.GetUserID(c)
	requestID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	fr, err := h.friendRepo.GetRequestByID(uint(requestID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "friend request not found"})
		return
	}
	f, err := h.svc.Accept(uint(requestID), userID)
	if err != nil {
		c.JSON(friendshipStatusCode(err), gin.H{"error": err.Error()})
		return
	}
	if h.notifSvc != nil {
		if accepter, err := h.userRepo.GetByID(userID); err == nil {
			_ = h.notifSvc.NotifyRequestAccepted(fr.SenderID, userID, accepter.DisplayName())
		}
	}
	c.JSON(http.StatusOK, gin.H{"friendship": f})
}

func (h *FriendHandler) Reject(c *gin.Context) {
	userID := middleware.GetUserID(c)
	requestID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.svc.Reject(uint(requestID), userID); err != nil {
		c.JSON(friendshipStatusCode(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *FriendHandler) ListIncoming(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)
	list, err := h.friendRepo.ListIncomingRequests(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list})
}

func (h *FriendHandler) ListOutgoing(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)
	list, err := h.friendRepo.ListOutgoingRequests(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list})
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)
	list, err := h.friendRepo.ListFriends(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	total, _ := h.friendRepo.CountFriends(userID)
	views := make([]gin.H, 0, len(list))
	for i := range list {
		views = append(views, publicProfileView(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"friends": views, "total": total})
}

func (h *FriendHandler) Unfriend(c *gin.Context) {
	userID := middleware.GetUserID(c)
	friendID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if friendID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := h.svc.Unfriend(userID, uint(friendID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unfriend failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Relationship reports the viewer's state with another user.
func (h *FriendHandler) Relationship(c *gin.Context) {
	userID := middleware.GetUserID(c)
	otherID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if otherID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	rel, err := h.svc.Relationship(userID, uint(otherID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationship": rel})
}

func (h *FriendHandler) Block(c *gin.Context) {
	userID := middleware.GetUserID(c)
	targetID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if targetID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := h.svc.Block(userID, uint(targetID)); err != nil {
		c.JSON(friendshipStatusCode(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *FriendHandler) Unblock(c *gin.Context) {
	userID := middleware.GetUserID(c)
	targetID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if targetID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := h.svc.Unblock(userID, uint(targetID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unblock failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *FriendHandler) ListBlocked(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.blockRepo.ListBlocked(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	views := make([]gin.H, 0, len(list))
	for i := range list {
		views = append(views, publicProfileView(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"blocked": views})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
