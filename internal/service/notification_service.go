package service

import (
	"context"
	"encoding/json"

	"nice/internal/domain"
	"nice/internal/models"
	"nice/internal/repository"
)

type NotificationService struct {
	repo     *repository.NotificationRepository
	userRepo *repository.UserRepository
	fcm      *FCMService
}

func NewNotificationService(repo *repository.NotificationRepository, userRepo *repository.UserRepository, fcm *FCMService) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, fcm: fcm}
}

// Notify stores the notification and pushes it via FCM if the user has a
// registered device token.
func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	err := s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
	if err != nil {
		return err
	}
	s.sendPush(userID, notifType, title, body, data)
	return nil
}

func (s *NotificationService) sendPush(userID uint, notifType, title, body string, data map[string]interface{}) {
	if s.fcm == nil || s.userRepo == nil {
		return
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil || u.FCMToken == "" {
		return
	}
	_ = s.fcm.SendToUser(context.Background(), u.FCMToken, notifType, title, body, data)
}

func (s *NotificationService) NotifyFriendRequest(receiverID, requestID uint, senderName string) error {
	return s.Notify(receiverID, domain.NotifFriendRequest, "New friend request",
		senderName+" wants to connect with you", map[string]interface{}{"request_id": requestID})
}

func (s *NotificationService) NotifyRequestAccepted(senderID, friendID uint, friendName string) error {
	return s.Notify(senderID, domain.NotifRequestAccepted, "Request accepted",
		friendName+" accepted your friend request", map[string]interface{}{"friend_id": friendID})
}

// NotifyMessageRequest tells the receiver a stranger wants to chat.
func (s *NotificationService) NotifyMessageRequest(receiverID, senderID uint, senderName string) error {
	return s.Notify(receiverID, domain.NotifMessageRequest, "New message request",
		senderName+" sent you a message request", map[string]interface{}{"sender_id": senderID})
}

func (s *NotificationService) NotifyNewMessage(receiverID, senderID uint, senderName, preview string) error {
	if len(preview) > 80 {
		preview = preview[:80]
	}
	return s.Notify(receiverID, domain.NotifNewMessage, senderName,
		preview, map[string]interface{}{"sender_id": senderID})
}

func (s *NotificationService) NotifyForumPost(memberID, forumID, postID uint, forumName, authorName string) error {
	return s.Notify(memberID, domain.NotifForumPost, forumName,
		authorName+" posted in "+forumName,
		map[string]interface{}{"forum_id": forumID, "post_id": postID})
}

func (s *NotificationService) NotifyPostComment(authorID, postID uint, commenterName string) error {
	return s.Notify(authorID, domain.NotifPostComment, "New comment",
		commenterName+" commented on your post", map[string]interface{}{"post_id": postID})
}

// NotifySOSSent confirms to the sender that their alert went out.
func (s *NotificationService) NotifySOSSent(userID uint, contactCount int) error {
	return s.Notify(userID, domain.NotifSOSSent, "SOS alert sent",
		"Your emergency contacts have been alerted", map[string]interface{}{"contacts": contactCount})
}
