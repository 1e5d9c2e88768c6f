package service

import (
	"errors"
	"strings"

	"nice/internal/domain"
	"nice/internal/models"

	"gorm.io/gorm"
)

var (
	ErrThreadPending = errors.New("thread is pending; accept or reject the request first")
	ErrEmptyMessage  = errors.New("message needs content or media")
	ErrNothingToAct  = errors.New("no pending message request from this user")
)

// MessageStore is the slice of the message repository the consent gate
// needs. Satisfied by *repository.MessageRepository.
type MessageStore interface {
	Create(m *models.Message) error
	Latest(a, b uint) (*models.Message, error)
	ListThread(a, b uint, limit, offset int) ([]models.Message, error)
	AnyAccepted(a, b uint) (bool, error)
	CountPendingFor(userID, peerID uint) (int64, error)
	RelabelPending(a, b uint, status string) ([]uint, error)
}

// BlockChecker is the read the messaging gate needs from the block
// repository.
type BlockChecker interface {
	IsBlockedEither(a, b uint) (bool, error)
}

// MessagingService enforces the message-request gate. The thread's
// status is the status of its latest message; a receiver with a pending
// thread cannot reply until they accept, and a thread that has ever been
// accepted stays accepted.
type MessagingService struct {
	messages MessageStore
	blocks   BlockChecker
}

func NewMessagingService(messages MessageStore, blocks BlockChecker) *MessagingService {
	return &MessagingService{messages: messages, blocks: blocks}
}

// ThreadStatus returns the consent status of the pair's thread, or ""
// when no messages exist yet.
func (s *MessagingService) ThreadStatus(a, b uint) (string, error) {
	m, err := s.messages.Latest(a, b)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return m.RequestStatus, nil
}

// CanSend reports whether sender may message peer right now, and the
// error the send would fail with if not.
func (s *MessagingService) CanSend(senderID, peerID uint) error {
	if senderID == peerID {
		return ErrSelfRequest
	}
	if blocked, err := s.blocks.IsBlockedEither(senderID, peerID); err != nil {
		return err
	} else if blocked {
		return ErrBlocked
	}
	accepted, err := s.messages.AnyAccepted(senderID, peerID)
	if err != nil {
		return err
	}
	if accepted {
		return nil
	}
	// Thread never accepted. The initiator may keep adding to their
	// request; the receiver of a pending request must accept first.
	pendingForSender, err := s.messages.CountPendingFor(senderID, peerID)
	if err != nil {
		return err
	}
	if pendingForSender > 0 {
		return ErrThreadPending
	}
	return nil
}

// Send creates a message. Its status is accepted if the thread was ever
// accepted, pending otherwise.
func (s *MessagingService) Send(senderID, receiverID uint, content, mediaURL string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && mediaURL == "" {
		return nil, ErrEmptyMessage
	}
	if err := s.CanSend(senderID, receiverID); err != nil {
		return nil, err
	}
	status := domain.RequestStatusPending
	if accepted, err := s.messages.AnyAccepted(senderID, receiverID); err != nil {
		return nil, err
	} else if accepted {
		status = domain.RequestStatusAccepted
	}
	m := &models.Message{
		SenderID:      senderID,
		ReceiverID:    receiverID,
		Content:       content,
		MediaURL:      mediaURL,
		RequestStatus: status,
	}
	if err := s.messages.Create(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Accept relabels every pending message the peer sent to actor as
// accepted and returns the ids touched. Only someone holding pending
// messages from the peer can accept.
func (s *MessagingService) Accept(actorID, peerID uint) ([]uint, error) {
	return s.decide(actorID, peerID, domain.RequestStatusAccepted)
}

// Reject relabels the pending messages as rejected. The sender may try
// again later with a fresh request.
func (s *MessagingService) Reject(actorID, peerID uint) ([]uint, error) {
	return s.decide(actorID, peerID, domain.RequestStatusRejected)
}

func (s *MessagingService) decide(actorID, peerID uint, status string) ([]uint, error) {
	pending, err := s.messages.CountPendingFor(actorID, peerID)
	if err != nil {
		return nil, err
	}
	if pending == 0 {
		return nil, ErrNothingToAct
	}
	return s.messages.RelabelPending(actorID, peerID, status)
}

// ListThread returns the pair's messages oldest first.
func (s *MessagingService) ListThread(a, b uint, limit, offset int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.messages.ListThread(a, b, limit, offset)
}
