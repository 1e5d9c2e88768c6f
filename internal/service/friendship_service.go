package service

import (
	"errors"

	"nice/internal/models"

	"gorm.io/gorm"
)

var (
	ErrSelfRequest      = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrBlocked          = errors.New("action not allowed between blocked users")
	ErrDuplicateRequest = errors.New("a friend request already exists between these users")
	ErrRequestNotFound  = errors.New("friend request not found")
	ErrNotReceiver      = errors.New("only the receiver can act on this request")
)

// Relationship states for an ordered pair of users.
const (
	RelStrangers = "strangers"
	RelPending   = "pending"
	RelFriends   = "friends"
	RelBlocked   = "blocked"
)

// Relationship is the read-side projection of the pair's state. From/By
// qualify pending and blocked: PendingFrom is the requester, BlockedBy
// the blocker (from the viewer's pair ordering, either id).
type Relationship struct {
	State       string `json:"state"`
	PendingFrom uint   `json:"pending_from,omitempty"`
	RequestID   uint   `json:"request_id,omitempty"`
	BlockedBy   uint   `json:"blocked_by,omitempty"`
}

// FriendStore is the slice of the friend repository the state machine
// needs. Satisfied by *repository.FriendRepository.
type FriendStore interface {
	CreateRequest(fr *models.FriendRequest) error
	GetRequestByID(id uint) (*models.FriendRequest, error)
	DeleteRequest(id uint) error
	DeleteRequestsBetween(a, b uint) (int64, error)
	GetRequestBetween(a, b uint) (*models.FriendRequest, error)
	CreateFriendship(f *models.Friendship) error
	DeleteFriendship(a, b uint) (int64, error)
	AreFriends(a, b uint) (bool, error)
}

// BlockStore is the slice of the block repository the state machine
// needs. Satisfied by *repository.BlockRepository.
type BlockStore interface {
	Create(b *models.Block) error
	Delete(blockerID, blockedID uint) (int64, error)
	IsBlocked(blockerID, blockedID uint) (bool, error)
	IsBlockedEither(a, b uint) (bool, error)
}

// FriendshipService owns the strangers / pending / friends / blocked
// transitions. Duplicate-request prevention is not a read here: the
// insert relies on the store's unique pair constraint, and a duplicate
// key is the single source of truth.
type FriendshipService struct {
	friends FriendStore
	blocks  BlockStore
}

func NewFriendshipService(friends FriendStore, blocks BlockStore) *FriendshipService {
	return &FriendshipService{friends: friends, blocks: blocks}
}

// SendRequest moves (sender, receiver) from strangers to pending.
func (s *FriendshipService) SendRequest(senderID, receiverID uint) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}
	if blocked, err := s.blocks.IsBlockedEither(senderID, receiverID); err != nil {
		return nil, err
	} else if blocked {
		return nil, ErrBlocked
	}
	if friends, err := s.friends.AreFriends(senderID, receiverID); err != nil {
		return nil, err
	} else if friends {
		return nil, ErrAlreadyFriends
	}
	fr := &models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     "pending",
	}
	if err := s.friends.CreateRequest(fr); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}
	return fr, nil
}

// Accept moves the pair to friends: one canonical friendship row is
// created, then the request row is deleted.
func (s *FriendshipService) Accept(requestID, actorID uint) (*models.Friendship, error) {
	fr, err := s.friends.GetRequestByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if fr.ReceiverID != actorID {
		return nil, ErrNotReceiver
	}
	f := &models.Friendship{UserID: fr.SenderID, FriendID: fr.ReceiverID}
	if err := s.friends.CreateFriendship(f); err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}
	if err := s.friends.DeleteRequest(fr.ID); err != nil {
		return nil, err
	}
	return f, nil
}

// Reject deletes the request row only; the pair returns to strangers.
func (s *FriendshipService) Reject(requestID, actorID uint) error {
	fr, err := s.friends.GetRequestByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return err
	}
	if fr.ReceiverID != actorID {
		return ErrNotReceiver
	}
	return s.friends.DeleteRequest(fr.ID)
}

// Unfriend deletes the friendship in whichever orientation it is stored.
// A pair that was never friends is a no-op, not an error.
func (s *FriendshipService) Unfriend(a, b uint) error {
	_, err := s.friends.DeleteFriendship(a, b)
	return err
}

// Block removes any friendship and any pending request between the pair,
// then inserts the block edge. Blocking twice is a no-op.
func (s *FriendshipService) Block(blockerID, blockedID uint) error {
	if blockerID == blockedID {
		return ErrSelfRequest
	}
	if _, err := s.friends.DeleteFriendship(blockerID, blockedID); err != nil {
		return err
	}
	if _, err := s.friends.DeleteRequestsBetween(blockerID, blockedID); err != nil {
		return err
	}
	err := s.blocks.Create(&models.Block{BlockerID: blockerID, BlockedID: blockedID})
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	return nil
}

// Unblock deletes the edge. The friendship destroyed by Block is not
// restored.
func (s *FriendshipService) Unblock(blockerID, blockedID uint) error {
	_, err := s.blocks.Delete(blockerID, blockedID)
	return err
}

// Relationship projects the pair's state for the viewer. Blocked wins
// over friends, which wins over pending.
func (s *FriendshipService) Relationship(a, b uint) (*Relationship, error) {
	if blocked, err := s.blocks.IsBlocked(a, b); err != nil {
		return nil, err
	} else if blocked {
		return &Relationship{State: RelBlocked, BlockedBy: a}, nil
	}
	if blocked, err := s.blocks.IsBlocked(b, a); err != nil {
		return nil, err
	} else if blocked {
		return &Relationship{State: RelBlocked, BlockedBy: b}, nil
	}
	if friends, err := s.friends.AreFriends(a, b); err != nil {
		return nil, err
	} else if friends {
		return &Relationship{State: RelFriends}, nil
	}
	fr, err := s.friends.GetRequestBetween(a, b)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Relationship{State: RelStrangers}, nil
		}
		return nil, err
	}
	return &Relationship{State: RelPending, PendingFrom: fr.SenderID, RequestID: fr.ID}, nil
}
