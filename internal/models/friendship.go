package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// FriendRequest is a directional pending request. PairKey carries a unique
// index over the unordered pair so the store, not a read-before-write,
// rejects duplicates; rows are deleted on accept/reject, so the constraint
// only ever covers the active request.
type FriendRequest struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"not null;index" json:"sender_id"`
	ReceiverID uint      `gorm:"not null;index" json:"receiver_id"`
	PairKey    string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Status     string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	CreatedAt  time.Time `json:"created_at"`

	Sender   User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"-"`
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}

func (fr *FriendRequest) BeforeCreate(_ *gorm.DB) error {
	fr.PairKey = PairKey(fr.SenderID, fr.ReceiverID)
	return nil
}

// PairKey returns the canonical "min:max" key for an unordered user pair.
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Friendship is an undirected edge stored once: the smaller id always goes
// in UserID so no reverse-direction duplicate can exist.
type Friendship struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"user_id"`
	FriendID  uint      `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`

	User   User `gorm:"foreignKey:UserID" json:"-"`
	Friend User `gorm:"foreignKey:FriendID" json:"-"`
}

func (Friendship) TableName() string {
	return "friendships"
}

// BeforeCreate enforces the canonical smaller-id-first ordering.
func (f *Friendship) BeforeCreate(_ *gorm.DB) error {
	if f.UserID > f.FriendID {
		f.UserID, f.FriendID = f.FriendID, f.UserID
	}
	return nil
}

// Block is a directed blocker -> blocked edge.
type Block struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BlockerID uint      `gorm:"not null;uniqueIndex:idx_block_pair" json:"blocker_id"`
	BlockedID uint      `gorm:"not null;uniqueIndex:idx_block_pair" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`

	Blocker User `gorm:"foreignKey:BlockerID" json:"-"`
	Blocked User `gorm:"foreignKey:BlockedID" json:"-"`
}

func (Block) TableName() string {
	return "blocks"
}
