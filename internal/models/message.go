package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is one direct message. There is no conversation table: the
// thread between two users is the set of messages for the pair, and the
// thread's consent status is read off the most recent message.
type Message struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SenderID      uint      `gorm:"not null;index:idx_messages_pair" json:"sender_id"`
	ReceiverID    uint      `gorm:"not null;index:idx_messages_pair" json:"receiver_id"`
	Content       string    `gorm:"type:text" json:"content"`
	MediaURL      string    `gorm:"size:512" json:"media_url"`
	RequestStatus string    `gorm:"size:20;not null;default:'pending';index" json:"request_status"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Sender   User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}
