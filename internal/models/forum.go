package models

import (
	"time"

	"gorm.io/gorm"
)

type Forum struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:120;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"size:512" json:"image_url"`
	CreatedBy   uint      `gorm:"not null;index" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Forum) TableName() string {
	return "forums"
}

// ForumMember is the user <-> forum membership edge.
type ForumMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ForumID   uint      `gorm:"not null;uniqueIndex:idx_forum_member" json:"forum_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_forum_member" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ForumMember) TableName() string {
	return "forum_members"
}

type ForumPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ForumID   uint      `gorm:"not null;index" json:"forum_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Author      User             `gorm:"foreignKey:UserID" json:"-"`
	Attachments []PostAttachment `gorm:"foreignKey:PostID" json:"attachments,omitempty"`
}

func (ForumPost) TableName() string {
	return "forum_posts"
}

// PostAttachment is a typed media reference on a post (image, video or file).
type PostAttachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	URL       string    `gorm:"size:512;not null" json:"url"`
	Type      string    `gorm:"size:10;not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostAttachment) TableName() string {
	return "post_attachments"
}

// PostComment may reference a parent comment; the data model permits
// arbitrary depth, the API presents one level of nesting.
type PostComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Author User `gorm:"foreignKey:UserID" json:"-"`
}

func (PostComment) TableName() string {
	return "post_comments"
}

// PostLike is the like edge; the unique pair index makes a double like a
// constraint violation rather than a second row.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_like" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_like" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostLike) TableName() string {
	return "post_likes"
}
