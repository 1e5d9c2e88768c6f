package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone        string     `gorm:"uniqueIndex;size:32;not null" json:"phone"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	GoogleID     *string    `gorm:"uniqueIndex;size:255" json:"-"` // nil for email signups (avoids duplicate '' on unique index)
	FirstName    string     `gorm:"size:100" json:"first_name"`
	LastName     string     `gorm:"size:100" json:"last_name"`
	AvatarURL    string     `gorm:"size:512" json:"avatar_url"`
	Bio          string     `gorm:"type:text" json:"bio"`
	Profession   string     `gorm:"size:120" json:"profession"`
	// Ordered, comma-joined; the first entry is exposed as primary_language.
	Languages         string     `gorm:"size:255" json:"-"`
	MaritalStatus     string     `gorm:"size:30" json:"marital_status"`
	EmergencyContact1 string     `gorm:"size:32" json:"emergency_contact_1"`
	EmergencyContact2 string     `gorm:"size:32" json:"emergency_contact_2"`
	Latitude          *float64   `json:"latitude"`
	Longitude         *float64   `json:"longitude"`
	AddressLine       string     `gorm:"size:255" json:"address_line"`
	City              string     `gorm:"size:100" json:"city"`
	Country           string     `gorm:"size:100" json:"country"`
	EducationLevel    string     `gorm:"size:100" json:"education_level"`
	EducationField    string     `gorm:"size:120" json:"education_field"`
	ProfileComplete   bool       `gorm:"default:false" json:"profile_complete"`
	PhoneVerifiedAt   *time.Time `json:"phone_verified_at"`
	FCMToken          string     `gorm:"size:512" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	Children []UserChild `gorm:"foreignKey:UserID" json:"children,omitempty"`
}

// UserChild is one of up to four children on a profile.
type UserChild struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
}

func (UserChild) TableName() string {
	return "user_children"
}

func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name, _, _ = strings.Cut(u.Email, "@")
	}
	return name
}

// LanguageList splits the stored comma-joined languages, preserving order.
func (u *User) LanguageList() []string {
	if u.Languages == "" {
		return nil
	}
	parts := strings.Split(u.Languages, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PrimaryLanguage is the first language in the ordered list, or "".
func (u *User) PrimaryLanguage() string {
	if l := u.LanguageList(); len(l) > 0 {
		return l[0]
	}
	return ""
}
