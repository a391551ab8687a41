package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"not null"`
	PhotoURL     string
	PasswordHash string
	Provider     string
	Role         string    `gorm:"not null;index"`
	CreatedAt    time.Time `gorm:"not null;index"`
	UpdatedAt    time.Time
}

type StyleModel struct {
	ID                  string `gorm:"primaryKey"`
	Title               string `gorm:"not null"`
	Description         string `gorm:"type:text"`
	ImageURL            string
	Category            string `gorm:"not null;index"`
	PriceWithoutFabrics *int64
	PriceWithFabrics    *int64
	DeliveryTime        string
	Likes               datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	Tags                datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	Source              string         `gorm:"not null"`
	CreatedAt           time.Time      `gorm:"not null;index"`
	UpdatedAt           time.Time      `gorm:"not null"`
}

type FeedbackModel struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"not null;index"`
	UserName  string `gorm:"not null"`
	UserPhoto string
	Comment   string    `gorm:"type:text;not null"`
	Rating    int       `gorm:"not null"`
	Approved  bool      `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null;index"`
}

type ContactMessageModel struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"not null"`
	Phone     string    `gorm:"not null"`
	Subject   string    `gorm:"not null"`
	Message   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}
