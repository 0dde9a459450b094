package model

import (
	"time"

	"github.com/google/uuid"
)

type Board struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Slug    string    `gorm:"uniqueIndex;not null"`
	Title   string    `gorm:"not null"`
	Private bool      `gorm:"not null;default:false"`
	// Set when this board was created by continuing another board. The
	// unique index guarantees at most one continuation per board.
	PreviousBoardID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Memberships []Membership `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
	Cards       []Card       `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
	ActionItems []ActionItem `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
}
