package model

import (
	"time"

	"github.com/google/uuid"
)

// Status values shared by cards and action items.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusClosed  = "closed"
)

type Card struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind       string    `gorm:"not null;index"`
	Body       string    `gorm:"not null"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null"`
	Status     string    `gorm:"not null;default:'pending';check:status IN ('pending', 'done', 'closed')"`
	Likes      int       `gorm:"not null;default:0"`
	TimesMoved int       `gorm:"not null;default:0"`
	CreatedAt  time.Time

	Board    Board     `gorm:"foreignKey:BoardID"`
	Author   User      `gorm:"foreignKey:AuthorID"`
	Comments []Comment `gorm:"foreignKey:CardID;constraint:OnDelete:CASCADE"`
}
