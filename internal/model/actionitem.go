package model

import (
	"time"

	"github.com/google/uuid"
)

type ActionItem struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Body       string     `gorm:"not null"`
	AuthorID   uuid.UUID  `gorm:"type:uuid;not null"`
	AssigneeID *uuid.UUID `gorm:"type:uuid"`
	Status     string     `gorm:"not null;default:'pending';check:status IN ('pending', 'done', 'closed')"`
	TimesMoved int        `gorm:"not null;default:0"`
	CreatedAt  time.Time

	Board    Board `gorm:"foreignKey:BoardID"`
	Author   User  `gorm:"foreignKey:AuthorID"`
	Assignee User  `gorm:"foreignKey:AssigneeID"`
}
