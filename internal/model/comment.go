package model

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	CardID    uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null"`
	Content   string    `gorm:"not null"`
	Likes     int       `gorm:"not null;default:0"`
	CreatedAt time.Time

	Card   Card `gorm:"foreignKey:CardID"`
	Author User `gorm:"foreignKey:AuthorID"`
}
