package model

import (
	"github.com/google/uuid"
)

// Permission is a named capability, looked up by its identifier string.
type Permission struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Identifier string    `gorm:"uniqueIndex;not null"`
}

// BoardPermission grants a permission to a user on a board.
type BoardPermission struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID      uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	PermissionID uuid.UUID `gorm:"type:uuid;not null"`

	Board      Board      `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
	User       User       `gorm:"foreignKey:UserID"`
	Permission Permission `gorm:"foreignKey:PermissionID"`
}

// CardPermission grants a permission to a user on a single card.
type CardPermission struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	CardID       uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	PermissionID uuid.UUID `gorm:"type:uuid;not null"`

	Card       Card       `gorm:"foreignKey:CardID;constraint:OnDelete:CASCADE"`
	User       User       `gorm:"foreignKey:UserID"`
	Permission Permission `gorm:"foreignKey:PermissionID"`
}

// CommentPermission grants a permission to a user on a single comment.
type CommentPermission struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	CommentID    uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	PermissionID uuid.UUID `gorm:"type:uuid;not null"`

	Comment    Comment    `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE"`
	User       User       `gorm:"foreignKey:UserID"`
	Permission Permission `gorm:"foreignKey:PermissionID"`
}
