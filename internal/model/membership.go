package model

import (
	"time"

	"github.com/google/uuid"
)

// Membership links a user to a board with a role and a per-board readiness
// flag. One membership per (board, user) pair.
type Membership struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_board_user"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_board_user"`
	Role      string    `gorm:"not null;default:'member';check:role IN ('member', 'creator', 'admin', 'host')"`
	Ready     bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Board Board `gorm:"foreignKey:BoardID"`
	User  User  `gorm:"foreignKey:UserID"`
}

// Board roles
const (
	RoleMember  = "member"
	RoleCreator = "creator"
	RoleAdmin   = "admin"
	RoleHost    = "host"
)
