package repository

import (
	"context"
	"errors"

	"retroboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// FindByIdentifier resolves a permission by its identifier string, returning
// nil when unknown.
func (r *PermissionRepository) FindByIdentifier(ctx context.Context, identifier string) (*model.Permission, error) {
	var permission model.Permission
	err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&permission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &permission, nil
}

// EnsureIdentifier finds or creates a permission record for the identifier.
func (r *PermissionRepository) EnsureIdentifier(ctx context.Context, identifier string) (*model.Permission, error) {
	permission, err := r.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if permission != nil {
		return permission, nil
	}
	permission = &model.Permission{Identifier: identifier}
	if err := r.db.WithContext(ctx).Create(permission).Error; err != nil {
		return nil, err
	}
	return permission, nil
}

// HasBoardGrant reports whether an explicit board-scoped grant exists.
func (r *PermissionRepository) HasBoardGrant(ctx context.Context, userID, permissionID, boardID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BoardPermission{}).
		Where("user_id = ? AND permission_id = ? AND board_id = ?", userID, permissionID, boardID).
		Count(&count).Error
	return count > 0, err
}

// HasCardGrant reports whether an explicit card-scoped grant exists.
func (r *PermissionRepository) HasCardGrant(ctx context.Context, userID, permissionID, cardID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CardPermission{}).
		Where("user_id = ? AND permission_id = ? AND card_id = ?", userID, permissionID, cardID).
		Count(&count).Error
	return count > 0, err
}

// HasCommentGrant reports whether an explicit comment-scoped grant exists.
func (r *PermissionRepository) HasCommentGrant(ctx context.Context, userID, permissionID, commentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CommentPermission{}).
		Where("user_id = ? AND permission_id = ? AND comment_id = ?", userID, permissionID, commentID).
		Count(&count).Error
	return count > 0, err
}

func (r *PermissionRepository) CreateBoardGrant(ctx context.Context, grant *model.BoardPermission) error {
	return r.db.WithContext(ctx).Create(grant).Error
}

func (r *PermissionRepository) CreateCardGrant(ctx context.Context, grant *model.CardPermission) error {
	return r.db.WithContext(ctx).Create(grant).Error
}

func (r *PermissionRepository) CreateCommentGrant(ctx context.Context, grant *model.CommentPermission) error {
	return r.db.WithContext(ctx).Create(grant).Error
}

// GetBoardGrants returns the board-scoped grants for a board with their
// permission records loaded.
func (r *PermissionRepository) GetBoardGrants(ctx context.Context, boardID uuid.UUID) ([]model.BoardPermission, error) {
	var grants []model.BoardPermission
	err := r.db.WithContext(ctx).Preload("Permission").Where("board_id = ?", boardID).Find(&grants).Error
	return grants, err
}
