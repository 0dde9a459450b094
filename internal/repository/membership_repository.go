package repository

import (
	"context"
	"errors"

	"retroboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Create adds a user to a board. If a membership already exists for the
// (board, user) pair the existing record is returned untouched.
func (r *MembershipRepository) Create(ctx context.Context, membership *model.Membership) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Membership
		err := tx.Where("board_id = ? AND user_id = ?", membership.BoardID, membership.UserID).
			First(&existing).Error
		if err == nil {
			*membership = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(membership).Error
	})
}

// InviteByEmails resolves emails to users and adds member-role memberships
// for them in one transaction, so a failure on any email leaves none of
// them written. Unknown emails are reported back, existing memberships are
// returned untouched. Each returned membership carries its User.
func (r *MembershipRepository) InviteByEmails(ctx context.Context, boardID uuid.UUID, emails []string) ([]model.Membership, []string, error) {
	var invited []model.Membership
	var unknown []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, email := range emails {
			var user model.User
			if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					unknown = append(unknown, email)
					continue
				}
				return err
			}

			var membership model.Membership
			err := tx.Where("board_id = ? AND user_id = ?", boardID, user.ID).
				First(&membership).Error
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				membership = model.Membership{
					BoardID: boardID,
					UserID:  user.ID,
					Role:    model.RoleMember,
				}
				if err := tx.Create(&membership).Error; err != nil {
					return err
				}
			}
			membership.User = user
			invited = append(invited, membership)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return invited, unknown, nil
}

func (r *MembershipRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Membership, error) {
	var membership model.Membership
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

func (r *MembershipRepository) GetByBoardAndUser(ctx context.Context, boardID, userID uuid.UUID) (*model.Membership, error) {
	var membership model.Membership
	err := r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// GetByBoardID returns board memberships with their users preloaded.
func (r *MembershipRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.Membership, error) {
	var memberships []model.Membership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("board_id = ?", boardID).
		Find(&memberships).Error
	return memberships, err
}

// GetUserRole returns the user's role on the board, or an empty string when
// the user is not a member.
func (r *MembershipRepository) GetUserRole(ctx context.Context, boardID, userID uuid.UUID) (string, error) {
	var membership model.Membership
	err := r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return membership.Role, nil
}

// SetReady flips the per-board readiness flag on a membership.
func (r *MembershipRepository) SetReady(ctx context.Context, id uuid.UUID, ready bool) error {
	result := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("id = ?", id).
		Update("ready", ready)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

func (r *MembershipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Membership{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}
