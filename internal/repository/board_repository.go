package repository

import (
	"context"
	"errors"

	"retroboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BoardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

// Create writes the board and its creator membership in one transaction, so
// a board can never exist without someone to administer it.
func (r *BoardRepository) Create(ctx context.Context, board *model.Board, creatorID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(board).Error; err != nil {
			return err
		}
		membership := model.Membership{
			BoardID: board.ID,
			UserID:  creatorID,
			Role:    model.RoleCreator,
		}
		return tx.Create(&membership).Error
	})
}

func (r *BoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	var board model.Board
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &board, nil
}

// GetBySlug looks up a board by its stable external identifier.
func (r *BoardRepository) GetBySlug(ctx context.Context, slug string) (*model.Board, error) {
	var board model.Board
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &board, nil
}

// GetContinuation returns the board that continued the given board, if any.
func (r *BoardRepository) GetContinuation(ctx context.Context, prevBoardID uuid.UUID) (*model.Board, error) {
	var board model.Board
	if err := r.db.WithContext(ctx).Where("previous_board_id = ?", prevBoardID).First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &board, nil
}

// GetMemberBoards returns boards the user participates in.
func (r *BoardRepository) GetMemberBoards(ctx context.Context, userID uuid.UUID) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.board_id = boards.id").
		Where("memberships.user_id = ?", userID).
		Find(&boards).Error
	return boards, err
}

// GetCreatorBoards returns boards where the user holds the creator role.
func (r *BoardRepository) GetCreatorBoards(ctx context.Context, userID uuid.UUID) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.board_id = boards.id").
		Where("memberships.user_id = ? AND memberships.role = ?", userID, model.RoleCreator).
		Find(&boards).Error
	return boards, err
}

func (r *BoardRepository) Update(ctx context.Context, board *model.Board) error {
	return r.db.WithContext(ctx).Save(board).Error
}

func (r *BoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Board{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBoardNotFound
	}
	return nil
}
