package repository

import (
	"context"
	"errors"

	"retroboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActionItemRepository struct {
	db *gorm.DB
}

func NewActionItemRepository(db *gorm.DB) *ActionItemRepository {
	return &ActionItemRepository{db: db}
}

func (r *ActionItemRepository) Create(ctx context.Context, item *model.ActionItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *ActionItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ActionItem, error) {
	var item model.ActionItem
	result := r.db.WithContext(ctx).First(&item, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrActionItemNotFound
		}
		return nil, result.Error
	}
	return &item, nil
}

// GetByBoardID returns a board's action items, pending ones first, newest
// first within a status.
func (r *ActionItemRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.ActionItem, error) {
	var items []model.ActionItem
	result := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("CASE status WHEN 'pending' THEN 0 WHEN 'done' THEN 1 ELSE 2 END").
		Order("created_at DESC").
		Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	return items, nil
}

// GetByAssignee returns action items assigned to the user across boards.
func (r *ActionItemRepository) GetByAssignee(ctx context.Context, assigneeID uuid.UUID) ([]model.ActionItem, error) {
	var items []model.ActionItem
	result := r.db.WithContext(ctx).
		Where("assignee_id = ?", assigneeID).
		Order("CASE status WHEN 'pending' THEN 0 WHEN 'done' THEN 1 ELSE 2 END").
		Order("created_at DESC").
		Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	return items, nil
}

func (r *ActionItemRepository) Update(ctx context.Context, item *model.ActionItem) error {
	result := r.db.WithContext(ctx).Save(item)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrActionItemNotFound
	}
	return nil
}

func (r *ActionItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.ActionItem{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrActionItemNotFound
	}
	return nil
}

// Move reassigns an action item to another board and bumps times_moved.
func (r *ActionItemRepository) Move(ctx context.Context, id, targetBoardID uuid.UUID) (*model.ActionItem, error) {
	var item model.ActionItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.ActionItem{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"board_id":    targetBoardID,
				"times_moved": gorm.Expr("times_moved + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrActionItemNotFound
		}
		return tx.First(&item, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SetStatus writes a new status value. Transition legality is checked by
// the mutation pipeline before this is called.
func (r *ActionItemRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) (*model.ActionItem, error) {
	var item model.ActionItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.ActionItem{}).
			Where("id = ?", id).
			Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrActionItemNotFound
		}
		return tx.First(&item, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}
