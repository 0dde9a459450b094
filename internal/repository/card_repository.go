package repository

import (
	"context"
	"errors"

	"retroboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

// Create adds a new card to the database
func (r *CardRepository) Create(ctx context.Context, card *model.Card) error {
	return r.db.WithContext(ctx).Create(card).Error
}

// GetByID retrieves a card by its ID
func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	var card model.Card
	result := r.db.WithContext(ctx).First(&card, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, result.Error
	}
	return &card, nil
}

// GetByBoardAndKind retrieves the cards of one column, newest first.
func (r *CardRepository) GetByBoardAndKind(ctx context.Context, boardID uuid.UUID, kind string) ([]model.Card, error) {
	var cards []model.Card
	result := r.db.WithContext(ctx).
		Where("board_id = ? AND kind = ?", boardID, kind).
		Order("created_at DESC").
		Find(&cards)
	if result.Error != nil {
		return nil, result.Error
	}
	return cards, nil
}

// GetByBoardID retrieves all cards of a board, newest first.
func (r *CardRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.Card, error) {
	var cards []model.Card
	result := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("created_at DESC").
		Find(&cards)
	if result.Error != nil {
		return nil, result.Error
	}
	return cards, nil
}

// Update updates an existing card
func (r *CardRepository) Update(ctx context.Context, card *model.Card) error {
	result := r.db.WithContext(ctx).Save(card)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}

// Delete removes a card by its ID
func (r *CardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Card{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}

// Like increments the likes counter atomically and returns the updated card.
// Rapid-fire likes from concurrent requests must not lose increments, so the
// update runs in SQL rather than read-modify-write.
func (r *CardRepository) Like(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	var card model.Card
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Card{}).
			Where("id = ?", id).
			Update("likes", gorm.Expr("likes + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCardNotFound
		}
		return tx.First(&card, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// Move reassigns a card to another board and bumps times_moved. Status and
// ordering are untouched; the card simply appears in the target board.
func (r *CardRepository) Move(ctx context.Context, id, targetBoardID uuid.UUID) (*model.Card, error) {
	var card model.Card
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Card{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"board_id":    targetBoardID,
				"times_moved": gorm.Expr("times_moved + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCardNotFound
		}
		return tx.First(&card, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &card, nil
}
