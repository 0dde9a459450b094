package repository_test

import (
	"context"
	"testing"
	"time"

	"retroboard/internal/model"
	"retroboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	assert.NoError(t, err)

	return gormDB, mock
}

func cardRows(card *model.Card) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "board_id", "kind", "body", "author_id", "status", "likes", "times_moved", "created_at"}).
		AddRow(card.ID.String(), card.BoardID.String(), card.Kind, card.Body, card.AuthorID.String(), card.Status, card.Likes, card.TimesMoved, time.Now())
}

func TestCardRepository_Like_Increments(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	cardID := uuid.New()
	updated := &model.Card{
		ID:       cardID,
		BoardID:  uuid.New(),
		Kind:     "mad",
		Body:     "deploys keep failing",
		AuthorID: uuid.New(),
		Status:   model.StatusPending,
		Likes:    3,
	}

	// The increment runs in SQL so concurrent likes never lose updates.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "cards" SET "likes"=likes \+ 1 WHERE id = .*`).
		WithArgs(cardID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM "cards" WHERE id = .*`).
		WithArgs(cardID, 1).
		WillReturnRows(cardRows(updated))
	mock.ExpectCommit()

	// Act
	card, err := cardRepo.Like(context.Background(), cardID)

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, card)
	assert.Equal(t, 3, card.Likes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_Like_NotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	cardID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "cards" SET "likes"=likes \+ 1 WHERE id = .*`).
		WithArgs(cardID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	// Act
	card, err := cardRepo.Like(context.Background(), cardID)

	// Assert
	assert.ErrorIs(t, err, repository.ErrCardNotFound)
	assert.Nil(t, card)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_Move_BumpsTimesMoved(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	cardID := uuid.New()
	targetBoardID := uuid.New()
	updated := &model.Card{
		ID:         cardID,
		BoardID:    targetBoardID,
		Kind:       "sad",
		Body:       "standups run long",
		AuthorID:   uuid.New(),
		Status:     model.StatusPending,
		TimesMoved: 2,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "cards" SET "board_id"=.*,"times_moved"=times_moved \+ 1 WHERE id = .*`).
		WithArgs(targetBoardID, cardID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM "cards" WHERE id = .*`).
		WithArgs(cardID, 1).
		WillReturnRows(cardRows(updated))
	mock.ExpectCommit()

	// Act
	card, err := cardRepo.Move(context.Background(), cardID, targetBoardID)

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, card)
	assert.Equal(t, targetBoardID, card.BoardID)
	assert.Equal(t, 2, card.TimesMoved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_GetByID_NotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	cardID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "cards" WHERE id = .*`).
		WithArgs(cardID, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	// Act
	card, err := cardRepo.GetByID(context.Background(), cardID)

	// Assert
	assert.ErrorIs(t, err, repository.ErrCardNotFound)
	assert.Nil(t, card)
	assert.NoError(t, mock.ExpectationsWereMet())
}
