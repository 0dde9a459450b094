package repository_test

import (
	"context"
	"testing"

	"retroboard/internal/model"
	"retroboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMembershipRepository_GetUserRole_Member(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	membershipRepo := repository.NewMembershipRepository(gormDB)

	boardID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE board_id = .* AND user_id = .*`).
		WithArgs(boardID, userID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "user_id", "role", "ready"}).
			AddRow(uuid.New().String(), boardID.String(), userID.String(), model.RoleAdmin, false))

	// Act
	role, err := membershipRepo.GetUserRole(context.Background(), boardID, userID)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_GetUserRole_NotAMember(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	membershipRepo := repository.NewMembershipRepository(gormDB)

	boardID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE board_id = .* AND user_id = .*`).
		WithArgs(boardID, userID, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	// Act
	role, err := membershipRepo.GetUserRole(context.Background(), boardID, userID)

	// Assert
	assert.NoError(t, err)
	assert.Empty(t, role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_SetReady_NotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	membershipRepo := repository.NewMembershipRepository(gormDB)

	membershipID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "memberships" SET "ready"=.* WHERE id = .*`).
		WithArgs(true, membershipID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	// Act
	err := membershipRepo.SetReady(context.Background(), membershipID, true)

	// Assert
	assert.ErrorIs(t, err, repository.ErrMembershipNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_InviteByEmails_FailureWritesNothing(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	membershipRepo := repository.NewMembershipRepository(gormDB)

	boardID := uuid.New()
	firstUserID := uuid.New()
	secondUserID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE email = .*`).
		WithArgs("a@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "nickname"}).
			AddRow(firstUserID.String(), "a@example.com", "alice"))
	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE board_id = .* AND user_id = .*`).
		WithArgs(boardID, firstUserID, 1).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectQuery(`INSERT INTO "memberships"`).
		WithArgs(boardID, firstUserID, model.RoleMember, false, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE email = .*`).
		WithArgs("b@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "nickname"}).
			AddRow(secondUserID.String(), "b@example.com", "bob"))
	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE board_id = .* AND user_id = .*`).
		WithArgs(boardID, secondUserID, 1).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectQuery(`INSERT INTO "memberships"`).
		WithArgs(boardID, secondUserID, model.RoleMember, false, sqlmock.AnyArg()).
		WillReturnError(assert.AnError)
	// The failed second insert rolls back the first one too.
	mock.ExpectRollback()

	// Act
	invited, unknown, err := membershipRepo.InviteByEmails(context.Background(), boardID, []string{"a@example.com", "b@example.com"})

	// Assert
	assert.Error(t, err)
	assert.Nil(t, invited)
	assert.Nil(t, unknown)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_InviteByEmails_UnknownEmailReported(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	membershipRepo := repository.NewMembershipRepository(gormDB)

	boardID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE email = .*`).
		WithArgs("nobody@example.com", 1).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectCommit()

	// Act
	invited, unknown, err := membershipRepo.InviteByEmails(context.Background(), boardID, []string{"nobody@example.com"})

	// Assert
	assert.NoError(t, err)
	assert.Empty(t, invited)
	assert.Equal(t, []string{"nobody@example.com"}, unknown)
	assert.NoError(t, mock.ExpectationsWereMet())
}
