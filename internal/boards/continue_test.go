package boards_test

import (
	"context"
	"errors"
	"testing"

	"retroboard/internal/boards"
	"retroboard/internal/model"
	"retroboard/internal/pipeline"

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

func TestContinuer_AlreadyContinued(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	continuer := boards.NewContinuer(gormDB)

	prevBoard := &model.Board{ID: uuid.New(), Slug: "sprint-7", Title: "Sprint 7"}
	successorID := uuid.New()

	// A successor already points at this board; nothing may be written.
	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE previous_board_id = .*`).
		WithArgs(prevBoard.ID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "title", "previous_board_id"}).
			AddRow(successorID.String(), "sprint-7-2-abc", "Sprint 7 #2", prevBoard.ID.String()))

	board, err := continuer.Continue(context.Background(), prevBoard)

	assert.Nil(t, board)
	var conflict *pipeline.ConflictError
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, boards.AlreadyContinuedMessage, conflict.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContinuer_ClonesMembershipsAndGrants(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	continuer := boards.NewContinuer(gormDB)

	prevBoard := &model.Board{ID: uuid.New(), Slug: "sprint-7", Title: "Sprint 7", Private: true}
	creatorID := uuid.New()
	permissionID := uuid.New()
	successorID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE previous_board_id = .*`).
		WithArgs(prevBoard.ID, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	mock.ExpectBegin()
	// Columns: ("slug","title","private","previous_board_id","created_at",
	// "updated_at") with the defaulted primary key via RETURNING.
	mock.ExpectQuery(`INSERT INTO "boards"`).
		WithArgs(sqlmock.AnyArg(), "Sprint 7 #2", true, prevBoard.ID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(successorID.String()))

	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE board_id = .*`).
		WithArgs(prevBoard.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "user_id", "role", "ready"}).
			AddRow(uuid.New().String(), prevBoard.ID.String(), creatorID.String(), model.RoleCreator, true))

	// The clone resets ready: the member was ready on the previous board,
	// the insert writes false.
	mock.ExpectQuery(`INSERT INTO "memberships"`).
		WithArgs(successorID, creatorID, model.RoleCreator, false, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))

	mock.ExpectQuery(`SELECT .* FROM "board_permissions" WHERE board_id = .*`).
		WithArgs(prevBoard.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "user_id", "permission_id"}).
			AddRow(uuid.New().String(), prevBoard.ID.String(), creatorID.String(), permissionID.String()))

	mock.ExpectQuery(`INSERT INTO "board_permissions"`).
		WithArgs(successorID, creatorID, permissionID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	board, err := continuer.Continue(context.Background(), prevBoard)

	assert.NoError(t, err)
	if !assert.NotNil(t, board) {
		return
	}
	assert.Equal(t, "Sprint 7 #2", board.Title)
	assert.Equal(t, prevBoard.ID, *board.PreviousBoardID)
	assert.True(t, board.Private)
	assert.NotEmpty(t, board.Slug)
	assert.NotEqual(t, prevBoard.Slug, board.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContinuer_LookupErrorPropagates(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	continuer := boards.NewContinuer(gormDB)

	prevBoard := &model.Board{ID: uuid.New(), Slug: "sprint-7", Title: "Sprint 7"}

	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE previous_board_id = .*`).
		WithArgs(prevBoard.ID, 1).
		WillReturnError(assert.AnError)

	board, err := continuer.Continue(context.Background(), prevBoard)

	assert.Nil(t, board)
	assert.Error(t, err)
	var conflict *pipeline.ConflictError
	assert.False(t, errors.As(err, &conflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}
