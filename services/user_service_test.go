package services

import (
	"testing"

	"taskdeck/models"
	"taskdeck/testutils"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCreateUser_Success(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	userService := &UserService{}
	user, err := userService.CreateUser(db, models.User{
		Email:        "test@example.com",
		PasswordHash: "hashed",
	})
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserById_NotFound(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	missingID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id = \$1`).
		WithArgs(missingID.String(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	userService := &UserService{}
	_, err := userService.GetUserById(db, missingID.String())
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUser_Success(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id = \$1`).
		WithArgs(userID.String(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name"}).
			AddRow(userID.String(), "test@example.com", "Old Name"))
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`INSERT INTO "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	userService := &UserService{}
	_, err := userService.UpdateUser(db, userID.String(), models.User{DisplayName: "New Name"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
