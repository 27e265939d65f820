package repository

import (
	"testing"
	"time"

	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{sqlDB}, mock
}

func TestCreateChatmate_Success(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO chatmate").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	cm, err := db.CreateChatmate("user-1", models.LanguageEs)

	require.NoError(t, err)
	assert.Equal(t, "user-1", cm.UserID)
	assert.Equal(t, models.LanguageEs, cm.Language)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateChatmate_DuplicateMapsToAlreadyHandshaken(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("INSERT INTO chatmate").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := db.CreateChatmate("user-1", models.LanguageEs)

	require.Error(t, err)
	assert.Equal(t, errors.ErrAlreadyHandshaken, errors.Code(err))
}

func TestCreateChatmate_OtherDBErrorMapsToRepoError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("INSERT INTO chatmate").
		WillReturnError(&pq.Error{Code: "08006"})

	_, err := db.CreateChatmate("user-1", models.LanguageEs)

	require.Error(t, err)
	assert.Equal(t, errors.ErrRepo, errors.Code(err))
}

func TestGetChatmateByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectQuery("FROM chatmate").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "language", "created_at"}))

	_, err := db.GetChatmateByID(id)

	require.Error(t, err)
	assert.Equal(t, errors.ErrNotFound, errors.Code(err))
}

func TestGetChatmates_ReturnsAscendingRows(t *testing.T) {
	db, mock := newMockDB(t)
	id1, id2 := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery("FROM chatmate").
		WithArgs("user-1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "language", "created_at"}).
			AddRow(id1, "user-1", string(models.LanguageEn), now).
			AddRow(id2, "user-1", string(models.LanguageEs), now))

	chatmates, err := db.GetChatmates("user-1", 10)

	require.NoError(t, err)
	require.Len(t, chatmates, 2)
	assert.Equal(t, id1, chatmates[0].ID)
	assert.Equal(t, id2, chatmates[1].ID)
}
