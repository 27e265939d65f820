package repository

import (
	"testing"
	"time"

	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreMessage_UnknownChatmateIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectQuery("FROM chatmate").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "language", "created_at"}))

	_, err := db.StoreMessage(id, models.RoleUser, "hola")

	require.Error(t, err)
	assert.Equal(t, errors.ErrNotFound, errors.Code(err))
}

func TestStoreMessage_Success(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("FROM chatmate").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "language", "created_at"}).
			AddRow(id, "user-1", string(models.LanguageEn), now))
	mock.ExpectExec("INSERT INTO message").
		WillReturnResult(sqlmock.NewResult(1, 1))

	msgID, err := db.StoreMessage(id, models.RoleUser, "hola")

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, msgID)
}

func TestGetChatMessageHistory_ReordersToAscending(t *testing.T) {
	db, mock := newMockDB(t)
	chatmateID := uuid.New()
	t1 := time.Now().Add(-2 * time.Hour)
	t2 := time.Now().Add(-1 * time.Hour)

	// rows arrive DESC (t2 then t1); the repository must reverse to ASC.
	mock.ExpectQuery("FROM message").
		WithArgs(chatmateID, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "chatmate_id", "content", "role", "created_at"}).
			AddRow(uuid.New(), chatmateID, "second", string(models.RoleAi), t2).
			AddRow(uuid.New(), chatmateID, "first", string(models.RoleUser), t1))

	history, err := db.GetChatMessageHistory(chatmateID, 10)

	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)
}

func TestGetChatMessageHistory_DropsUnrecognizedRoles(t *testing.T) {
	db, mock := newMockDB(t)
	chatmateID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("FROM message").
		WithArgs(chatmateID, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "chatmate_id", "content", "role", "created_at"}).
			AddRow(uuid.New(), chatmateID, "valid", string(models.RoleUser), now).
			AddRow(uuid.New(), chatmateID, "legacy row", "tool", now))

	history, err := db.GetChatMessageHistory(chatmateID, 10)

	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "valid", history[0].Content)
}
