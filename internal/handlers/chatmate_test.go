package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"epis-realtime/server/internal/auth"
	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/middleware"
	"epis-realtime/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatmateRepo struct {
	created   *models.Chatmate
	createErr error
	list      []models.Chatmate
	listErr   error
}

func (f *fakeChatmateRepo) CreateChatmate(userID string, language models.Language) (*models.Chatmate, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeChatmateRepo) GetChatmates(userID string, limit int) ([]models.Chatmate, error) {
	return f.list, f.listErr
}

func newChatmateApp(repo *fakeChatmateRepo, user *models.User) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	app.Use(func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals(auth.UserContextKey, user)
		}
		return c.Next()
	})

	h := NewChatmateHandler(repo)
	app.Post("/api/chatmate", h.HandleHandshake)
	app.Get("/api/chatmate", h.HandleList)
	return app
}

func TestHandleHandshake_CreatesChatmate(t *testing.T) {
	created := &models.Chatmate{ID: uuid.New(), UserID: "user-1", Language: models.LanguageEs}
	app := newChatmateApp(&fakeChatmateRepo{created: created}, &models.User{ID: "user-1", Credit: 5})

	body, _ := json.Marshal(handshakeRequest{Language: "es"})
	req := httptest.NewRequest(http.MethodPost, "/api/chatmate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	var out handshakeResponse
	require.NoError(t, json.Unmarshal(respBody, &out))
	assert.Equal(t, created.ID.String(), out.ChatmateID)
}

func TestHandleHandshake_UnsupportedLanguageIsValidationError(t *testing.T) {
	app := newChatmateApp(&fakeChatmateRepo{}, &models.User{ID: "user-1"})

	body, _ := json.Marshal(handshakeRequest{Language: "klingon"})
	req := httptest.NewRequest(http.MethodPost, "/api/chatmate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleHandshake_RepoConflictMapsToBadRequest(t *testing.T) {
	app := newChatmateApp(&fakeChatmateRepo{createErr: errors.New(errors.ErrAlreadyHandshaken, "already exists")}, &models.User{ID: "user-1"})

	body, _ := json.Marshal(handshakeRequest{Language: "es"})
	req := httptest.NewRequest(http.MethodPost, "/api/chatmate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleHandshake_MissingAuthIsUnauthorized(t *testing.T) {
	app := newChatmateApp(&fakeChatmateRepo{}, nil)

	body, _ := json.Marshal(handshakeRequest{Language: "es"})
	req := httptest.NewRequest(http.MethodPost, "/api/chatmate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandleList_ReturnsRepoChatmates(t *testing.T) {
	list := []models.Chatmate{
		{ID: uuid.New(), UserID: "user-1", Language: models.LanguageEs},
		{ID: uuid.New(), UserID: "user-1", Language: models.LanguageFr},
	}
	app := newChatmateApp(&fakeChatmateRepo{list: list}, &models.User{ID: "user-1"})

	req := httptest.NewRequest(http.MethodGet, "/api/chatmate", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	var out []models.Chatmate
	require.NoError(t, json.Unmarshal(respBody, &out))
	assert.Len(t, out, 2)
}
