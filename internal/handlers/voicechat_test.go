package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"epis-realtime/server/internal/middleware"
	"epis-realtime/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpgradeUsers struct {
	user   models.User
	result models.AuthResult
}

func (f *fakeUpgradeUsers) AuthenticateJWT(ctx context.Context, token string) (models.User, models.AuthResult) {
	return f.user, f.result
}
func (f *fakeUpgradeUsers) AuthorizeByCredit(ctx context.Context, userID string) models.AuthorizationResult {
	return models.Authorized
}
func (f *fakeUpgradeUsers) GetCredit(ctx context.Context, userID string) (int, error) { return 0, nil }
func (f *fakeUpgradeUsers) SpendCredit(userID string)                                {}
func (f *fakeUpgradeUsers) GetCefrLevel(ctx context.Context, userID string, language models.Language) models.CefrLevel {
	return models.DefaultCefrLevel
}

func newUpgradeApp(users *fakeUpgradeUsers) *fiber.App {
	h := NewVoiceChatHandler(nil, users, nil)
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	app.Get("/ws/voicechat", h.Upgrade, func(c *fiber.Ctx) error {
		return c.SendString("upgraded")
	})
	return app
}

func websocketUpgradeRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws/voicechat?token="+token, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	return req
}

func TestUpgrade_NonWebsocketRequestIsRejected(t *testing.T) {
	app := newUpgradeApp(&fakeUpgradeUsers{result: models.Authenticated})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws/voicechat?token=abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpgrade_MissingTokenIsUnauthorized(t *testing.T) {
	app := newUpgradeApp(&fakeUpgradeUsers{result: models.Authenticated})

	resp, err := app.Test(websocketUpgradeRequest(""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUpgrade_InvalidTokenIsUnauthorized(t *testing.T) {
	app := newUpgradeApp(&fakeUpgradeUsers{result: models.Unauthenticated})

	resp, err := app.Test(websocketUpgradeRequest("bad-token"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUpgrade_ValidTokenCallsNext(t *testing.T) {
	app := newUpgradeApp(&fakeUpgradeUsers{user: models.User{ID: "user-1"}, result: models.Authenticated})

	resp, err := app.Test(websocketUpgradeRequest("good-token"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
