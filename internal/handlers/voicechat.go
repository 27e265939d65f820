package handlers

import (
	"context"

	"epis-realtime/server/internal/agent"
	"epis-realtime/server/internal/auth"
	"epis-realtime/server/internal/duplex"
	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"
	"epis-realtime/server/internal/repository"
	"epis-realtime/server/internal/session"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// VoiceChatHandler upgrades one connection to a WebSocket and runs its
// session loop to completion. Unlike the REST surface, the bearer token
// arrives as a query parameter: the upgrade handshake itself carries no
// Authorization header from a browser WebSocket client.
type VoiceChatHandler struct {
	repo  *repository.DB
	users auth.UserManagement
	agent *agent.Agent
}

func NewVoiceChatHandler(repo *repository.DB, users auth.UserManagement, ag *agent.Agent) *VoiceChatHandler {
	return &VoiceChatHandler{repo: repo, users: users, agent: ag}
}

// audioFormatContextKey is where Upgrade stores the negotiated audio format
// for Serve to pick up once the connection is live.
const audioFormatContextKey = "audio_format"

// Upgrade authenticates the token query param and rejects the upgrade on
// failure, before any websocket.Conn exists to clean up.
func (h *VoiceChatHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return errors.New(errors.ErrValidation, "expected websocket upgrade")
	}

	token := c.Query("token")
	if token == "" {
		return errors.New(errors.ErrUnauthorized, "missing token query parameter")
	}

	user, result := h.users.AuthenticateJWT(c.Context(), token)
	if result != models.Authenticated {
		return errors.New(errors.ErrUnauthorized, "invalid or expired token")
	}

	format := models.AudioWav
	if raw := c.Query("audio_format"); raw != "" {
		parsed, ok := models.ParseAudioFormat(raw)
		if !ok {
			return errors.New(errors.ErrValidation, "unsupported audio_format")
		}
		format = parsed
	}

	c.Locals(auth.UserContextKey, &user)
	c.Locals(audioFormatContextKey, format)
	return c.Next()
}

// Serve runs once the upgrade has completed; it owns the connection until
// the session loop returns.
func (h *VoiceChatHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		user, ok := conn.Locals(auth.UserContextKey).(*models.User)
		if !ok || user == nil {
			conn.Close()
			return
		}
		format, ok := conn.Locals(audioFormatContextKey).(models.AudioFormat)
		if !ok {
			format = models.AudioWav
		}

		d := duplex.NewWSAudioDuplex(conn)
		loop := session.NewLoop(d, h.repo, h.users, h.agent, user.ID, format)
		loop.Run(context.Background())
	})
}
