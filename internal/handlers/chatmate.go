package handlers

import (
	"epis-realtime/server/internal/auth"
	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"
	"epis-realtime/server/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ChatmateRepository is the persistence slice this handler depends on;
// satisfied by *repository.DB, narrowed here so the REST surface can be
// tested without a live Postgres connection.
type ChatmateRepository interface {
	CreateChatmate(userID string, language models.Language) (*models.Chatmate, error)
	GetChatmates(userID string, limit int) ([]models.Chatmate, error)
}

// ChatmateHandler serves the minimal REST surface: creating and listing
// chatmates. Everything per-turn happens over the WebSocket session.
type ChatmateHandler struct {
	repo ChatmateRepository
}

func NewChatmateHandler(repo ChatmateRepository) *ChatmateHandler {
	return &ChatmateHandler{repo: repo}
}

type handshakeRequest struct {
	Language string `json:"language"`
}

type handshakeResponse struct {
	ChatmateID string `json:"chatmate_id"`
}

// HandleHandshake creates the caller's chatmate for a language, or 400s if
// one already exists or the language isn't supported.
func (h *ChatmateHandler) HandleHandshake(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	var req handshakeRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.New(errors.ErrValidation, "invalid request body")
	}

	language, err := validation.ValidateHandshake(req.Language)
	if err != nil {
		return err
	}

	cm, err := h.repo.CreateChatmate(user.ID, language)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(handshakeResponse{ChatmateID: cm.ID.String()})
}

// HandleList returns the caller's chatmates, oldest first.
func (h *ChatmateHandler) HandleList(c *fiber.Ctx) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	chatmates, err := h.repo.GetChatmates(user.ID, 10)
	if err != nil {
		return err
	}

	return c.JSON(chatmates)
}
