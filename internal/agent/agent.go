// Package agent implements the realtime pipeline: one inbound audio prompt
// in, one synthesized audio reply out, with the chatmate's learning state
// read and updated along the way. Every step short-circuits the rest of the
// pipeline on failure; nothing here retries across steps.
package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"epis-realtime/server/internal/aigateway"
	"epis-realtime/server/internal/auth"
	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"
	"epis-realtime/server/internal/validation"
	"epis-realtime/server/internal/workers"

	"github.com/google/uuid"
)

// Context carries the caller identity for one turn; it's not session state,
// just the two ids the pipeline needs to read and write the right rows.
type Context struct {
	UserID     string
	ChatmateID uuid.UUID
}

// Repository is the persistence slice the pipeline depends on; satisfied by
// *repository.DB, narrowed here so the pipeline can be tested against a
// fake without a live Postgres connection.
type Repository interface {
	GetChatmateByID(id uuid.UUID) (*models.Chatmate, error)
	FetchDueVocab(chatmateID uuid.UUID, limit int) ([]models.LearnedVocab, error)
	GetChatMessageHistory(chatmateID uuid.UUID, limit int) ([]models.Message, error)
	StoreLearnedVocab(chatmateID uuid.UUID, updates []models.VocabUpdate) error
	StoreMessage(chatmateID uuid.UUID, role models.MessageRole, content string) (uuid.UUID, error)
}

// Agent wires the capability sets the pipeline depends on. pool is used
// only for off-the-request-path turn-latency logging; a nil pool simply
// skips that logging, which keeps the zero-value useful in tests.
type Agent struct {
	gateway        aigateway.Gateway
	users          auth.UserManagement
	repo           Repository
	pool           *workers.Pool
	promptTemplate string
}

func New(gateway aigateway.Gateway, users auth.UserManagement, repo Repository, pool *workers.Pool, promptTemplate string) *Agent {
	if promptTemplate == "" {
		promptTemplate = defaultPromptTemplate
	}
	return &Agent{gateway: gateway, users: users, repo: repo, pool: pool, promptTemplate: promptTemplate}
}

// Chat runs the full ten-step turn and returns the synthesized reply in the
// same format the prompt arrived in.
func (a *Agent) Chat(ctx context.Context, prompt models.AudioFrame, c Context) (models.AudioFrame, error) {
	turnStart := time.Now()

	// 1. credit gate
	if a.users.AuthorizeByCredit(ctx, c.UserID) == models.Unauthorized {
		return models.AudioFrame{}, errors.New(errors.ErrNoCredit, "user has no remaining credit")
	}

	// 2. transcribe — transcription is best-effort and may legitimately come
	// back empty for silent or unintelligible audio; that's a distinct,
	// user-facing outcome from a transport or provider failure, not
	// something Generate or StoreMessage should ever see.
	transcript, err := a.gateway.Transcribe(ctx, prompt.Bytes, prompt.Format, "")
	if err != nil {
		return models.AudioFrame{}, err
	}
	transcript = validation.SanitizeTranscript(transcript)
	if transcript == "" {
		return models.AudioFrame{}, errors.New(errors.ErrEmptyPrompt, "transcription produced an empty transcript")
	}

	// 3. resolve chatmate
	chatmate, err := a.repo.GetChatmateByID(c.ChatmateID)
	if err != nil {
		return models.AudioFrame{}, err
	}

	// 4. read learning state — order doesn't matter, every read must succeed
	cefr := a.users.GetCefrLevel(ctx, c.UserID, chatmate.Language)
	dueVocab, err := a.repo.FetchDueVocab(chatmate.ID, 10)
	if err != nil {
		return models.AudioFrame{}, err
	}
	history, err := a.repo.GetChatMessageHistory(chatmate.ID, 10)
	if err != nil {
		return models.AudioFrame{}, err
	}

	// 5. assemble prompt
	systemPrompt := generateInstructions(a.promptTemplate, chatmate.Language.Name(), cefr, dueVocabWords(dueVocab))

	// 6. generate
	convo := append(history, models.Message{Role: models.RoleUser, Content: transcript})
	genResp, err := a.gateway.Generate(ctx, convo, systemPrompt)
	if err != nil {
		return models.AudioFrame{}, err
	}

	// 7. derive vocab updates
	updates := deriveVocabUpdates(genResp, dueVocab)

	// 8. persist: vocab, then the user's transcript, then the reply
	if err := a.repo.StoreLearnedVocab(chatmate.ID, updates); err != nil {
		return models.AudioFrame{}, err
	}
	if _, err := a.repo.StoreMessage(chatmate.ID, models.RoleUser, transcript); err != nil {
		return models.AudioFrame{}, err
	}
	if _, err := a.repo.StoreMessage(chatmate.ID, models.RoleAi, genResp.Response); err != nil {
		return models.AudioFrame{}, err
	}

	// 9. synthesize
	audio, err := a.gateway.Synthesize(ctx, genResp.Response, "")
	if err != nil {
		return models.AudioFrame{}, err
	}

	// 10. debit — best-effort, never blocks the reply already produced
	a.users.SpendCredit(c.UserID)

	a.logTurnLatency(c.ChatmateID, time.Since(turnStart))

	return models.AudioFrame{Bytes: audio, Format: prompt.Format}, nil
}

// logTurnLatency reports how long a completed turn took, off the request
// path: the reply has already been produced by the time this runs.
func (a *Agent) logTurnLatency(chatmateID uuid.UUID, d time.Duration) {
	if a.pool == nil {
		return
	}
	a.pool.Submit(func() {
		slog.Info("turn completed", "chatmate_id", chatmateID, "duration_ms", d.Milliseconds())
	})
}

func dueVocabWords(due []models.LearnedVocab) []string {
	words := make([]string, len(due))
	for i, v := range due {
		words[i] = v.Vocab
	}
	return words
}

// deriveVocabUpdates implements step 7: New for every word the generator
// declares as learned, Reviewed for every due word found as a substring of
// the reply text. The substring match is deliberately loose — it will
// overcount (e.g. "go" inside "going") — and Reset is never emitted here;
// it's reserved for a future moderation path.
func deriveVocabUpdates(resp *models.GenerationResponse, due []models.LearnedVocab) []models.VocabUpdate {
	var updates []models.VocabUpdate
	for _, word := range resp.LearnedMaterial.Vocab {
		updates = append(updates, models.VocabUpdate{Vocab: word, Transition: models.TransitionNew})
	}

	lowered := strings.ToLower(resp.Response)
	for _, v := range due {
		if strings.Contains(lowered, strings.ToLower(v.Vocab)) {
			updates = append(updates, models.VocabUpdate{Vocab: v.Vocab, Transition: models.TransitionReviewed})
		}
	}
	return updates
}
