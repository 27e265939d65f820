// Package session drives one connection end to end: the Uninit/Init state
// machine, the JSON wire envelope, WAV duration validation, and the mapping
// from agent/repository errors onto typed replies.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"

	"epis-realtime/server/internal/agent"
	"epis-realtime/server/internal/auth"
	"epis-realtime/server/internal/duplex"
	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"

	"github.com/google/uuid"
)

// Repository is the lookup the loop needs at handshake time; satisfied by
// *repository.DB, narrowed so the state machine can be tested without a
// live database.
type Repository interface {
	GetChatmateByID(id uuid.UUID) (*models.Chatmate, error)
}

// AgentPipeline is the one call the loop makes per prompt; satisfied by
// *agent.Agent, narrowed so the loop's framing/state-machine logic can be
// tested against a fake pipeline.
type AgentPipeline interface {
	Chat(ctx context.Context, prompt models.AudioFrame, c agent.Context) (models.AudioFrame, error)
}

// Loop owns the state of one connection for its entire lifetime.
type Loop struct {
	duplex      duplex.AudioDuplex
	repo        Repository
	users       auth.UserManagement
	agent       AgentPipeline
	userID      string
	audioFormat models.AudioFormat

	state models.SessionState
}

func NewLoop(d duplex.AudioDuplex, repo Repository, users auth.UserManagement, ag AgentPipeline, userID string, audioFormat models.AudioFormat) *Loop {
	if audioFormat == "" {
		audioFormat = models.AudioWav
	}
	return &Loop{duplex: d, repo: repo, users: users, agent: ag, userID: userID, audioFormat: audioFormat, state: models.Uninit()}
}

// Run processes inbound frames until the duplex ends the connection.
func (l *Loop) Run(ctx context.Context) {
	for {
		raw, err := l.duplex.Receive(ctx)
		if err != nil {
			slog.Info("session ended", "user_id", l.userID, "reason", err)
			return
		}

		reply := l.handleFrame(ctx, raw)
		if err := l.send(ctx, reply); err != nil {
			slog.Info("session ended on send failure", "user_id", l.userID, "reason", err)
			return
		}
	}
}

func (l *Loop) send(ctx context.Context, env outboundEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return l.duplex.Send(ctx, data)
}

func (l *Loop) handleFrame(ctx context.Context, raw []byte) outboundEnvelope {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return simpleReply(outInvalid)
	}

	switch env.Type {
	case inboundVoiceChatInit:
		return l.handleInit(ctx, env.Data)
	case inboundVoiceChatPrompt:
		return l.handlePrompt(ctx, env.Data)
	default:
		return simpleReply(outInvalid)
	}
}

func (l *Loop) handleInit(ctx context.Context, data inboundDataJSON) outboundEnvelope {
	if l.state.Phase != models.PhaseUninit {
		return simpleReply(outInvalid)
	}

	chatmateID, err := data.chatmateID()
	if err != nil {
		return simpleReply(outInvalid)
	}

	if l.users.AuthorizeByCredit(ctx, l.userID) == models.Unauthorized {
		return simpleReply(outZeroCharge)
	}

	cm, err := l.repo.GetChatmateByID(chatmateID)
	if err != nil {
		if errors.Code(err) == errors.ErrNotFound {
			return simpleReply(outNotFoundConversation)
		}
		return simpleReply(outInternalError)
	}
	if cm.UserID != l.userID {
		return simpleReply(outUnauthorized)
	}

	credit, err := l.users.GetCredit(ctx, l.userID)
	if err != nil {
		return simpleReply(outInternalError)
	}

	l.state = models.Init(cm.ID, credit)
	return simpleReply(outVoiceChatInitOk)
}

func (l *Loop) handlePrompt(ctx context.Context, data inboundDataJSON) outboundEnvelope {
	if l.state.Phase != models.PhaseInit {
		return simpleReply(outInvalid)
	}
	if l.state.RemainingCredit == 0 {
		return simpleReply(outZeroCharge)
	}

	audioBytes, err := base64.StdEncoding.DecodeString(data.AudioBytesBase64)
	if err != nil {
		return simpleReply(outInvalidAudioBase64)
	}
	if len(audioBytes) == 0 {
		return simpleReply(outEmptyPrompt)
	}

	frame := models.AudioFrame{Bytes: audioBytes, Format: l.audioFormat}
	if surround, err := isSurroundAudio(frame); err != nil {
		return simpleReply(outInternalError)
	} else if surround {
		return simpleReply(outInvalidSorroundAudio)
	}
	if tooLong, err := isTooLong(frame); err != nil {
		return simpleReply(outInternalError)
	} else if tooLong {
		return simpleReply(outLongPrompt)
	}

	reply, err := l.agent.Chat(ctx, frame, agent.Context{UserID: l.userID, ChatmateID: l.state.ChatmateID})
	if err != nil {
		return l.replyForError(err)
	}

	l.state = l.state.SpendOne()
	return audioReply(outVoiceChatAiReply, base64.StdEncoding.EncodeToString(reply.Bytes))
}

// replyForError maps a pipeline failure to a wire reply without advancing
// the local credit snapshot: only a successful turn spends credit.
func (l *Loop) replyForError(err error) outboundEnvelope {
	switch errors.Code(err) {
	case errors.ErrNoCredit:
		return simpleReply(outZeroCharge)
	case errors.ErrEmptyPrompt:
		return simpleReply(outEmptyPrompt)
	default:
		return simpleReply(outInternalError)
	}
}
