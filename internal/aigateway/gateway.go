// Package aigateway is the single round-trip boundary to a hosted AI
// provider: transcription, generation, and synthesis. No operation streams;
// each is one request, one response. Every failure — network, non-2xx, or a
// generation response that doesn't match the expected schema — surfaces as
// a ProviderError so callers never need to branch on transport details.
package aigateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"epis-realtime/server/internal/config"
	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"

	"github.com/go-resty/resty/v2"
)

// Gateway is the capability set the agent depends on.
type Gateway interface {
	Transcribe(ctx context.Context, audio []byte, format models.AudioFormat, instructions string) (string, error)
	Generate(ctx context.Context, messages []models.Message, systemPrompt string) (*models.GenerationResponse, error)
	Synthesize(ctx context.Context, text string, instructions string) ([]byte, error)
}

// HostedGateway is the Gateway implementation backed by one hosted
// provider's REST surface.
type HostedGateway struct {
	client *resty.Client
	models config.AIModelsConfig
}

func New(cfg config.AIProviderConfig, modelsCfg config.AIModelsConfig) *HostedGateway {
	client := resty.New()
	client.SetTimeout(60 * time.Second)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(10 * time.Second)
	client.SetBaseURL(cfg.BaseURL)
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() >= 500
	})

	return &HostedGateway{client: client, models: modelsCfg}
}

type transcribeRequest struct {
	Model        string `json:"model"`
	AudioBase64  string `json:"audio_base64"`
	Format       string `json:"format"`
	Instructions string `json:"instructions,omitempty"`
}

type transcribeResult struct {
	Text string `json:"text"`
}

func (g *HostedGateway) Transcribe(ctx context.Context, audio []byte, format models.AudioFormat, instructions string) (string, error) {
	req := transcribeRequest{
		Model:        g.models.STT.Model,
		AudioBase64:  encodeBase64(audio),
		Format:       string(format),
		Instructions: instructions,
	}

	var result transcribeResult
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/v1/audio/transcriptions")

	if err != nil {
		slog.Error("transcription request failed", "error", err)
		return "", errors.Wrap(err, errors.ErrProvider)
	}
	if resp.StatusCode() != http.StatusOK {
		slog.Error("transcription provider error", "status", resp.StatusCode(), "body", string(resp.Body()))
		return "", errors.New(errors.ErrProvider, fmt.Sprintf("transcription failed: status %d", resp.StatusCode()))
	}
	return result.Text, nil
}

type generateMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generateRequest struct {
	Model          string            `json:"model"`
	Messages       []generateMessage `json:"messages"`
	ResponseFormat responseFormat    `json:"response_format"`
}

// responseFormat pins the provider to the schema the agent depends on:
// exactly response:string and learned_material.vocab:[string], nothing
// else. Unknown fields in the decoded reply are rejected below regardless
// of whether the provider actually enforces this schema server-side.
type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema interface{} `json:"json_schema"`
}

var generationSchema = map[string]interface{}{
	"name":   "generation_response",
	"strict": true,
	"schema": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"response": map[string]interface{}{"type": "string"},
			"learned_material": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"vocab": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
				},
				"required":             []string{"vocab"},
				"additionalProperties": false,
			},
		},
		"required":             []string{"response", "learned_material"},
		"additionalProperties": false,
	},
}

// roleFor maps a stored message role onto the provider's chat-completion
// role vocabulary.
func roleFor(role models.MessageRole) string {
	switch role {
	case models.RoleUser:
		return "user"
	case models.RoleAi:
		return "assistant"
	case models.RoleSystem:
		return "developer"
	default:
		return "user"
	}
}

func (g *HostedGateway) Generate(ctx context.Context, messages []models.Message, systemPrompt string) (*models.GenerationResponse, error) {
	payload := make([]generateMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		payload = append(payload, generateMessage{Role: "developer", Content: systemPrompt})
	}
	for _, m := range messages {
		payload = append(payload, generateMessage{Role: roleFor(m.Role), Content: m.Content})
	}

	req := generateRequest{
		Model:    g.models.LLM.Model,
		Messages: payload,
		ResponseFormat: responseFormat{
			Type:       "json_schema",
			JSONSchema: generationSchema,
		},
	}

	var raw map[string]interface{}
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&raw).
		Post("/v1/chat/completions")

	if err != nil {
		slog.Error("generation request failed", "error", err)
		return nil, errors.Wrap(err, errors.ErrProvider)
	}
	if resp.StatusCode() != http.StatusOK {
		slog.Error("generation provider error", "status", resp.StatusCode(), "body", string(resp.Body()))
		return nil, errors.New(errors.ErrProvider, fmt.Sprintf("generation failed: status %d", resp.StatusCode()))
	}

	out, err := decodeGenerationResponse(resp.Body())
	if err != nil {
		slog.Error("generation response failed schema validation", "error", err)
		return nil, errors.New(errors.ErrProvider, "generation response did not match expected schema")
	}
	return out, nil
}

type synthesizeRequest struct {
	Model        string `json:"model"`
	Text         string `json:"text"`
	Instructions string `json:"instructions,omitempty"`
}

func (g *HostedGateway) Synthesize(ctx context.Context, text string, instructions string) ([]byte, error) {
	req := synthesizeRequest{
		Model:        g.models.TTS.Model,
		Text:         text,
		Instructions: instructions,
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/v1/audio/speech")

	if err != nil {
		slog.Error("synthesis request failed", "error", err)
		return nil, errors.Wrap(err, errors.ErrProvider)
	}
	if resp.StatusCode() != http.StatusOK {
		slog.Error("synthesis provider error", "status", resp.StatusCode(), "body", string(resp.Body()))
		return nil, errors.New(errors.ErrProvider, fmt.Sprintf("synthesis failed: status %d", resp.StatusCode()))
	}
	return resp.Body(), nil
}
