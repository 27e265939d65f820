package aigateway

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	"epis-realtime/server/internal/models"
)

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// decodeGenerationResponse extracts the provider's chat-completion message
// content and strictly decodes it against models.GenerationResponse,
// rejecting unknown fields so schema drift fails loudly.
func decodeGenerationResponse(body []byte) (*models.GenerationResponse, error) {
	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Choices) == 0 {
		return nil, errEmptyChoices
	}

	var out models.GenerationResponse
	dec := json.NewDecoder(bytes.NewReader([]byte(envelope.Choices[0].Message.Content)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out.Response == "" {
		return nil, errEmptyResponse
	}
	return &out, nil
}

var (
	errEmptyChoices  = jsonErr("no choices in generation response")
	errEmptyResponse = jsonErr("generation response field is empty")
)

type jsonErr string

func (e jsonErr) Error() string { return string(e) }
