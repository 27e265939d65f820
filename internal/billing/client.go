// Package billing is the thin client toward the identity/billing provider
// that owns a user's credit balance and per-language CEFR level. The
// provider's own storage is out of scope; this package only knows how to
// ask it questions and tell it to decrement credit.
package billing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"epis-realtime/server/internal/config"
	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"

	"github.com/go-resty/resty/v2"
)

// Client is the capability set user management depends on.
type Client interface {
	GetCredit(ctx context.Context, userID string) (int, error)
	SpendCredit(ctx context.Context, userID string) error
	GetCefrLevel(ctx context.Context, userID string, language models.Language) (models.CefrLevel, bool, error)
}

// HTTPClient is the Client implementation backed by the provider's REST API.
type HTTPClient struct {
	client *resty.Client
}

func New(cfg config.BillingConfig) *HTTPClient {
	client := resty.New()
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client.SetTimeout(timeout)
	client.SetBaseURL(cfg.URL)
	client.SetHeader("Content-Type", "application/json")
	return &HTTPClient{client: client}
}

type creditResponse struct {
	Credit int `json:"credit"`
}

func (c *HTTPClient) GetCredit(ctx context.Context, userID string) (int, error) {
	var out creditResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/users/%s/credit", userID))

	if err != nil {
		return 0, errors.Wrap(err, errors.ErrUnknown)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, errors.New(errors.ErrUnknown, fmt.Sprintf("billing provider returned status %d", resp.StatusCode()))
	}
	return out.Credit, nil
}

// SpendCredit decrements by one, saturating at zero provider-side. This is
// not transactional with the chat pipeline: it runs on a worker pool,
// submitted once the reply has been synthesized, so a failure here never
// blocks or rolls back the turn that produced it.
func (c *HTTPClient) SpendCredit(ctx context.Context, userID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Post(fmt.Sprintf("/users/%s/credit/spend", userID))

	if err != nil {
		return errors.Wrap(err, errors.ErrUnknown)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return errors.New(errors.ErrUnknown, fmt.Sprintf("billing provider returned status %d", resp.StatusCode()))
	}
	return nil
}

type cefrResponse struct {
	Level *string `json:"level"`
}

func (c *HTTPClient) GetCefrLevel(ctx context.Context, userID string, language models.Language) (models.CefrLevel, bool, error) {
	var out cefrResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/users/%s/cefr/%s", userID, language))

	if err != nil {
		return "", false, errors.Wrap(err, errors.ErrUnknown)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return "", false, errors.New(errors.ErrUnknown, fmt.Sprintf("billing provider returned status %d", resp.StatusCode()))
	}
	if out.Level == nil {
		return "", false, nil
	}
	return models.CefrLevel(*out.Level), true, nil
}
