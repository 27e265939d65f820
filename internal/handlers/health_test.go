package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"epis-realtime/server/internal/config"
	"epis-realtime/server/internal/models"
	"epis-realtime/server/internal/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealthBilling struct {
	creditErr error
}

func (f *fakeHealthBilling) GetCredit(ctx context.Context, userID string) (int, error) {
	return 0, f.creditErr
}
func (f *fakeHealthBilling) SpendCredit(ctx context.Context, userID string) error { return nil }
func (f *fakeHealthBilling) GetCefrLevel(ctx context.Context, userID string, language models.Language) (models.CefrLevel, bool, error) {
	return "", false, nil
}

func newHealthApp(billingClient *fakeHealthBilling) *fiber.App {
	cfg := &config.Config{Server: config.ServerConfig{Environment: "test"}}
	pool := workers.NewPool(workers.Config{CreditWorkers: 1, GeneralWorkers: 1})
	h := NewHealthHandler(cfg, billingClient, pool)

	app := fiber.New()
	app.Get("/api/health", h.HandleHealth)
	return app
}

func TestHandleHealth_ReportsHealthyBilling(t *testing.T) {
	app := newHealthApp(&fakeHealthBilling{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "healthy", out["billing"])
	assert.Equal(t, "test", out["environment"])
}

func TestHandleHealth_ReportsUnhealthyBillingOnError(t *testing.T) {
	app := newHealthApp(&fakeHealthBilling{creditErr: errors.New("provider down")})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "unhealthy", out["billing"])
}
