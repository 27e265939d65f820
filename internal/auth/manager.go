// Package auth implements user management: verifying bearer tokens,
// gating on credit, and reading a user's CEFR level, all against state
// owned by an external identity/billing provider. Nothing here stores a
// password or session — there is no local credential store in this domain.
package auth

import (
	"context"
	"time"

	"epis-realtime/server/internal/billing"
	"epis-realtime/server/internal/cache"
	"epis-realtime/server/internal/config"
	"epis-realtime/server/internal/models"
	"epis-realtime/server/internal/workers"

	"github.com/golang-jwt/jwt/v5"
)

// UserManagement is the capability set the session loop and agent depend on.
type UserManagement interface {
	AuthenticateJWT(ctx context.Context, token string) (models.User, models.AuthResult)
	AuthorizeByCredit(ctx context.Context, userID string) models.AuthorizationResult
	GetCredit(ctx context.Context, userID string) (int, error)
	SpendCredit(userID string)
	GetCefrLevel(ctx context.Context, userID string, language models.Language) models.CefrLevel
}

// Manager is the UserManagement implementation: JWT verification against a
// static HMAC secret, credit reads through a short-TTL cache in front of the
// billing client (CEFR reads go to the billing client uncached), and a
// best-effort async credit debit.
type Manager struct {
	secret      []byte
	billing     billing.Client
	cache       cache.Service
	credit      *workers.Pool
	cacheTTL    time.Duration
}

func NewManager(cfg config.JWTConfig, billingClient billing.Client, cacheSvc cache.Service, creditPool *workers.Pool) *Manager {
	ttl := time.Duration(cfg.CacheTTLSecs) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Manager{
		secret:   []byte(cfg.Secret),
		billing:  billingClient,
		cache:    cacheSvc,
		credit:   creditPool,
		cacheTTL: ttl,
	}
}

// AuthenticateJWT verifies the token's signature and expiry. A bad
// signature or expired token is Unauthenticated; a cache/provider failure
// while resolving the user is AuthUnknown, distinct from a rejected token.
func (m *Manager) AuthenticateJWT(ctx context.Context, token string) (models.User, models.AuthResult) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})

	if err != nil {
		switch {
		case err == jwt.ErrTokenExpired:
			return models.User{}, models.Unauthenticated
		default:
			return models.User{}, models.Unauthenticated
		}
	}
	if !parsed.Valid {
		return models.User{}, models.Unauthenticated
	}
	if claims.Subject == "" {
		return models.User{}, models.Unauthenticated
	}

	credit, err := m.creditFor(ctx, claims.Subject)
	if err != nil {
		return models.User{}, models.AuthUnknown
	}

	return models.User{ID: claims.Subject, Credit: credit}, models.Authenticated
}

func (m *Manager) creditFor(ctx context.Context, userID string) (int, error) {
	key := cache.CreditCacheKey(userID)
	var cached int
	if err := m.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	credit, err := m.billing.GetCredit(ctx, userID)
	if err != nil {
		return 0, err
	}
	_ = m.cache.Set(ctx, key, credit, m.cacheTTL)
	return credit, nil
}

// AuthorizeByCredit is Unauthorized iff the user's credit is exactly zero.
func (m *Manager) AuthorizeByCredit(ctx context.Context, userID string) models.AuthorizationResult {
	credit, err := m.creditFor(ctx, userID)
	if err != nil {
		// A provider hiccup fails closed: no credit confirmed, no turn spent.
		return models.Unauthorized
	}
	if credit == 0 {
		return models.Unauthorized
	}
	return models.Authorized
}

// GetCredit returns the user's current credit snapshot, used to seed the
// session's local remaining_credit at handshake time.
func (m *Manager) GetCredit(ctx context.Context, userID string) (int, error) {
	return m.creditFor(ctx, userID)
}

// SpendCredit submits a best-effort debit to the worker pool; failures are
// logged at the pool boundary and never surfaced to the caller.
func (m *Manager) SpendCredit(userID string) {
	_ = m.cache.Delete(context.Background(), cache.CreditCacheKey(userID))
	m.credit.SubmitSpendCredit(userID, m.billing)
}

// GetCefrLevel defaults to A1 whenever the provider has no recorded level.
func (m *Manager) GetCefrLevel(ctx context.Context, userID string, language models.Language) models.CefrLevel {
	level, ok, err := m.billing.GetCefrLevel(ctx, userID, language)
	if err != nil || !ok {
		return models.DefaultCefrLevel
	}
	return level
}
