package kommo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	apperrors "leadrelay/internal/pkg/errors"
)

// TokenStore is the durable home of the current refresh token. Backed by the
// app_config row in production.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenManager owns the process-wide access-token slot. Kommo rotates the
// refresh token on every exchange, so each successful refresh must persist
// the replacement before the old one is needed again.
//
// The mutex makes concurrent cold-cache callers wait on a single in-flight
// exchange instead of racing their own refreshes. That only serializes
// refreshes within this process; running multiple instances against one
// token row can still rotate the token out from under a peer, which is an
// accepted single-writer assumption.
type TokenManager struct {
	store        TokenStore
	client       *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	safetyMargin time.Duration

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time

	now func() time.Time
}

func NewTokenManager(store TokenStore, client *http.Client, baseURL, clientID, clientSecret string, safetyMargin time.Duration) *TokenManager {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &TokenManager{
		store:        store,
		client:       client,
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		safetyMargin: safetyMargin,
		now:          time.Now,
	}
}

// AccessToken returns the cached token while it is warm; otherwise it
// performs one refresh exchange and rotates the persisted refresh token.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.accessToken != "" && m.now().Before(m.expiresAt) {
		return m.accessToken, nil
	}

	refreshToken, err := m.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: reading refresh token: %v", apperrors.ErrAuthFailed, err)
	}
	if refreshToken == "" {
		return "", fmt.Errorf("%w: %v", apperrors.ErrAuthFailed, apperrors.ErrNoRefreshToken)
	}

	result, err := m.exchange(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrAuthFailed, err)
	}

	lifetime := time.Duration(result.ExpiresIn)*time.Second - m.safetyMargin
	if lifetime < 0 {
		lifetime = 0
	}
	m.accessToken = result.AccessToken
	m.expiresAt = m.now().Add(lifetime)

	// The old refresh token is already dead server-side. If this write is
	// lost the next refresh will fail and the token must be re-seeded, so
	// the failure has to be loud even though this request can proceed.
	if err := m.store.Set(ctx, result.RefreshToken); err != nil {
		log.Error().Err(err).Msg("failed to persist rotated refresh token; next refresh will fail")
	}

	return m.accessToken, nil
}

// Invalidate drops the cached token so the next caller re-authenticates.
// Triggered by a 401 from any Kommo call.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = ""
	m.expiresAt = time.Time{}
}

func (m *TokenManager) exchange(ctx context.Context, refreshToken string) (*tokenResponse, error) {
	body, err := json.Marshal(map[string]string{
		"client_id":     m.clientID,
		"client_secret": m.clientSecret,
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/oauth2/access_token", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token exchange returned HTTP %d: %s", resp.StatusCode, respBody)
	}

	var result tokenResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	return &result, nil
}
