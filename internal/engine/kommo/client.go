package kommo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"leadrelay/internal/engine/mapping"
	apperrors "leadrelay/internal/pkg/errors"
)

// Client talks to the Kommo v4 API using tokens from the TokenManager.
type Client struct {
	tokens  *TokenManager
	client  *http.Client
	baseURL string
}

func NewClient(tokens *TokenManager, client *http.Client, baseURL string) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{tokens: tokens, client: client, baseURL: baseURL}
}

// CreateLead submits one lead through the complex-creation endpoint. The API
// expresses creation as a list even for a single record; the created id is
// taken from the first response element. A 401 invalidates the cached access
// token before the error propagates, so the next call re-authenticates.
func (c *Client) CreateLead(ctx context.Context, payload *mapping.LeadPayload) (int64, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return 0, err
	}

	body, err := json.Marshal([]*mapping.LeadPayload{payload})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v4/leads/complex", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
		return 0, &apperrors.UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Kept verbatim so the audit log records exactly what Kommo said.
		return 0, &apperrors.UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return parseLeadID(respBody)
}

// parseLeadID handles both response shapes the complex endpoint is known to
// produce: a bare array of created leads, and an _embedded envelope.
func parseLeadID(body []byte) (int64, error) {
	var direct []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &direct); err == nil && len(direct) > 0 {
		return direct[0].ID, nil
	}

	var envelope struct {
		Embedded struct {
			Leads []struct {
				ID int64 `json:"id"`
			} `json:"leads"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Embedded.Leads) > 0 {
		return envelope.Embedded.Leads[0].ID, nil
	}

	return 0, fmt.Errorf("lead creation response had no lead id: %s", body)
}
