package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ConversionSink reports accepted leads to an ad-platform conversion API so
// campaign attribution sees the same events the CRM does.
type ConversionSink struct {
	client      *http.Client
	endpoint    string
	accessToken string
	eventName   string
	now         func() time.Time
}

func NewConversionSink(client *http.Client, endpoint, accessToken, eventName string) *ConversionSink {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ConversionSink{
		client:      client,
		endpoint:    endpoint,
		accessToken: accessToken,
		eventName:   eventName,
		now:         time.Now,
	}
}

func (s *ConversionSink) Name() string { return "conversion" }

func (s *ConversionSink) Deliver(ctx context.Context, sourceName string, payload map[string]interface{}) error {
	event := map[string]interface{}{
		"event_name": s.eventName,
		"event_time": s.now().Unix(),
		"source":     sourceName,
		"payload":    payload,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	endpoint := s.endpoint
	if s.accessToken != "" {
		sep := "?"
		if u, err := url.Parse(endpoint); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		endpoint += sep + "access_token=" + url.QueryEscape(s.accessToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("conversion API returned HTTP %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
