package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	notionAPIURL  = "https://api.notion.com/v1/pages"
	notionVersion = "2022-06-28"
	// Notion caps a single rich_text element at 2000 characters.
	notionTextLimit = 2000
)

// NotionSink mirrors each accepted lead into a Notion database: one page per
// lead, with the raw payload kept as rich text for manual triage.
type NotionSink struct {
	client     *http.Client
	token      string
	databaseID string
	apiURL     string
}

func NewNotionSink(client *http.Client, token, databaseID string) *NotionSink {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &NotionSink{client: client, token: token, databaseID: databaseID, apiURL: notionAPIURL}
}

func (s *NotionSink) Name() string { return "notion" }

func (s *NotionSink) Deliver(ctx context.Context, sourceName string, payload map[string]interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	text := string(raw)
	if len(text) > notionTextLimit {
		text = text[:notionTextLimit]
	}

	page := map[string]interface{}{
		"parent": map[string]string{"database_id": s.databaseID},
		"properties": map[string]interface{}{
			"Name": map[string]interface{}{
				"title": []map[string]interface{}{
					{"text": map[string]string{"content": leadTitle(sourceName, payload)}},
				},
			},
			"Source": map[string]interface{}{
				"rich_text": []map[string]interface{}{
					{"text": map[string]string{"content": sourceName}},
				},
			},
			"Payload": map[string]interface{}{
				"rich_text": []map[string]interface{}{
					{"text": map[string]string{"content": text}},
				},
			},
		},
	}

	body, err := json.Marshal(page)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notion returned HTTP %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// leadTitle picks a human-readable page title from the raw payload. Landing
// pages send either "name" or "nome" at the top level.
func leadTitle(sourceName string, payload map[string]interface{}) string {
	for _, key := range []string{"name", "nome"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return "Lead from " + sourceName
}
