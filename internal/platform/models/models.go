package models

// Source is a named inbound channel. Everything except FeedURL is immutable
// after creation.
type Source struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	FeedURL   string `json:"feed_url,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// FieldMappingRule places the value found at SourceFieldPath in an inbound
// payload into the Kommo slot named by TargetKind/TargetCode. Rules belong to
// a source and are replaced as a whole set, ordered by Position.
type FieldMappingRule struct {
	ID              string `json:"id"`
	SourceID        string `json:"source_id"`
	SourceFieldPath string `json:"source_field_path"`
	TargetKind      string `json:"target_kind"`
	TargetCode      string `json:"target_code"`
	Position        int    `json:"position"`
	CreatedAt       int64  `json:"created_at"`
}

const (
	LogStatePending = "pending"
	LogStateSuccess = "success"
	LogStateFailure = "failure"
)

// RequestLog is the audit record for one inbound submission. State moves
// pending -> success|failure exactly once.
type RequestLog struct {
	ID        string `json:"id"`
	SourceID  string `json:"source_id"`
	State     string `json:"state"`
	RawInput  string `json:"raw_input"`
	Response  string `json:"response,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}
