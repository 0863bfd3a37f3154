package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"leadrelay/internal/platform/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	query := `
	CREATE TABLE sources (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		feed_url TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE field_mappings (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		source_field_path TEXT NOT NULL,
		target_kind TEXT NOT NULL,
		target_code TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE request_logs (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'pending',
		raw_input TEXT NOT NULL DEFAULT '',
		response TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE app_config (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}
	return db
}

func TestSourceRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewSourceRepository(db)
	now := time.Now().Unix()

	src := &models.Source{
		ID:        "src_1",
		Name:      "landing-a",
		Type:      "webform",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(src); err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}

	fetched, err := repo.GetByName("landing-a")
	if err != nil {
		t.Fatalf("Failed to get source: %v", err)
	}
	if fetched == nil || fetched.ID != "src_1" {
		t.Errorf("Expected src_1, got %+v", fetched)
	}

	missing, err := repo.GetByName("nope")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for unknown name, got %+v", missing)
	}
}

func TestSourceRepository_UpdateFeedURL(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewSourceRepository(db)
	now := time.Now().Unix()
	src := &models.Source{ID: "src_1", Name: "landing-a", CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(src); err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}

	if err := repo.UpdateFeedURL("src_1", "https://feed.example.com"); err != nil {
		t.Fatalf("Failed to update feed url: %v", err)
	}

	fetched, _ := repo.GetByID("src_1")
	if fetched.FeedURL != "https://feed.example.com" {
		t.Errorf("Expected feed url update, got %s", fetched.FeedURL)
	}
	if fetched.Name != "landing-a" {
		t.Errorf("Name must stay immutable, got %s", fetched.Name)
	}
}

func TestMappingRepository_ReplaceAll(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewMappingRepository(db)

	initial := []*models.FieldMappingRule{
		{SourceFieldPath: "a", TargetKind: "lead_name"},
		{SourceFieldPath: "b", TargetKind: "tag"},
	}
	if err := repo.ReplaceAll("src_1", initial); err != nil {
		t.Fatalf("Failed to replace rules: %v", err)
	}

	replacement := []*models.FieldMappingRule{
		{SourceFieldPath: "c", TargetKind: "contact_first_name"},
	}
	if err := repo.ReplaceAll("src_1", replacement); err != nil {
		t.Fatalf("Failed to replace rules: %v", err)
	}

	rules, err := repo.ListBySource("src_1")
	if err != nil {
		t.Fatalf("Failed to list rules: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("Expected old set fully replaced, got %d rules", len(rules))
	}
	if rules[0].SourceFieldPath != "c" {
		t.Errorf("Expected replacement rule, got %s", rules[0].SourceFieldPath)
	}
}

func TestMappingRepository_ReplaceAll_PreservesOrder(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewMappingRepository(db)

	rules := []*models.FieldMappingRule{
		{SourceFieldPath: "third", TargetKind: "tag"},
		{SourceFieldPath: "first", TargetKind: "lead_name"},
		{SourceFieldPath: "second", TargetKind: "tag"},
	}
	if err := repo.ReplaceAll("src_1", rules); err != nil {
		t.Fatalf("Failed to replace rules: %v", err)
	}

	stored, err := repo.ListBySource("src_1")
	if err != nil {
		t.Fatalf("Failed to list rules: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("Expected 3 rules, got %d", len(stored))
	}
	for i, expected := range []string{"third", "first", "second"} {
		if stored[i].SourceFieldPath != expected {
			t.Errorf("Position %d: expected %s, got %s", i, expected, stored[i].SourceFieldPath)
		}
		if stored[i].Position != i {
			t.Errorf("Position %d: expected position %d, got %d", i, i, stored[i].Position)
		}
	}
}

func TestRequestLogRepository_OneWayTransition(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRequestLogRepository(db)
	now := time.Now().Unix()

	entry := &models.RequestLog{
		ID:        "log_1",
		SourceID:  "src_1",
		RawInput:  `{"name":"Ana"}`,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreatePending(entry); err != nil {
		t.Fatalf("Failed to create pending log: %v", err)
	}

	fetched, _ := repo.GetByID("log_1")
	if fetched.State != models.LogStatePending {
		t.Fatalf("Expected pending, got %s", fetched.State)
	}

	if err := repo.MarkSuccess("log_1", `{"lead_id":1}`); err != nil {
		t.Fatalf("Failed to mark success: %v", err)
	}

	// A second transition must not take: the row is no longer pending
	if err := repo.MarkFailure("log_1", `{"error":"late"}`); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	fetched, _ = repo.GetByID("log_1")
	if fetched.State != models.LogStateSuccess {
		t.Errorf("Expected state to stay success, got %s", fetched.State)
	}
	if fetched.Response != `{"lead_id":1}` {
		t.Errorf("Expected original response preserved, got %s", fetched.Response)
	}
}

func TestRequestLogRepository_List(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRequestLogRepository(db)

	for i := 0; i < 5; i++ {
		entry := &models.RequestLog{
			ID:        "log_" + string(rune('a'+i)),
			SourceID:  "src_1",
			CreatedAt: int64(1000 + i),
			UpdatedAt: int64(1000 + i),
		}
		if err := repo.CreatePending(entry); err != nil {
			t.Fatalf("Failed to create log: %v", err)
		}
	}

	logs, total, err := repo.List(1, 2)
	if err != nil {
		t.Fatalf("Failed to list logs: %v", err)
	}
	if total != 5 {
		t.Errorf("Expected total 5, got %d", total)
	}
	if len(logs) != 2 {
		t.Fatalf("Expected page of 2, got %d", len(logs))
	}
	if logs[0].CreatedAt < logs[1].CreatedAt {
		t.Error("Expected newest first")
	}
}

func TestConfigRepository_TokenRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewConfigRepository(db)
	ctx := context.Background()

	// Missing row reads as empty, not as an error
	value, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if value != "" {
		t.Errorf("Expected empty value, got %s", value)
	}

	if err := repo.Set(ctx, "refresh-a"); err != nil {
		t.Fatalf("Failed to set token: %v", err)
	}
	// Rotation overwrites in place
	if err := repo.Set(ctx, "refresh-b"); err != nil {
		t.Fatalf("Failed to rotate token: %v", err)
	}

	value, err = repo.Get(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if value != "refresh-b" {
		t.Errorf("Expected refresh-b, got %s", value)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM app_config`).Scan(&count)
	if count != 1 {
		t.Errorf("Expected a single config row, got %d", count)
	}
}
