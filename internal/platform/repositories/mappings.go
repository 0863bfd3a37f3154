package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"leadrelay/internal/platform/models"
)

type MappingRepository struct {
	db *sql.DB
}

func NewMappingRepository(db *sql.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

func (r *MappingRepository) ListBySource(sourceID string) ([]*models.FieldMappingRule, error) {
	rows, err := r.db.Query(`
		SELECT id, source_id, source_field_path, target_kind, target_code, position, created_at
		FROM field_mappings WHERE source_id = ? ORDER BY position ASC
	`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*models.FieldMappingRule
	for rows.Next() {
		rule := &models.FieldMappingRule{}
		if err := rows.Scan(&rule.ID, &rule.SourceID, &rule.SourceFieldPath, &rule.TargetKind, &rule.TargetCode, &rule.Position, &rule.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// ReplaceAll swaps a source's rule set atomically: delete-all then insert-all
// in one transaction, so readers never observe a partially updated set.
func (r *MappingRepository) ReplaceAll(sourceID string, rules []*models.FieldMappingRule) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM field_mappings WHERE source_id = ?`, sourceID); err != nil {
		return err
	}

	now := time.Now().Unix()
	for i, rule := range rules {
		id := rule.ID
		if id == "" {
			id = "map_" + uuid.New().String()
		}
		_, err := tx.Exec(`
			INSERT INTO field_mappings (id, source_id, source_field_path, target_kind, target_code, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, sourceID, rule.SourceFieldPath, rule.TargetKind, rule.TargetCode, i, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
