package repositories

import (
	"database/sql"
	"time"

	"leadrelay/internal/platform/models"
)

type RequestLogRepository struct {
	db *sql.DB
}

func NewRequestLogRepository(db *sql.DB) *RequestLogRepository {
	return &RequestLogRepository{db: db}
}

// CreatePending inserts the audit row before any downstream call so every
// attempt is on record even if the process dies mid-request.
func (r *RequestLogRepository) CreatePending(entry *models.RequestLog) error {
	entry.State = models.LogStatePending
	_, err := r.db.Exec(`
		INSERT INTO request_logs (id, source_id, state, raw_input, response, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.SourceID, entry.State, entry.RawInput, entry.Response, entry.CreatedAt, entry.UpdatedAt)
	return err
}

// MarkSuccess and MarkFailure only fire while the row is still pending, which
// keeps the pending -> success|failure transition one-way.
func (r *RequestLogRepository) MarkSuccess(id, response string) error {
	_, err := r.db.Exec(`
		UPDATE request_logs SET state = ?, response = ?, updated_at = ?
		WHERE id = ? AND state = ?
	`, models.LogStateSuccess, response, time.Now().Unix(), id, models.LogStatePending)
	return err
}

func (r *RequestLogRepository) MarkFailure(id, response string) error {
	_, err := r.db.Exec(`
		UPDATE request_logs SET state = ?, response = ?, updated_at = ?
		WHERE id = ? AND state = ?
	`, models.LogStateFailure, response, time.Now().Unix(), id, models.LogStatePending)
	return err
}

func (r *RequestLogRepository) GetByID(id string) (*models.RequestLog, error) {
	entry := &models.RequestLog{}
	err := r.db.QueryRow(`
		SELECT id, source_id, state, raw_input, response, created_at, updated_at
		FROM request_logs WHERE id = ?
	`, id).Scan(&entry.ID, &entry.SourceID, &entry.State, &entry.RawInput, &entry.Response, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

func (r *RequestLogRepository) List(page, limit int) ([]*models.RequestLog, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM request_logs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(`
		SELECT id, source_id, state, raw_input, response, created_at, updated_at
		FROM request_logs ORDER BY created_at DESC LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logs []*models.RequestLog
	for rows.Next() {
		entry := &models.RequestLog{}
		if err := rows.Scan(&entry.ID, &entry.SourceID, &entry.State, &entry.RawInput, &entry.Response, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, 0, err
		}
		logs = append(logs, entry)
	}
	return logs, total, rows.Err()
}
