package repositories

import (
	"database/sql"
	"time"

	"leadrelay/internal/platform/models"
)

type SourceRepository struct {
	db *sql.DB
}

func NewSourceRepository(db *sql.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

func (r *SourceRepository) Create(src *models.Source) error {
	_, err := r.db.Exec(`
		INSERT INTO sources (id, name, type, feed_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, src.ID, src.Name, src.Type, src.FeedURL, src.CreatedAt, src.UpdatedAt)
	return err
}

func (r *SourceRepository) GetByID(id string) (*models.Source, error) {
	src := &models.Source{}
	err := r.db.QueryRow(`
		SELECT id, name, type, feed_url, created_at, updated_at
		FROM sources WHERE id = ?
	`, id).Scan(&src.ID, &src.Name, &src.Type, &src.FeedURL, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return src, nil
}

func (r *SourceRepository) GetByName(name string) (*models.Source, error) {
	src := &models.Source{}
	err := r.db.QueryRow(`
		SELECT id, name, type, feed_url, created_at, updated_at
		FROM sources WHERE name = ?
	`, name).Scan(&src.ID, &src.Name, &src.Type, &src.FeedURL, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return src, nil
}

func (r *SourceRepository) List() ([]*models.Source, error) {
	rows, err := r.db.Query(`
		SELECT id, name, type, feed_url, created_at, updated_at
		FROM sources ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*models.Source
	for rows.Next() {
		src := &models.Source{}
		if err := rows.Scan(&src.ID, &src.Name, &src.Type, &src.FeedURL, &src.CreatedAt, &src.UpdatedAt); err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// UpdateFeedURL is the only mutation a source supports after creation.
func (r *SourceRepository) UpdateFeedURL(id, feedURL string) error {
	_, err := r.db.Exec(`UPDATE sources SET feed_url = ?, updated_at = ? WHERE id = ?`,
		feedURL, time.Now().Unix(), id)
	return err
}
