package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jclemens/fieldtm/internal/models"
)

// SaveDraft inserts or updates a draft. Assigns an id on first save.
func (db *DB) SaveDraft(d *models.ProjectDraft) error {
	now := time.Now().UTC()
	if d.ID == "" {
		d.ID = uuid.NewString()
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO drafts (id, payload, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, d.ID, string(payload), d.CreatedAt, d.UpdatedAt)
	return err
}

// GetDraft retrieves a draft by id, nil when not found
func (db *DB) GetDraft(id string) (*models.ProjectDraft, error) {
	var payload string
	err := db.QueryRow("SELECT payload FROM drafts WHERE id = ?", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	d := &models.ProjectDraft{}
	if err := json.Unmarshal([]byte(payload), d); err != nil {
		return nil, err
	}
	return d, nil
}

// LatestDraft returns the most recently updated draft, nil when none exist
func (db *DB) LatestDraft() (*models.ProjectDraft, error) {
	var payload string
	err := db.QueryRow(`
		SELECT payload FROM drafts ORDER BY updated_at DESC LIMIT 1
	`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	d := &models.ProjectDraft{}
	if err := json.Unmarshal([]byte(payload), d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDraft removes a draft, used after successful submission or
// abandonment
func (db *DB) DeleteDraft(id string) error {
	_, err := db.Exec("DELETE FROM drafts WHERE id = ?", id)
	return err
}
