package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/shared"
)

// HistoryRepository stores the tracks the controller started, in sqlite.
type HistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

// Record inserts a history row for d with a generated ID and sequence.
func (r *HistoryRepository) Record(d models.Descriptor) (*models.HistoryEntry, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("%w: history entry without media id", shared.ErrInvalidInput)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "history")
	if err != nil {
		return nil, err
	}

	entry := &models.HistoryEntry{
		ID:       shared.GenerateID(),
		Sequence: sequence,
		MediaID:  d.ID,
		Title:    d.Title,
		URL:      d.URL,
		PlayedAt: r.now().UTC(),
	}

	query := `
		INSERT INTO history (id, sequence, media_id, title, url, played_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.Exec(query, entry.ID, entry.Sequence, entry.MediaID, entry.Title, entry.URL, entry.PlayedAt); err != nil {
		return nil, fmt.Errorf("failed to insert history entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit history entry: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first.
func (r *HistoryRepository) Recent(limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, sequence, media_id, title, url, played_at
		FROM history
		ORDER BY sequence DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Sequence, &e.MediaID, &e.Title, &e.URL, &e.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return entries, nil
}

// Count returns how many times mediaID was started.
func (r *HistoryRepository) Count(mediaID string) (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM history WHERE media_id = ?", mediaID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// Clear deletes every history row. Sequence numbers keep increasing.
func (r *HistoryRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM history"); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
