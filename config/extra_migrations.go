package config

import "gorm.io/gorm"

// CreateOutboxPendingIndex creates a partial index over unprocessed outbox
// entries so the relay's claim query stays cheap once processed rows pile up.
// PostgreSQL only; other dialects skip it.
func CreateOutboxPendingIndex(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_search_outbox_entries_pending
		ON search_outbox_entries (created_at)
		WHERE processed_at IS NULL;
	`).Error
}
