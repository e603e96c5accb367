package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SearchOutboxAction string

const (
	SearchOutboxActionIndex  SearchOutboxAction = "index"
	SearchOutboxActionDelete SearchOutboxAction = "delete"
)

// SearchOutboxEntry is a pending search engine operation. Entries are written in
// the same transaction as the record change they describe.
type SearchOutboxEntry struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key;" json:"id"`
	EngineName  string             `gorm:"not null;index" json:"engine_name"`
	DocumentID  string             `gorm:"not null" json:"document_id"`
	Action      SearchOutboxAction `gorm:"type:varchar(16);not null" json:"action"`
	Payload     datatypes.JSON     `json:"payload,omitempty"` // Serialised document, empty for deletes
	Attempts    int                `gorm:"not null;default:0" json:"attempts"`
	LastError   string             `json:"last_error,omitempty"`
	ProcessedAt *time.Time         `gorm:"index" json:"processed_at,omitempty"`
	CreatedAt   time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
}

func (SearchOutboxEntry) TableName() string {
	return "search_outbox_entries"
}
