package appsearch

import (
	"encoding/json"
	"fmt"
	"time"

	"car-search-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Outbox records pending engine operations inside the caller's transaction
type Outbox struct {
	registry *Registry
}

func NewOutbox(registry *Registry) *Outbox {
	return &Outbox{registry: registry}
}

// Enqueue writes one outbox entry per record using tx
func (o *Outbox) Enqueue(tx *gorm.DB, action models.SearchOutboxAction, records ...Indexable) error {
	if len(records) == 0 {
		return nil
	}

	// Entries of one call get strictly increasing timestamps so the relay
	// replays them in call order.
	base := time.Now()
	entries := make([]models.SearchOutboxEntry, 0, len(records))
	for i, record := range records {
		entry, err := o.entryFor(action, record)
		if err != nil {
			return err
		}
		entry.CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
		entries = append(entries, entry)
	}

	if err := tx.Create(&entries).Error; err != nil {
		return fmt.Errorf("write search outbox: %w", err)
	}
	return nil
}

func (o *Outbox) entryFor(action models.SearchOutboxAction, record Indexable) (models.SearchOutboxEntry, error) {
	entry := models.SearchOutboxEntry{
		ID:     uuid.New(),
		Action: action,
	}

	switch action {
	case models.SearchOutboxActionIndex:
		engineName, doc, err := o.registry.Serialise(record)
		if err != nil {
			return entry, err
		}
		payload, err := json.Marshal(doc)
		if err != nil {
			return entry, fmt.Errorf("encode document %s: %w", doc.ID(), err)
		}
		entry.EngineName = engineName
		entry.DocumentID = doc.ID()
		entry.Payload = datatypes.JSON(payload)
	case models.SearchOutboxActionDelete:
		if isNilRecord(record) {
			return entry, ErrNilRecord
		}
		cfg, err := o.registry.ConfigFor(record)
		if err != nil {
			return entry, err
		}
		id := record.AppSearchDocumentID()
		if id == "" {
			return entry, ErrEmptyDocumentID
		}
		entry.EngineName = cfg.EngineName
		entry.DocumentID = id
	default:
		return entry, fmt.Errorf("%w: %q", ErrUnknownOutboxEntry, action)
	}
	return entry, nil
}
