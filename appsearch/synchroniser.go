package appsearch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const DefaultChunkSize = 100

// Synchroniser pushes records straight to the engine, bypassing the outbox
type Synchroniser struct {
	registry  *Registry
	engine    Engine
	logger    *zap.Logger
	chunkSize int
	enabled   bool
}

type SynchroniserOption func(*Synchroniser)

// WithChunkSize caps the number of documents sent per engine call
func WithChunkSize(size int) SynchroniserOption {
	return func(s *Synchroniser) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithIndexingEnabled turns every call into a no-op when false
func WithIndexingEnabled(enabled bool) SynchroniserOption {
	return func(s *Synchroniser) { s.enabled = enabled }
}

func NewSynchroniser(registry *Registry, engine Engine, logger *zap.Logger, opts ...SynchroniserOption) *Synchroniser {
	s := &Synchroniser{
		registry:  registry,
		engine:    engine,
		logger:    logger,
		chunkSize: DefaultChunkSize,
		enabled:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synchroniser) Enabled() bool { return s.enabled }

// Index serialises records and indexes them, chunked per engine
func (s *Synchroniser) Index(ctx context.Context, records ...Indexable) error {
	if !s.enabled || len(records) == 0 {
		return nil
	}

	engines := make([]string, 0, 1)
	docsByEngine := make(map[string][]Document)
	for _, record := range records {
		engineName, doc, err := s.registry.Serialise(record)
		if err != nil {
			return err
		}
		if _, ok := docsByEngine[engineName]; !ok {
			engines = append(engines, engineName)
		}
		docsByEngine[engineName] = append(docsByEngine[engineName], doc)
	}

	for _, engineName := range engines {
		docs := docsByEngine[engineName]
		for start := 0; start < len(docs); start += s.chunkSize {
			end := min(start+s.chunkSize, len(docs))
			if err := s.engine.IndexDocuments(ctx, engineName, docs[start:end]); err != nil {
				s.logger.Error("Failed to index chunk",
					zap.String("engine", engineName),
					zap.Int("offset", start),
					zap.Error(err))
				return fmt.Errorf("index into %s: %w", engineName, err)
			}
		}
		s.logger.Info("Indexed documents", zap.String("engine", engineName), zap.Int("count", len(docs)))
	}
	return nil
}

// Delete removes records from their engines, chunked per engine
func (s *Synchroniser) Delete(ctx context.Context, records ...Indexable) error {
	if !s.enabled || len(records) == 0 {
		return nil
	}

	engines := make([]string, 0, 1)
	idsByEngine := make(map[string][]string)
	for _, record := range records {
		if isNilRecord(record) {
			return ErrNilRecord
		}
		cfg, err := s.registry.ConfigFor(record)
		if err != nil {
			return err
		}
		id := record.AppSearchDocumentID()
		if id == "" {
			return ErrEmptyDocumentID
		}
		if _, ok := idsByEngine[cfg.EngineName]; !ok {
			engines = append(engines, cfg.EngineName)
		}
		idsByEngine[cfg.EngineName] = append(idsByEngine[cfg.EngineName], id)
	}

	for _, engineName := range engines {
		ids := idsByEngine[engineName]
		for start := 0; start < len(ids); start += s.chunkSize {
			end := min(start+s.chunkSize, len(ids))
			if err := s.engine.DeleteDocuments(ctx, engineName, ids[start:end]); err != nil {
				s.logger.Error("Failed to delete chunk",
					zap.String("engine", engineName),
					zap.Int("offset", start),
					zap.Error(err))
				return fmt.Errorf("delete from %s: %w", engineName, err)
			}
		}
		s.logger.Info("Deleted documents", zap.String("engine", engineName), zap.Int("count", len(ids)))
	}
	return nil
}
