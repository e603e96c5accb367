package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"
)

// IndexingService owns one bleve index per engine name. With an empty base
// path every index lives in memory only.
type IndexingService struct {
	mu       sync.RWMutex
	indexes  map[string]bleve.Index
	logger   *zap.Logger
	basePath string
}

func NewIndexingService(logger *zap.Logger, basePath string) *IndexingService {
	return &IndexingService{
		indexes:  make(map[string]bleve.Index),
		logger:   logger,
		basePath: basePath,
	}
}

// NewMemoryIndexingService keeps every index in memory
func NewMemoryIndexingService(logger *zap.Logger) *IndexingService {
	return NewIndexingService(logger, "")
}

func (s *IndexingService) inMemory() bool {
	return s.basePath == ""
}

func (s *IndexingService) indexPath(indexName string) string {
	return filepath.Join(s.basePath, indexName+".bleve")
}

func newIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "standard"
	indexMapping.StoreDynamic = true
	return indexMapping
}

func (s *IndexingService) getOrCreateIndex(indexName string) (bleve.Index, error) {
	s.mu.RLock()
	idx, ok := s.indexes[indexName]
	s.mu.RUnlock()
	if ok {
		return idx, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indexes[indexName]; ok {
		return idx, nil
	}

	var err error
	if s.inMemory() {
		idx, err = bleve.NewMemOnly(newIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory index %s: %w", indexName, err)
		}
	} else {
		fullPath := s.indexPath(indexName)
		idx, err = bleve.Open(fullPath)
		if err != nil {
			if err := os.MkdirAll(s.basePath, os.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create index directory %s: %w", s.basePath, err)
			}
			idx, err = bleve.New(fullPath, newIndexMapping())
			if err != nil {
				return nil, fmt.Errorf("failed to create index %s: %w", fullPath, err)
			}
		}
	}

	s.indexes[indexName] = idx
	return idx, nil
}

// runSearch runs a fully built request; all stored fields are returned
func (s *IndexingService) runSearch(indexName string, searchRequest *bleve.SearchRequest) (*bleve.SearchResult, error) {
	idx, err := s.getOrCreateIndex(indexName)
	if err != nil {
		s.logger.Error("Could not get or create index", zap.String("index_name", indexName), zap.Error(err))
		return nil, err
	}

	searchRequest.Fields = []string{"*"}

	searchResult, err := idx.Search(searchRequest)
	if err != nil {
		s.logger.Error("Search failed", zap.String("index_name", indexName), zap.Error(err))
		return nil, err
	}

	return searchResult, nil
}

func (s *IndexingService) BulkIndexDocuments(indexName string, documents map[string]interface{}) error {
	idx, err := s.getOrCreateIndex(indexName)
	if err != nil {
		s.logger.Error("Could not get or create index", zap.String("index_name", indexName), zap.Error(err))
		return err
	}

	batch := idx.NewBatch()
	for id, doc := range documents {
		if err := batch.Index(id, doc); err != nil {
			s.logger.Error("Failed to add doc to batch", zap.String("id", id), zap.Error(err))
			return err
		}
	}

	if err := idx.Batch(batch); err != nil {
		s.logger.Error("Failed to execute batch", zap.Error(err))
		return err
	}

	s.logger.Info("Successfully bulk indexed documents",
		zap.String("index_name", indexName),
		zap.Int("count", len(documents)))
	return nil
}

// BulkDeleteDocuments removes every id in one batch
func (s *IndexingService) BulkDeleteDocuments(indexName string, ids []string) error {
	idx, err := s.getOrCreateIndex(indexName)
	if err != nil {
		s.logger.Error("Could not get or create index", zap.String("index_name", indexName), zap.Error(err))
		return err
	}

	batch := idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}

	if err := idx.Batch(batch); err != nil {
		s.logger.Error("Failed to execute delete batch", zap.Error(err))
		return err
	}

	s.logger.Info("Successfully bulk deleted documents",
		zap.String("index_name", indexName),
		zap.Int("count", len(ids)))
	return nil
}

// DeleteIndex closes the index and removes its files. Indexes that were never
// opened are removed from disk if present.
func (s *IndexingService) DeleteIndex(indexName string) error {
	s.mu.Lock()
	idx, exists := s.indexes[indexName]
	delete(s.indexes, indexName)
	s.mu.Unlock()

	if exists {
		if err := idx.Close(); err != nil {
			s.logger.Error("Failed to close index before deletion",
				zap.String("index_name", indexName),
				zap.Error(err))
			return fmt.Errorf("failed to close index: %w", err)
		}
	}

	if s.inMemory() {
		s.logger.Info("Successfully deleted index", zap.String("index_name", indexName))
		return nil
	}

	fullPath := s.indexPath(indexName)
	if err := os.RemoveAll(fullPath); err != nil {
		s.logger.Error("Failed to delete index files",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete index files: %w", err)
	}

	s.logger.Info("Successfully deleted index",
		zap.String("index_name", indexName))
	return nil
}

// Close closes every open index without deleting it
func (s *IndexingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for name, idx := range s.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(s.indexes, name)
	}
	return errors.Join(errs...)
}
