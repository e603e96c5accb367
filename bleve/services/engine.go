package services

import (
	"context"
	"fmt"
	"sort"

	"car-search-backend/appsearch"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

const defaultSearchSize = 20

var _ appsearch.Engine = (*IndexingService)(nil)

// IndexDocuments implements appsearch.Engine. Documents are keyed by their "id" field.
func (s *IndexingService) IndexDocuments(ctx context.Context, engineName string, docs []appsearch.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	batch := make(map[string]interface{}, len(docs))
	for _, doc := range docs {
		id := doc.ID()
		if id == "" {
			return appsearch.ErrEmptyDocumentID
		}
		batch[id] = map[string]interface{}(doc)
	}
	return s.BulkIndexDocuments(engineName, batch)
}

// DeleteDocuments implements appsearch.Engine
func (s *IndexingService) DeleteDocuments(ctx context.Context, engineName string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return s.BulkDeleteDocuments(engineName, ids)
}

// Search implements appsearch.Engine. Query uses the bleve query string syntax.
func (s *IndexingService) Search(ctx context.Context, engineName string, req appsearch.SearchRequest) (*appsearch.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size := req.Size
	if size <= 0 {
		size = defaultSearchSize
	}

	searchRequest := bleve.NewSearchRequestOptions(BuildQuery(req), size, max(req.From, 0), false)
	if len(req.SortBy) > 0 {
		searchRequest.SortBy(req.SortBy)
	}

	result, err := s.runSearch(engineName, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", engineName, err)
	}

	out := &appsearch.SearchResult{
		Total: result.Total,
		Hits:  make([]appsearch.SearchHit, 0, len(result.Hits)),
	}
	for _, hit := range result.Hits {
		out.Hits = append(out.Hits, appsearch.SearchHit{
			ID:     hit.ID,
			Score:  hit.Score,
			Fields: appsearch.Document(hit.Fields),
		})
	}
	return out, nil
}

// GetDocument implements appsearch.Engine by searching for the document id
func (s *IndexingService) GetDocument(ctx context.Context, engineName, id string) (appsearch.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchRequest := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
	searchRequest.Size = 1

	result, err := s.runSearch(engineName, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", engineName, id, err)
	}
	if len(result.Hits) == 0 {
		return nil, fmt.Errorf("%w: %s", appsearch.ErrDocumentNotFound, id)
	}
	return appsearch.Document(result.Hits[0].Fields), nil
}

// DropEngine implements appsearch.Engine
func (s *IndexingService) DropEngine(ctx context.Context, engineName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.DeleteIndex(engineName)
}

// BuildQuery turns a SearchRequest into a bleve query: the free text part as a
// query string, each filter as a phrase match on its field.
func BuildQuery(req appsearch.SearchRequest) query.Query {
	clauses := make([]query.Query, 0, len(req.Filters)+1)
	if req.Query != "" {
		clauses = append(clauses, bleve.NewQueryStringQuery(req.Query))
	}

	fields := make([]string, 0, len(req.Filters))
	for field := range req.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		match := bleve.NewMatchPhraseQuery(req.Filters[field])
		match.SetField(field)
		clauses = append(clauses, match)
	}

	switch len(clauses) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return clauses[0]
	default:
		return bleve.NewConjunctionQuery(clauses...)
	}
}
