package appsearch

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// IndexConfig binds a record type to its search engine
type IndexConfig struct {
	EngineName string
	Serialiser Serialiser
}

func (c IndexConfig) Validate() error {
	if strings.TrimSpace(c.EngineName) == "" {
		return ErrEmptyEngineName
	}
	if c.Serialiser == nil {
		return ErrNilSerialiser
	}
	return nil
}

// Registry maps record types to their IndexConfig. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	configs map[reflect.Type]IndexConfig
}

func NewRegistry() *Registry {
	return &Registry{configs: make(map[reflect.Type]IndexConfig)}
}

// Register binds the type of model (value or pointer) to cfg
func (r *Registry) Register(model Indexable, cfg IndexConfig) error {
	if model == nil {
		return ErrNilRecord
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	t := modelType(model)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.configs[t]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, t.Name())
	}
	r.configs[t] = cfg
	return nil
}

// ConfigFor returns the IndexConfig registered for the type of model
func (r *Registry) ConfigFor(model Indexable) (IndexConfig, error) {
	if model == nil {
		return IndexConfig{}, ErrNilRecord
	}
	t := modelType(model)

	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[t]
	if !ok {
		return IndexConfig{}, fmt.Errorf("%w: %s", ErrNotRegistered, t.Name())
	}
	return cfg, nil
}

// EngineNames lists the distinct registered engine names, sorted
func (r *Registry) EngineNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.configs))
	names := make([]string, 0, len(r.configs))
	for _, cfg := range r.configs {
		if _, ok := seen[cfg.EngineName]; ok {
			continue
		}
		seen[cfg.EngineName] = struct{}{}
		names = append(names, cfg.EngineName)
	}
	sort.Strings(names)
	return names
}

// Serialise runs the registered serialiser for record and stamps the document
// id and object type onto the result when the serialiser left them out.
func (r *Registry) Serialise(record Indexable) (string, Document, error) {
	if isNilRecord(record) {
		return "", nil, ErrNilRecord
	}
	cfg, err := r.ConfigFor(record)
	if err != nil {
		return "", nil, err
	}

	id := record.AppSearchDocumentID()
	if id == "" {
		return "", nil, ErrEmptyDocumentID
	}

	doc, err := cfg.Serialiser.Serialise(record)
	if err != nil {
		return "", nil, fmt.Errorf("serialise %s: %w", id, err)
	}
	if doc == nil {
		doc = Document{}
	}
	if _, ok := doc[DocumentIDField]; !ok {
		doc[DocumentIDField] = id
	}
	if _, ok := doc[ObjectTypeField]; !ok {
		doc[ObjectTypeField] = ObjectType(record)
	}
	return cfg.EngineName, doc, nil
}

// ObjectType is the lower-case type name of record, e.g. "car"
func ObjectType(record Indexable) string {
	return strings.ToLower(modelType(record).Name())
}

func isNilRecord(record Indexable) bool {
	if record == nil {
		return true
	}
	v := reflect.ValueOf(record)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

func modelType(model Indexable) reflect.Type {
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
