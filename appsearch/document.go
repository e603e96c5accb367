package appsearch

// Document is the shape pushed to a search engine
type Document map[string]interface{}

const (
	// DocumentIDField carries the document id inside every document
	DocumentIDField = "id"
	// ObjectTypeField names the record type a document came from
	ObjectTypeField = "object_type"
)

// ID returns the document id stamped on the document, or ""
func (d Document) ID() string {
	id, _ := d[DocumentIDField].(string)
	return id
}

// Indexable is implemented by records that can be mirrored into a search engine
type Indexable interface {
	AppSearchDocumentID() string
}

// Serialiser converts a record into the document its engine expects
type Serialiser interface {
	Serialise(record Indexable) (Document, error)
}

// SerialiserFunc adapts a plain function to Serialiser
type SerialiserFunc func(record Indexable) (Document, error)

func (f SerialiserFunc) Serialise(record Indexable) (Document, error) {
	return f(record)
}
