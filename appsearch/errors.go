package appsearch

import "errors"

var (
	ErrEmptyEngineName    = errors.New("appsearch: engine name is empty")
	ErrNilSerialiser      = errors.New("appsearch: serialiser is nil")
	ErrNilRecord          = errors.New("appsearch: record is nil")
	ErrAlreadyRegistered  = errors.New("appsearch: model already registered")
	ErrNotRegistered      = errors.New("appsearch: model not registered")
	ErrEmptyDocumentID    = errors.New("appsearch: document id is empty")
	ErrUnknownOutboxEntry = errors.New("appsearch: unknown outbox action")
	ErrDocumentNotFound   = errors.New("appsearch: document not found")
)
