// Package appsearch keeps database records mirrored in a search engine.
//
// A record type opts in by implementing Indexable and registering an
// IndexConfig (engine name plus Serialiser) with a Registry. Changes are then
// published explicitly, either directly through a Synchroniser or
// transactionally through the Outbox, whose entries a Relay later pushes to
// the configured Engine.
package appsearch
