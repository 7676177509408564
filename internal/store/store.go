// Package store provides the document store used to persist shipments,
// rates and status events.
package store

import (
	"context"
	"errors"
)

// Collections used by the service.
const (
	CollectionShipments    = "shipments"
	CollectionRates        = "rates"
	CollectionStatusEvents = "statusEvents"
	CollectionCarriers     = "carriers"
)

// Server-managed timestamp fields.
const (
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a schemaless record keyed by field name.
type Document map[string]any

// String returns the string value of a field, or "" if absent or not a string.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// Store is a collection/id addressed document store.
type Store interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Update merges fields into an existing document and refreshes updatedAt.
	// Updating a missing document returns ErrNotFound.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Set upserts doc's fields. createdAt is written once, on insert.
	Set(ctx context.Context, collection, id string, doc Document) error
}
