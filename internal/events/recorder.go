// Package events records shipment status changes.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tournevent/carrierlink/internal/store"
)

// StatusEvent is one recorded status transition.
type StatusEvent struct {
	ID        string         `json:"id"`
	EntityID  string         `json:"entityId"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Note      string         `json:"note,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Recorder records status transitions of an entity.
type Recorder interface {
	RecordStatusChange(ctx context.Context, entityID, from, to string, metadata map[string]any, note string) error
}

// NewStatusEvent builds an event with a fresh id.
func NewStatusEvent(entityID, from, to string, metadata map[string]any, note string) StatusEvent {
	return StatusEvent{
		ID:        uuid.New().String(),
		EntityID:  entityID,
		From:      from,
		To:        to,
		Metadata:  metadata,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}
}

// StoreRecorder writes events to the statusEvents collection.
type StoreRecorder struct {
	store store.Store
}

// NewStoreRecorder creates a StoreRecorder on s.
func NewStoreRecorder(s store.Store) *StoreRecorder {
	return &StoreRecorder{store: s}
}

// RecordStatusChange implements Recorder.
func (r *StoreRecorder) RecordStatusChange(ctx context.Context, entityID, from, to string, metadata map[string]any, note string) error {
	ev := NewStatusEvent(entityID, from, to, metadata, note)
	doc := store.Document{
		"entityId":   ev.EntityID,
		"fromStatus": ev.From,
		"toStatus":   ev.To,
		"note":       ev.Note,
		"timestamp":  ev.CreatedAt,
	}
	if len(ev.Metadata) > 0 {
		doc["metadata"] = ev.Metadata
	}
	if err := r.store.Set(ctx, store.CollectionStatusEvents, ev.ID, doc); err != nil {
		return fmt.Errorf("record status change %s %s->%s: %w", entityID, from, to, err)
	}
	return nil
}

// Multi fans a status change out to every recorder. All recorders run;
// their errors are joined.
type Multi []Recorder

// RecordStatusChange implements Recorder.
func (m Multi) RecordStatusChange(ctx context.Context, entityID, from, to string, metadata map[string]any, note string) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordStatusChange(ctx, entityID, from, to, metadata, note); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every event.
type Nop struct{}

// RecordStatusChange implements Recorder.
func (Nop) RecordStatusChange(context.Context, string, string, string, map[string]any, string) error {
	return nil
}

var (
	_ Recorder = (*StoreRecorder)(nil)
	_ Recorder = Multi(nil)
	_ Recorder = Nop{}
)
