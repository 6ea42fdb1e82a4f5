// Package telemetry records best-effort notification events. Emission
// failures never fail the operation that produced the event.
package telemetry

import (
	"context"
	"time"

	"github.com/qerralabs/launchpad/internal/platform/id"
	"github.com/qerralabs/launchpad/internal/storage"
)

// Event types emitted by the presale engine.
const (
	EventPresaleCreated   = "PRESALE_CREATED"
	EventContribution     = "CONTRIBUTION"
	EventPresaleFinalized = "PRESALE_FINALIZED"
)

// Emitter records notification events.
type Emitter struct {
	store       storage.EventStore
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewEmitter creates a new event emitter.
func NewEmitter(store storage.EventStore) *Emitter {
	return &Emitter{store: store, clock: time.Now, idGenerator: id.NewID}
}

// Emit records an event. It is a no-op when the store is nil.
func (e *Emitter) Emit(ctx context.Context, event storage.Event) error {
	if e == nil || e.store == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		if e.clock == nil {
			event.Timestamp = time.Now().UTC()
		} else {
			event.Timestamp = e.clock().UTC()
		}
	}
	if event.ID == "" {
		generated, err := e.idGenerator()
		if err != nil {
			return err
		}
		event.ID = generated
	}
	return e.store.AppendEvent(ctx, event)
}
