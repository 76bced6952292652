// Package audit keeps a trail of what caseworkers did to applications,
// assessments, placements and premises.
package audit

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action is what happened to a record
type Action string

const (
	ActionCreated           Action = "created"
	ActionPageSaved         Action = "page_saved"
	ActionSubmitted         Action = "submitted"
	ActionWithdrawn         Action = "withdrawn"
	ActionAccepted          Action = "accepted"
	ActionRejected          Action = "rejected"
	ActionClarificationNote Action = "clarification_note_created"
	ActionSpaceBooked       Action = "space_booking_created"
	ActionBookingCancelled  Action = "space_booking_cancelled"
	ActionBookingNotMade    Action = "booking_not_made"
	ActionBedOutOfService   Action = "out_of_service_bed_created"
)

// Event is one entry in the trail
type Event struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Username   string         `json:"username"`
	Journey    string         `json:"journey"`
	RecordID   string         `json:"recordId"`
	Task       string         `json:"task,omitempty"`
	Page       string         `json:"page,omitempty"`
	Action     Action         `json:"action"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// fill sets the ID and time of an event that has none
func (e *Event) fill() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if e.Detail == nil {
		e.Detail = map[string]any{}
	}
}

// Repository stores audit events
type Repository interface {
	Record(ctx context.Context, e *Event) error
	ListForRecord(ctx context.Context, recordID string, limit int) ([]*Event, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// NopRepository discards events. It is used when no database is configured.
type NopRepository struct{}

func (NopRepository) Record(context.Context, *Event) error { return nil }

func (NopRepository) ListForRecord(context.Context, string, int) ([]*Event, error) {
	return nil, nil
}

func (NopRepository) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func (NopRepository) Ping(context.Context) error { return nil }

func (NopRepository) Close() error { return nil }

// MemoryRepository keeps events in memory
type MemoryRepository struct {
	mu     sync.RWMutex
	events []*Event
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Record(_ context.Context, e *Event) error {
	e.fill()
	cp := *e
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, &cp)
	return nil
}

// ListForRecord returns the newest events first
func (r *MemoryRepository) ListForRecord(_ context.Context, recordID string, limit int) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Event
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].RecordID != recordID {
			continue
		}
		cp := *r.events[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.events)
	r.events = slices.DeleteFunc(r.events, func(e *Event) bool {
		return e.OccurredAt.Before(cutoff)
	})
	return int64(before - len(r.events)), nil
}

// Events returns every stored event, oldest first
func (r *MemoryRepository) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Event, len(r.events))
	for i, e := range r.events {
		out[i] = *e
	}
	return out
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }

func (r *MemoryRepository) Close() error { return nil }
