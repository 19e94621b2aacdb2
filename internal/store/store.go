package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rehablink/physio-api/internal/model"
	"github.com/rehablink/physio-api/internal/repository"
	"github.com/rehablink/physio-api/pkg/logger"
	"github.com/rehablink/physio-api/pkg/metrics"
)

// Collection names as persisted by the blob store.
const (
	CollectionPatients            = "patients"
	CollectionPhysiotherapists    = "physiotherapists"
	CollectionAppointments        = "appointments"
	CollectionAppointmentRequests = "appointment_requests"
	CollectionRescheduleRequests  = "reschedule_requests"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// ChangeEvent is the coarse "something changed" signal emitted after every
// committed mutation.
type ChangeEvent struct {
	Collection string    `json:"collection"`
	EntityID   uuid.UUID `json:"entity_id"`
	Op         Op        `json:"op"`
}

// Store owns the authoritative in-memory collections. Every transition runs
// to completion under a single lock, so no caller ever observes a
// half-applied transition. Mutated collections are persisted as blobs before
// the lock is released; change events are delivered after.
type Store struct {
	mu    sync.RWMutex
	blobs repository.BlobStore
	log   *logger.Logger
	mtx   *metrics.Metrics

	patients         map[uuid.UUID]*model.Patient
	physiotherapists map[uuid.UUID]*model.Physiotherapist
	appointments     map[uuid.UUID]*model.Appointment
	apptRequests     map[uuid.UUID]*model.AppointmentRequest
	reschedules      map[uuid.UUID]*model.RescheduleRequest

	// Insertion order per collection; history views preserve it.
	appointmentOrder []uuid.UUID
	apptRequestOrder []uuid.UUID
	rescheduleOrder  []uuid.UUID

	subMu sync.Mutex
	subs  []chan ChangeEvent
}

// New constructs an empty store. Call Load to hydrate it from the blob
// backend before serving traffic.
func New(blobs repository.BlobStore, log *logger.Logger, mtx *metrics.Metrics) *Store {
	return &Store{
		blobs:            blobs,
		log:              log,
		mtx:              mtx,
		patients:         make(map[uuid.UUID]*model.Patient),
		physiotherapists: make(map[uuid.UUID]*model.Physiotherapist),
		appointments:     make(map[uuid.UUID]*model.Appointment),
		apptRequests:     make(map[uuid.UUID]*model.AppointmentRequest),
		reschedules:      make(map[uuid.UUID]*model.RescheduleRequest),
	}
}

// Load hydrates every collection from the blob store. Missing blobs are
// treated as empty collections on first start.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := loadCollection(ctx, s.blobs, CollectionPatients, func(items []*model.Patient) {
		for _, p := range items {
			s.patients[p.ID] = p
		}
	}); err != nil {
		return err
	}

	if err := loadCollection(ctx, s.blobs, CollectionPhysiotherapists, func(items []*model.Physiotherapist) {
		for _, p := range items {
			s.physiotherapists[p.ID] = p
		}
	}); err != nil {
		return err
	}

	if err := loadCollection(ctx, s.blobs, CollectionAppointments, func(items []*model.Appointment) {
		for _, a := range items {
			s.appointments[a.ID] = a
			s.appointmentOrder = append(s.appointmentOrder, a.ID)
		}
	}); err != nil {
		return err
	}

	if err := loadCollection(ctx, s.blobs, CollectionAppointmentRequests, func(items []*model.AppointmentRequest) {
		for _, r := range items {
			s.apptRequests[r.ID] = r
			s.apptRequestOrder = append(s.apptRequestOrder, r.ID)
		}
	}); err != nil {
		return err
	}

	if err := loadCollection(ctx, s.blobs, CollectionRescheduleRequests, func(items []*model.RescheduleRequest) {
		for _, r := range items {
			s.reschedules[r.ID] = r
			s.rescheduleOrder = append(s.rescheduleOrder, r.ID)
		}
	}); err != nil {
		return err
	}

	s.log.Info("entity store loaded",
		"patients", len(s.patients),
		"physiotherapists", len(s.physiotherapists),
		"appointments", len(s.appointments))
	return nil
}

func loadCollection[T any](ctx context.Context, blobs repository.BlobStore, name string, apply func([]T)) error {
	blob, err := blobs.Load(ctx, name)
	if errors.Is(err, repository.ErrNoBlob) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	var items []T
	if err := json.Unmarshal(blob, &items); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	apply(items)
	return nil
}

// Update runs fn atomically. If fn succeeds, every collection it touched is
// persisted and its change events are delivered to subscribers. If fn
// returns an error nothing is applied: the transaction works on copies and
// commits into the maps only on success.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()

	tx := newTx(s, true)
	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return err
	}

	tx.commit()

	if err := s.persist(ctx, tx.dirty()); err != nil {
		// Memory already reflects the transition; surface the persistence
		// failure so the caller can retry the whole action.
		s.mu.Unlock()
		return err
	}
	events := tx.events
	s.mu.Unlock()

	s.publish(events)
	return nil
}

// View runs fn under a read lock. The transaction rejects writes.
func (s *Store) View(fn func(tx *Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(newTx(s, false))
}

func (s *Store) persist(ctx context.Context, collections []string) error {
	for _, name := range collections {
		var timer *prometheus.Timer
		if s.mtx != nil {
			timer = prometheus.NewTimer(s.mtx.PersistLatency.WithLabelValues(name))
		}
		blob, err := s.marshalCollection(name)
		if err == nil {
			err = s.blobs.Save(ctx, name, blob)
		}
		if timer != nil {
			timer.ObserveDuration()
		}
		if err != nil {
			if s.mtx != nil {
				s.mtx.PersistErrors.WithLabelValues(name).Inc()
			}
			s.log.Error(err, "failed to persist collection", "collection", name)
			return fmt.Errorf("failed to persist %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) marshalCollection(name string) ([]byte, error) {
	switch name {
	case CollectionPatients:
		items := make([]*model.Patient, 0, len(s.patients))
		for _, p := range s.patients {
			items = append(items, p)
		}
		return json.Marshal(items)
	case CollectionPhysiotherapists:
		items := make([]*model.Physiotherapist, 0, len(s.physiotherapists))
		for _, p := range s.physiotherapists {
			items = append(items, p)
		}
		return json.Marshal(items)
	case CollectionAppointments:
		items := make([]*model.Appointment, 0, len(s.appointmentOrder))
		for _, id := range s.appointmentOrder {
			if a, ok := s.appointments[id]; ok {
				items = append(items, a)
			}
		}
		return json.Marshal(items)
	case CollectionAppointmentRequests:
		items := make([]*model.AppointmentRequest, 0, len(s.apptRequestOrder))
		for _, id := range s.apptRequestOrder {
			if r, ok := s.apptRequests[id]; ok {
				items = append(items, r)
			}
		}
		return json.Marshal(items)
	case CollectionRescheduleRequests:
		items := make([]*model.RescheduleRequest, 0, len(s.rescheduleOrder))
		for _, id := range s.rescheduleOrder {
			if r, ok := s.reschedules[id]; ok {
				items = append(items, r)
			}
		}
		return json.Marshal(items)
	}
	return nil, fmt.Errorf("unknown collection %s", name)
}

// Subscribe registers a change-event observer. The returned cancel function
// removes the subscription and closes the channel. Delivery is best effort:
// a slow subscriber drops events rather than blocking writers.
func (s *Store) Subscribe() (<-chan ChangeEvent, func()) {
	ch := make(chan ChangeEvent, 64)

	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

func (s *Store) publish(events []ChangeEvent) {
	if len(events) == 0 {
		return
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ev := range events {
		if s.mtx != nil {
			s.mtx.ChangeEvents.WithLabelValues(ev.Collection, string(ev.Op)).Inc()
		}
		for _, ch := range s.subs {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

func now() time.Time {
	return time.Now()
}
