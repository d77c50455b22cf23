// Package state holds the process-wide observable record: the active
// specialization, the live Progress State and UI-orthogonal flags.
// Subscribers receive immutable snapshots in mutation order.
package state

import (
	"sync"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/pkg/logger"

	"go.uber.org/zap"
)

type EventKind string

const (
	EventSpecializationChanged EventKind = "specialization-changed"
	EventProgressChanged       EventKind = "progress-changed"
)

// SpecializationChangedPayload mirrors the published event shape.
type SpecializationChangedPayload struct {
	SpecializationID model.Specialization `json:"specializationId"`
	UpdateCategories bool                 `json:"updateCategories"`
}

type Event struct {
	Kind    EventKind
	Payload interface{}
}

type subscriber struct {
	id int
	ch chan Event
}

// Store is the single observable state record. All mutations go through
// the exported setters so every change is published exactly once.
type Store struct {
	mu sync.RWMutex

	specialization model.Specialization
	hasSelected    bool
	progress       *model.ProgressState

	nextSubID int
	subs      map[EventKind][]subscriber
}

func NewStore() *Store {
	return &Store{
		progress: &model.ProgressState{},
		subs:     make(map[EventKind][]subscriber),
	}
}

// Subscribe registers for one event kind. The returned cancel func must
// be called when the subscriber goes away.
func (s *Store) Subscribe(kind EventKind) (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	sub := subscriber{id: s.nextSubID, ch: make(chan Event, 16)}
	s.subs[kind] = append(s.subs[kind], sub)

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.subs[kind]
		for i, candidate := range list {
			if candidate.id == sub.id {
				s.subs[kind] = append(list[:i], list[i+1:]...)
				close(candidate.ch)
				return
			}
		}
	}
	return sub.ch, cancel
}

// publish must be called with the write lock held so events keep
// mutation order.
func (s *Store) publish(ev Event) {
	for _, sub := range s.subs[ev.Kind] {
		select {
		case sub.ch <- ev:
		default:
			logger.Log.Warn("state store subscriber too slow, dropping event",
				zap.String("kind", string(ev.Kind)))
		}
	}
}

func (s *Store) Specialization() (model.Specialization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.specialization, s.hasSelected
}

func (s *Store) SetSpecialization(id model.Specialization, hasSelected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specialization = id
	s.hasSelected = hasSelected
	s.publish(Event{
		Kind: EventSpecializationChanged,
		Payload: SpecializationChangedPayload{
			SpecializationID: id,
			UpdateCategories: true,
		},
	})
}

// Rehydrate sets initial values without publishing; used once at boot.
func (s *Store) Rehydrate(id model.Specialization, hasSelected bool, progress *model.ProgressState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specialization = id
	s.hasSelected = hasSelected
	if progress != nil {
		s.progress = progress.Clone()
	}
}

// Progress returns a deep copy of the live Progress State.
func (s *Store) Progress() *model.ProgressState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress.Clone()
}

// SetProgress atomically swaps the live Progress State and publishes
// progress-changed.
func (s *Store) SetProgress(p *model.ProgressState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = p.Clone()
	s.publish(Event{Kind: EventProgressChanged, Payload: s.progress.Clone()})
}
