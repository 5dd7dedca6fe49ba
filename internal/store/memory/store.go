// Package memory is an in-process implementation of the record repositories.
// It backs tests and single-node deployments with CRVS_STORE=memory.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/domain"
)

type state struct {
	mu sync.RWMutex

	records    map[uuid.UUID]*domain.Record
	byTx       map[string]uuid.UUID
	tasks      map[uuid.UUID]*domain.Task
	taskIndex  map[uuid.UUID][]uuid.UUID // record id -> task ids in write order
	encounters map[uuid.UUID]*domain.Encounter
	payments   map[uuid.UUID]*domain.PaymentReconciliation
	documents  map[uuid.UUID][]*domain.DocumentReference // encounter id -> docs

	practitioners map[uuid.UUID]*domain.Practitioner
}

// Store exposes the repositories over one shared, mutex-guarded state.
type Store struct {
	records       *RecordRepo
	tasks         *TaskRepo
	corrections   *CorrectionRepo
	practitioners *PractitionerRepo
}

func New() *Store {
	st := &state{
		records:       make(map[uuid.UUID]*domain.Record),
		byTx:          make(map[string]uuid.UUID),
		tasks:         make(map[uuid.UUID]*domain.Task),
		taskIndex:     make(map[uuid.UUID][]uuid.UUID),
		encounters:    make(map[uuid.UUID]*domain.Encounter),
		payments:      make(map[uuid.UUID]*domain.PaymentReconciliation),
		documents:     make(map[uuid.UUID][]*domain.DocumentReference),
		practitioners: make(map[uuid.UUID]*domain.Practitioner),
	}
	return &Store{
		records:       &RecordRepo{st: st},
		tasks:         &TaskRepo{st: st},
		corrections:   &CorrectionRepo{st: st},
		practitioners: &PractitionerRepo{st: st},
	}
}

func (s *Store) Records() domain.RecordRepository             { return s.records }
func (s *Store) Tasks() domain.TaskRepository                 { return s.tasks }
func (s *Store) Corrections() domain.CorrectionRepository     { return s.corrections }
func (s *Store) Practitioners() domain.PractitionerRepository { return s.practitioners }

type RecordRepo struct {
	st *state
}

func (r *RecordRepo) Create(_ context.Context, rec *domain.Record, initial *domain.Task) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.byTx[rec.TransactionID]; ok {
		return fmt.Errorf("memory.RecordRepo.Create: transaction %q: %w", rec.TransactionID, domain.ErrConflict)
	}
	if _, ok := r.st.records[rec.ID]; ok {
		return fmt.Errorf("memory.RecordRepo.Create: record %s: %w", rec.ID, domain.ErrConflict)
	}

	stored := copyRecord(rec)
	if initial != nil {
		t := *initial
		t.RecordID = rec.ID
		t.Version = 1
		t.Extensions = initial.Extensions.Clone()
		r.st.tasks[t.ID] = &t
		r.st.taskIndex[rec.ID] = []uuid.UUID{t.ID}
		id := t.ID
		stored.CurrentTaskID = &id
	}

	r.st.records[rec.ID] = stored
	r.st.byTx[rec.TransactionID] = rec.ID
	return nil
}

func (r *RecordRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Record, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	rec, ok := r.st.records[id]
	if !ok {
		return nil, fmt.Errorf("memory.RecordRepo.GetByID: %w", domain.ErrNotFound)
	}
	return copyRecord(rec), nil
}

func (r *RecordRepo) GetByTransactionID(_ context.Context, transactionID string) (*domain.Record, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	id, ok := r.st.byTx[transactionID]
	if !ok {
		return nil, fmt.Errorf("memory.RecordRepo.GetByTransactionID: %w", domain.ErrNotFound)
	}
	return copyRecord(r.st.records[id]), nil
}

func (r *RecordRepo) UpdateType(_ context.Context, id uuid.UUID, t domain.EventType, updatedAt time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	rec, ok := r.st.records[id]
	if !ok {
		return fmt.Errorf("memory.RecordRepo.UpdateType: %w", domain.ErrNotFound)
	}
	rec.Type = t
	rec.UpdatedAt = updatedAt
	return nil
}

// Append writes the whole commit or nothing. Versions continue from the
// highest stored version of the record.
func (r *RecordRepo) Append(_ context.Context, id uuid.UUID, c *domain.Commit) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	rec, ok := r.st.records[id]
	if !ok {
		return fmt.Errorf("memory.RecordRepo.Append: %w", domain.ErrNotFound)
	}
	if !sameTask(rec.CurrentTaskID, c.ExpectedTaskID) {
		return fmt.Errorf("memory.RecordRepo.Append: record %s: %w", id, domain.ErrStaleRecord)
	}
	if b := c.Action.Base(); rec.FindAction(b.TransactionID, b.Type) != nil {
		return fmt.Errorf("memory.RecordRepo.Append: action %s %q: %w", b.Type, b.TransactionID, domain.ErrDuplicateAction)
	}

	version := 0
	for _, tid := range r.st.taskIndex[id] {
		if v := r.st.tasks[tid].Version; v > version {
			version = v
		}
	}

	for _, t := range c.Tasks {
		version++
		stored := *t
		stored.RecordID = id
		stored.Version = version
		stored.Extensions = t.Extensions.Clone()
		t.Version = version
		r.st.tasks[stored.ID] = &stored
		r.st.taskIndex[id] = append(r.st.taskIndex[id], stored.ID)
		current := stored.ID
		rec.CurrentTaskID = &current
	}

	if c.Encounter != nil {
		enc := *c.Encounter
		r.st.encounters[enc.ID] = &enc
	}
	if c.Payment != nil {
		p := *c.Payment
		r.st.payments[p.ID] = &p
	}
	for _, d := range c.Documents {
		doc := *d
		r.st.documents[doc.EncounterID] = append(r.st.documents[doc.EncounterID], &doc)
	}

	actions := make(domain.ActionList, len(rec.Actions), len(rec.Actions)+1)
	copy(actions, rec.Actions)
	rec.Actions = append(actions, c.Action)
	rec.UpdatedAt = c.At
	return nil
}

type TaskRepo struct {
	st *state
}

func (r *TaskRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	t, ok := r.st.tasks[id]
	if !ok {
		return nil, fmt.Errorf("memory.TaskRepo.GetByID: %w", domain.ErrNotFound)
	}
	return copyTask(t), nil
}

func (r *TaskRepo) ListByRecord(_ context.Context, recordID uuid.UUID) ([]*domain.Task, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	ids := r.st.taskIndex[recordID]
	out := make([]*domain.Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyTask(r.st.tasks[id]))
	}
	return out, nil
}

type CorrectionRepo struct {
	st *state
}

func (r *CorrectionRepo) GetEncounter(_ context.Context, id uuid.UUID) (*domain.Encounter, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	enc, ok := r.st.encounters[id]
	if !ok {
		return nil, fmt.Errorf("memory.CorrectionRepo.GetEncounter: %w", domain.ErrNotFound)
	}
	out := *enc
	out.DocumentIDs = append([]uuid.UUID(nil), enc.DocumentIDs...)
	return &out, nil
}

func (r *CorrectionRepo) GetPayment(_ context.Context, id uuid.UUID) (*domain.PaymentReconciliation, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	p, ok := r.st.payments[id]
	if !ok {
		return nil, fmt.Errorf("memory.CorrectionRepo.GetPayment: %w", domain.ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (r *CorrectionRepo) ListDocuments(_ context.Context, encounterID uuid.UUID) ([]*domain.DocumentReference, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	docs := r.st.documents[encounterID]
	out := make([]*domain.DocumentReference, 0, len(docs))
	for _, d := range docs {
		doc := *d
		out = append(out, &doc)
	}
	return out, nil
}

type PractitionerRepo struct {
	st *state
}

func (r *PractitionerRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Practitioner, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	p, ok := r.st.practitioners[id]
	if !ok {
		return nil, fmt.Errorf("memory.PractitionerRepo.GetByID: %w", domain.ErrNotFound)
	}
	out := *p
	out.Links = append([]domain.MessengerLink(nil), p.Links...)
	return &out, nil
}

func (r *PractitionerRepo) Upsert(_ context.Context, p *domain.Practitioner) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	stored := *p
	stored.Links = append([]domain.MessengerLink(nil), p.Links...)
	r.st.practitioners[p.ID] = &stored
	return nil
}

func sameTask(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// copyRecord copies the record and its action slice. Actions themselves are
// immutable once stored and are shared.
func copyRecord(r *domain.Record) *domain.Record {
	out := *r
	out.Actions = append(domain.ActionList(nil), r.Actions...)
	if r.CurrentTaskID != nil {
		id := *r.CurrentTaskID
		out.CurrentTaskID = &id
	}
	return &out
}

func copyTask(t *domain.Task) *domain.Task {
	out := *t
	out.Extensions = t.Extensions.Clone()
	if t.EncounterID != nil {
		id := *t.EncounterID
		out.EncounterID = &id
	}
	return &out
}
