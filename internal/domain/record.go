package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType is the kind of civil registration event a record declares.
type EventType string

const (
	EventBirth    EventType = "birth"
	EventDeath    EventType = "death"
	EventMarriage EventType = "marriage"
)

func (t EventType) Valid() bool {
	return t == EventBirth || t == EventDeath || t == EventMarriage
}

// Record is one civil registration declaration and its full action history.
// Actions are append-only; nothing in the engine edits or removes an entry.
type Record struct {
	ID            uuid.UUID  `json:"id"`
	TransactionID string     `json:"transactionId"`
	Type          EventType  `json:"type"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	CurrentTaskID *uuid.UUID `json:"currentTaskId,omitempty"`
	Actions       ActionList `json:"actions"`
}

// FindAction returns the action appended with the given transaction id and
// type, or nil.
func (r *Record) FindAction(transactionID string, t ActionType) Action {
	for _, a := range r.Actions {
		b := a.Base()
		if b.TransactionID == transactionID && b.Type == t {
			return a
		}
	}
	return nil
}

// LastAction returns the most recent action of one of the given types, or nil.
func (r *Record) LastAction(types ...ActionType) Action {
	for i := len(r.Actions) - 1; i >= 0; i-- {
		for _, t := range types {
			if r.Actions[i].Base().Type == t {
				return r.Actions[i]
			}
		}
	}
	return nil
}

// Identifiers returns the identifiers issued by the latest REGISTER action.
func (r *Record) Identifiers() (RegistrationIdentifiers, bool) {
	reg, ok := r.LastAction(ActionRegister).(*RegisterAction)
	if !ok {
		return RegistrationIdentifiers{}, false
	}
	return reg.Identifiers, true
}

// Commit is the unit of work appended to a record: one action plus the task
// versions and supporting resources it produces. Tasks are written in slice
// order and the last one becomes current.
type Commit struct {
	Action Action

	// ExpectedTaskID makes the commit conditional on the record's current
	// task. A mismatch fails with ErrStaleRecord and writes nothing.
	ExpectedTaskID *uuid.UUID

	Tasks     []*Task
	Encounter *Encounter
	Payment   *PaymentReconciliation
	Documents []*DocumentReference
	At        time.Time
}

type RecordRepository interface {
	// Create inserts the record with its CREATE action and initial task. A
	// duplicate transaction id fails with ErrConflict.
	Create(ctx context.Context, r *Record, initial *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*Record, error)
	UpdateType(ctx context.Context, id uuid.UUID, t EventType, updatedAt time.Time) error
	// Append writes c if the record's current task is still c.ExpectedTaskID,
	// failing with ErrStaleRecord otherwise. An action whose transaction id
	// and type are already recorded fails with ErrDuplicateAction.
	Append(ctx context.Context, id uuid.UUID, c *Commit) error
}
