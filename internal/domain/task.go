package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task is one version of the resource holding a record's business status and
// cross-cutting metadata. Versions are immutable; a change writes a new one and
// moves Record.CurrentTaskID.
type Task struct {
	ID           uuid.UUID  `json:"id"`
	RecordID     uuid.UUID  `json:"recordId"`
	Version      int        `json:"version"`
	Status       RegStatus  `json:"status"`
	State        TaskState  `json:"state"`
	Extensions   Extensions `json:"extensions,omitempty"`
	EncounterID  *uuid.UUID `json:"encounterId,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	LastModified time.Time  `json:"lastModified"`
}

// IsActiveCorrectionRequest reports whether the task is an unresolved
// correction request.
func (t *Task) IsActiveCorrectionRequest() bool {
	return t != nil && t.Status == StatusCorrectionRequested && t.State == TaskStateRequested
}

// Next returns a copy of t with a fresh identity, ready to be written as a new
// version. The store assigns Version at commit time.
func (t *Task) Next(now time.Time) *Task {
	next := *t
	next.ID = uuid.New()
	next.Version = 0
	next.Extensions = t.Extensions.Clone()
	next.LastModified = now
	if t.EncounterID != nil {
		id := *t.EncounterID
		next.EncounterID = &id
	}
	return &next
}

type TaskRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	// ListByRecord returns every stored version for the record in no
	// particular order.
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*Task, error)
}
