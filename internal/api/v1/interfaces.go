package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/correction"
	"github.com/gosuda/crvs/internal/domain"
	"github.com/gosuda/crvs/internal/events"
)

// RecordService abstracts the action log for handler testing.
// *events.Service satisfies this interface.
type RecordService interface {
	Create(ctx context.Context, actor domain.Actor, in events.CreateInput) (*domain.Record, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Record, error)
	Patch(ctx context.Context, id uuid.UUID, in events.PatchInput) (*domain.Record, error)
	AddAction(ctx context.Context, actor domain.Actor, recordID uuid.UUID, a domain.Action) (*domain.Record, error)
	Declare(ctx context.Context, actor domain.Actor, recordID uuid.UUID, transactionID string, fields map[string]any) (*domain.Record, error)
	Notify(ctx context.Context, actor domain.Actor, recordID uuid.UUID, transactionID string, fields map[string]any, createdAtLocation string) (*domain.Record, error)
}

// HistoryService abstracts task history lookup for handler testing.
// *history.Resolver satisfies this interface.
type HistoryService interface {
	History(ctx context.Context, recordID uuid.UUID) ([]*domain.Task, error)
}

// CorrectionService abstracts the correction state machine for handler testing.
// *correction.Service satisfies this interface.
type CorrectionService interface {
	Request(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in correction.Input) (*domain.Record, error)
	Reject(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in correction.RejectInput) (*domain.Record, error)
	Approve(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in correction.ApproveInput) (*domain.Record, error)
	Correct(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in correction.Input) (*domain.Record, error)
}

// SupportingResources reads the encounter, payment and documents a
// correction created. domain.CorrectionRepository satisfies this interface.
type SupportingResources interface {
	GetEncounter(ctx context.Context, id uuid.UUID) (*domain.Encounter, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*domain.PaymentReconciliation, error)
	ListDocuments(ctx context.Context, encounterID uuid.UUID) ([]*domain.DocumentReference, error)
}

// PractitionerDirectory reads and maintains the staff directory the stamper
// resolves offices from. domain.PractitionerRepository satisfies this
// interface.
type PractitionerDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Practitioner, error)
	Upsert(ctx context.Context, p *domain.Practitioner) error
}
