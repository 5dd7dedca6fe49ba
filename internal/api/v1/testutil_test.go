package v1_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/correction"
	"github.com/gosuda/crvs/internal/domain"
	"github.com/gosuda/crvs/internal/events"
	"github.com/gosuda/crvs/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the actor into context for DoCtx
// ---------------------------------------------------------------------------

func actorCtx(role domain.Role) (context.Context, domain.Actor) {
	actor := domain.Actor{ID: uuid.New(), Role: role}
	return middleware.WithActor(context.Background(), actor), actor
}

func registrarCtx() context.Context {
	ctx, _ := actorCtx(domain.RoleLocalRegistrar)
	return ctx
}

func fieldAgentCtx() context.Context {
	ctx, _ := actorCtx(domain.RoleFieldAgent)
	return ctx
}

// sampleRecord returns a record holding a single CREATE action.
func sampleRecord(id uuid.UUID) *domain.Record {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Record{
		ID:            id,
		TransactionID: "tx1",
		Type:          domain.EventBirth,
		CreatedAt:     now,
		UpdatedAt:     now,
		Actions: domain.ActionList{&domain.CreateAction{ActionBase: domain.ActionBase{
			ID: uuid.New(), Type: domain.ActionCreate, TransactionID: "tx1", CreatedAt: now, CreatedBy: uuid.New(),
		}}},
	}
}

// ---------------------------------------------------------------------------
// Mock RecordService
// ---------------------------------------------------------------------------

type mockRecordService struct {
	createFunc    func(ctx context.Context, actor domain.Actor, in events.CreateInput) (*domain.Record, error)
	getFunc       func(ctx context.Context, id uuid.UUID) (*domain.Record, error)
	patchFunc     func(ctx context.Context, id uuid.UUID, in events.PatchInput) (*domain.Record, error)
	addActionFunc func(ctx context.Context, actor domain.Actor, recordID uuid.UUID, a domain.Action) (*domain.Record, error)
	declareFunc   func(ctx context.Context, actor domain.Actor, recordID uuid.UUID, transactionID string, fields map[string]any) (*domain.Record, error)
	notifyFunc    func(ctx context.Context, actor domain.Actor, recordID uuid.UUID, transactionID string, fields map[string]any, createdAtLocation string) (*domain.Record, error)
}

func (m *mockRecordService) Create(ctx context.Context, actor domain.Actor, in events.CreateInput) (*domain.Record, error) {
	return m.createFunc(ctx, actor, in)
}

func (m *mockRecordService) Get(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	return m.getFunc(ctx, id)
}

func (m *mockRecordService) Patch(ctx context.Context, id uuid.UUID, in events.PatchInput) (*domain.Record, error) {
	return m.patchFunc(ctx, id, in)
}

func (m *mockRecordService) AddAction(ctx context.Context, actor domain.Actor, recordID uuid.UUID, a domain.Action) (*domain.Record, error) {
	return m.addActionFunc(ctx, actor, recordID, a)
}

func (m *mockRecordService) Declare(ctx context.Context, actor domain.Actor, recordID uuid.UUID, transactionID string, fields map[string]any) (*domain.Record, error) {
	return m.declareFunc(ctx, actor, recordID, transactionID, fields)
}

func (m *mockRecordService) Notify(ctx context.Context, actor domain.Actor, recordID uuid.UUID, transactionID string, fields map[string]any, createdAtLocation string) (*domain.Record, error) {
	return m.notifyFunc(ctx, actor, recordID, transactionID, fields, createdAtLocation)
}

// ---------------------------------------------------------------------------
// Mock HistoryService
// ---------------------------------------------------------------------------

type mockHistoryService struct {
	historyFunc func(ctx context.Context, recordID uuid.UUID) ([]*domain.Task, error)
}

func (m *mockHistoryService) History(ctx context.Context, recordID uuid.UUID) ([]*domain.Task, error) {
	return m.historyFunc(ctx, recordID)
}

// ---------------------------------------------------------------------------
// Mock CorrectionService
// ---------------------------------------------------------------------------

type mockCorrectionService struct {
	requestFunc func(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in correction.Input) (*domain.Record, error)
	rejectFunc  func(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in correction.RejectInput) (*domain.Record, error)
	approveFunc func(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in correction.ApproveInput) (*domain.Record, error)
	correctFunc func(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in correction.Input) (*domain.Record, error)
}

func (m *mockCorrectionService) Request(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in correction.Input) (*domain.Record, error) {
	return m.requestFunc(ctx, actor, recordID, in)
}

func (m *mockCorrectionService) Reject(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in correction.RejectInput) (*domain.Record, error) {
	return m.rejectFunc(ctx, actor, recordID, in)
}

func (m *mockCorrectionService) Approve(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in correction.ApproveInput) (*domain.Record, error) {
	return m.approveFunc(ctx, actor, recordID, in)
}

func (m *mockCorrectionService) Correct(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in correction.Input) (*domain.Record, error) {
	return m.correctFunc(ctx, actor, recordID, in)
}

// ---------------------------------------------------------------------------
// Mock SupportingResources
// ---------------------------------------------------------------------------

type mockSupportingResources struct {
	getEncounterFunc  func(ctx context.Context, id uuid.UUID) (*domain.Encounter, error)
	getPaymentFunc    func(ctx context.Context, id uuid.UUID) (*domain.PaymentReconciliation, error)
	listDocumentsFunc func(ctx context.Context, encounterID uuid.UUID) ([]*domain.DocumentReference, error)
}

func (m *mockSupportingResources) GetEncounter(ctx context.Context, id uuid.UUID) (*domain.Encounter, error) {
	return m.getEncounterFunc(ctx, id)
}

func (m *mockSupportingResources) GetPayment(ctx context.Context, id uuid.UUID) (*domain.PaymentReconciliation, error) {
	return m.getPaymentFunc(ctx, id)
}

func (m *mockSupportingResources) ListDocuments(ctx context.Context, encounterID uuid.UUID) ([]*domain.DocumentReference, error) {
	return m.listDocumentsFunc(ctx, encounterID)
}

// ---------------------------------------------------------------------------
// Mock PractitionerDirectory
// ---------------------------------------------------------------------------

type mockPractitionerDirectory struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Practitioner, error)
	upsertFunc  func(ctx context.Context, p *domain.Practitioner) error
}

func (m *mockPractitionerDirectory) GetByID(ctx context.Context, id uuid.UUID) (*domain.Practitioner, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockPractitionerDirectory) Upsert(ctx context.Context, p *domain.Practitioner) error {
	return m.upsertFunc(ctx, p)
}
