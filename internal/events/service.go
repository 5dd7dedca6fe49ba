package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/gosuda/crvs/internal/domain"
	"github.com/gosuda/crvs/internal/metrics"
)

// Indexer receives every record after a committed change. Implementations
// handle their own failures; nothing they do can undo a commit.
type Indexer interface {
	Index(ctx context.Context, r *domain.Record)
}

// Stamper marks a task version with the acting practitioner.
type Stamper interface {
	Stamp(ctx context.Context, t *domain.Task, actorID uuid.UUID) error
}

// BuildFunc produces the commit for one transition from freshly loaded state.
// current is nil only for records without a task. Returning a nil commit
// means there is nothing to write (an idempotent repeat).
type BuildFunc func(ctx context.Context, rec *domain.Record, current *domain.Task) (*domain.Commit, error)

// Service is the action log: the only path through which records and their
// task versions are mutated.
type Service struct {
	records     domain.RecordRepository
	tasks       domain.TaskRepository
	indexer     Indexer
	stamper     Stamper
	metrics     *metrics.Metrics
	creates     singleflight.Group
	maxAttempts int
	now         func() time.Time
}

type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxAttempts bounds how often a conditional commit is retried after
// losing a race.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(records domain.RecordRepository, tasks domain.TaskRepository, indexer Indexer, stamper Stamper, opts ...Option) *Service {
	s := &Service{
		records:     records,
		tasks:       tasks,
		indexer:     indexer,
		stamper:     stamper,
		maxAttempts: 3,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	TransactionID     string
	Type              domain.EventType
	Fields            map[string]any
	CreatedAtLocation string
}

// Create returns the record created under in.TransactionID, creating it if
// this is the first time the transaction id is seen.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (*domain.Record, error) {
	if in.TransactionID == "" {
		return nil, fmt.Errorf("events.Service.Create: transactionId is required: %w", domain.ErrValidation)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("events.Service.Create: unknown event type %q: %w", in.Type, domain.ErrValidation)
	}
	if actor.ID == uuid.Nil {
		return nil, fmt.Errorf("events.Service.Create: missing actor: %w", domain.ErrValidation)
	}

	v, err, _ := s.creates.Do(in.TransactionID, func() (any, error) {
		return s.create(ctx, actor, in)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Record), nil //nolint:forcetypeassert // create only returns *domain.Record
}

func (s *Service) create(ctx context.Context, actor domain.Actor, in CreateInput) (*domain.Record, error) {
	existing, err := s.records.GetByTransactionID(ctx, in.TransactionID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("events.Service.Create: lookup: %w", err)
	}

	now := s.now()
	rec := &domain.Record{
		ID:            uuid.New(),
		TransactionID: in.TransactionID,
		Type:          in.Type,
		CreatedAt:     now,
		UpdatedAt:     now,
		Actions: domain.ActionList{
			&domain.CreateAction{
				ActionBase: domain.ActionBase{
					ID:            uuid.New(),
					Type:          domain.ActionCreate,
					TransactionID: in.TransactionID,
					CreatedAt:     now,
					CreatedBy:     actor.ID,
					Data:          in.Fields,
				},
				CreatedAtLocation: in.CreatedAtLocation,
			},
		},
	}
	initial := &domain.Task{
		ID:           uuid.New(),
		RecordID:     rec.ID,
		Version:      1,
		Status:       domain.StatusCreated,
		State:        domain.TaskStateReady,
		LastModified: now,
	}
	rec.CurrentTaskID = &initial.ID

	err = s.records.Create(ctx, rec, initial)
	if errors.Is(err, domain.ErrConflict) {
		// Another writer inserted the same transaction id first.
		winner, getErr := s.records.GetByTransactionID(ctx, in.TransactionID)
		if getErr != nil {
			return nil, fmt.Errorf("events.Service.Create: reread after conflict: %w", getErr)
		}
		return winner, nil
	}
	if err != nil {
		return nil, fmt.Errorf("events.Service.Create: %w", err)
	}

	s.metrics.IncrementActionAppended(string(domain.ActionCreate))
	s.indexer.Index(ctx, rec)
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("events.Service.Get: %w", err)
	}
	return rec, nil
}

type PatchInput struct {
	TransactionID string
	Type          domain.EventType
}

// Patch replaces the record's mutable top-level fields. The action list is
// left as is.
func (s *Service) Patch(ctx context.Context, id uuid.UUID, in PatchInput) (*domain.Record, error) {
	if in.TransactionID == "" {
		return nil, fmt.Errorf("events.Service.Patch: transactionId is required: %w", domain.ErrValidation)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("events.Service.Patch: unknown event type %q: %w", in.Type, domain.ErrValidation)
	}

	if err := s.records.UpdateType(ctx, id, in.Type, s.now()); err != nil {
		return nil, fmt.Errorf("events.Service.Patch: %w", err)
	}

	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("events.Service.Patch: reload: %w", err)
	}

	s.indexer.Index(ctx, rec)
	return rec, nil
}

// AddAction appends a to the record's history. Legality of the action in the
// record's lifecycle is the caller's concern; the log only derives the task
// version the action implies. Re-submitting a transaction id is a no-op.
// While a correction request is pending, status-moving actions are refused
// until the request is approved or rejected.
func (s *Service) AddAction(ctx context.Context, actor domain.Actor, recordID uuid.UUID, a domain.Action) (*domain.Record, error) {
	b := a.Base()
	if b.CreatedBy == uuid.Nil {
		b.CreatedBy = actor.ID
	}
	if err := domain.CheckAction(a); err != nil {
		return nil, fmt.Errorf("events.Service.AddAction: %w", err)
	}

	return s.Apply(ctx, recordID, func(ctx context.Context, rec *domain.Record, current *domain.Task) (*domain.Commit, error) {
		if rec.FindAction(b.TransactionID, b.Type) != nil {
			return nil, nil
		}
		if current.IsActiveCorrectionRequest() && movesStatus(b.Type) {
			return nil, fmt.Errorf("events.Service.AddAction: %s while correction request is pending: %w", b.Type, domain.ErrConflict)
		}

		now := s.now()
		b.ID = uuid.New()
		b.CreatedAt = now

		if reg, ok := a.(*domain.RegisterAction); ok {
			s.issueIdentifiers(rec, reg, now)
		}

		commit := &domain.Commit{Action: a, At: now}
		if current == nil {
			return commit, nil
		}
		next, err := s.deriveTask(ctx, current, a, now)
		if err != nil {
			return nil, err
		}
		if next != nil {
			commit.Tasks = []*domain.Task{next}
		}
		return commit, nil
	})
}

// Declare appends a DECLARE action carrying the declared field values.
func (s *Service) Declare(ctx context.Context, actor domain.Actor, recordID uuid.UUID, transactionID string, fields map[string]any) (*domain.Record, error) {
	return s.AddAction(ctx, actor, recordID, &domain.DeclareAction{
		ActionBase: domain.ActionBase{
			Type:          domain.ActionDeclare,
			TransactionID: transactionID,
			CreatedBy:     actor.ID,
			Data:          fields,
		},
	})
}

// Notify appends a NOTIFY action for an incomplete declaration sent in from
// the given location.
func (s *Service) Notify(ctx context.Context, actor domain.Actor, recordID uuid.UUID, transactionID string, fields map[string]any, createdAtLocation string) (*domain.Record, error) {
	return s.AddAction(ctx, actor, recordID, &domain.NotifyAction{
		ActionBase: domain.ActionBase{
			Type:          domain.ActionNotify,
			TransactionID: transactionID,
			CreatedBy:     actor.ID,
			Data:          fields,
		},
		CreatedAtLocation: createdAtLocation,
	})
}

// Apply loads the record and its current task, asks build for a commit and
// writes it conditionally on the current task not having moved. A lost race
// reloads and rebuilds, so build must re-check its preconditions every call.
// An append refused as a duplicate rebuilds once against the record holding
// the winning action. The indexer runs once, after the write that succeeded.
func (s *Service) Apply(ctx context.Context, recordID uuid.UUID, build BuildFunc) (*domain.Record, error) {
	var replayed bool
	for attempt := 1; ; attempt++ {
		rec, err := s.records.GetByID(ctx, recordID)
		if err != nil {
			return nil, fmt.Errorf("events.Service.Apply: %w", err)
		}

		var current *domain.Task
		if rec.CurrentTaskID != nil {
			current, err = s.tasks.GetByID(ctx, *rec.CurrentTaskID)
			if err != nil {
				return nil, fmt.Errorf("events.Service.Apply: current task: %w", err)
			}
		}

		commit, err := build(ctx, rec, current)
		if err != nil {
			return nil, err
		}
		if commit == nil {
			return rec, nil
		}
		if commit.ExpectedTaskID == nil {
			commit.ExpectedTaskID = rec.CurrentTaskID
		}
		if commit.At.IsZero() {
			commit.At = s.now()
		}

		err = s.records.Append(ctx, recordID, commit)
		if errors.Is(err, domain.ErrStaleRecord) && attempt < s.maxAttempts {
			s.metrics.IncrementCommitRetry()
			log.Debug().Str("record_id", recordID.String()).Int("attempt", attempt).Msg("events.Apply: concurrent update, retrying")
			continue
		}
		if errors.Is(err, domain.ErrDuplicateAction) && !replayed {
			replayed = true
			log.Debug().Str("record_id", recordID.String()).Msg("events.Apply: action already recorded, rebuilding")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("events.Service.Apply: append: %w", err)
		}

		updated, err := s.records.GetByID(ctx, recordID)
		if err != nil {
			return nil, fmt.Errorf("events.Service.Apply: reload: %w", err)
		}

		s.metrics.IncrementActionAppended(string(commit.Action.Base().Type))
		s.indexer.Index(ctx, updated)
		return updated, nil
	}
}

// movesStatus reports whether t sets a new registration status outside the
// correction flow.
func movesStatus(t domain.ActionType) bool {
	_, ok := t.ResultingStatus()
	return ok && !t.IsCorrection()
}

// deriveTask returns the task version an action implies, or nil when the
// action does not touch the task.
func (s *Service) deriveTask(ctx context.Context, current *domain.Task, a domain.Action, now time.Time) (*domain.Task, error) {
	b := a.Base()
	switch v := a.(type) {
	case *domain.AssignAction:
		next := current.Next(now)
		next.Extensions.SetAssignment(v.AssignedTo)
		return next, nil
	case *domain.UnassignAction:
		next := current.Next(now)
		next.Extensions = next.Extensions.Without(domain.ExtAssignment)
		return next, nil
	}

	status, ok := b.Type.ResultingStatus()
	if !ok || b.Type.IsCorrection() {
		return nil, nil
	}

	next := current.Next(now)
	next.Status = status
	next.State = domain.TaskStateReady
	next.Reason = ""
	next.EncounterID = nil

	if b.Type == domain.ActionRegister {
		if err := s.stamper.Stamp(ctx, next, b.CreatedBy); err != nil {
			return nil, fmt.Errorf("events.Service.AddAction: stamp: %w", err)
		}
	}
	return next, nil
}

// issueIdentifiers fills in the tracking id (kept from an earlier
// registration if there was one) and a fresh registration number.
func (s *Service) issueIdentifiers(rec *domain.Record, reg *domain.RegisterAction, now time.Time) {
	if prev, ok := rec.Identifiers(); ok && reg.Identifiers.TrackingID == "" {
		reg.Identifiers.TrackingID = prev.TrackingID
	}
	if reg.Identifiers.TrackingID == "" {
		reg.Identifiers.TrackingID = TrackingID(rec.Type)
	}
	if reg.Identifiers.RegistrationNumber == "" {
		reg.Identifiers.RegistrationNumber = RegistrationNumber(now)
	}
}

// TrackingID returns a short public reference prefixed by the event kind.
func TrackingID(t domain.EventType) string {
	prefix := "X"
	if t != "" {
		prefix = strings.ToUpper(string(t[0]))
	}
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// RegistrationNumber returns a year-prefixed registration number.
func RegistrationNumber(now time.Time) string {
	return fmt.Sprintf("%d%s", now.Year(), strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10]))
}
