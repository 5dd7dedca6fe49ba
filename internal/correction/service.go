package correction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/crvs/internal/domain"
	"github.com/gosuda/crvs/internal/events"
	"github.com/gosuda/crvs/internal/metrics"
)

// Log is the mutation path the state machine writes through.
type Log interface {
	Apply(ctx context.Context, recordID uuid.UUID, build events.BuildFunc) (*domain.Record, error)
}

type HistoryResolver interface {
	History(ctx context.Context, recordID uuid.UUID) ([]*domain.Task, error)
}

type Stamper interface {
	Stamp(ctx context.Context, t *domain.Task, actorID uuid.UUID) error
}

type Notifier interface {
	NotifyRequester(ctx context.Context, notice domain.CorrectionNotice) error
}

const (
	transitionRequest = "request"
	transitionReject  = "reject"
	transitionApprove = "approve"
	transitionCorrect = "correct"
)

type Service struct {
	log      Log
	history  HistoryResolver
	stamper  Stamper
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(actions Log, history HistoryResolver, stamper Stamper, notifier Notifier, m *metrics.Metrics) *Service {
	return &Service{
		log:      actions,
		history:  history,
		stamper:  stamper,
		notifier: notifier,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides time.Now for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Request opens a correction request on a finalized record.
func (s *Service) Request(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in Input) (*domain.Record, error) {
	if !actor.Can(domain.CapCorrectionRequest) {
		return nil, fmt.Errorf("correction.Service.Request: role %q: %w", actor.Role, domain.ErrForbidden)
	}
	if err := in.validate(false); err != nil {
		return nil, fmt.Errorf("correction.Service.Request: %w", err)
	}

	rec, _, err := s.run(ctx, transitionRequest, recordID, func(ctx context.Context, rec *domain.Record, current *domain.Task) (*domain.Commit, error) {
		if rec.FindAction(in.TransactionID, domain.ActionRequestCorrection) != nil {
			return nil, nil
		}
		commit, err := ToCorrectionRequested(rec, current, actor.ID, in, s.now())
		if err != nil {
			return nil, err
		}
		return commit, s.stamp(ctx, commit, actor.ID)
	})
	return rec, err
}

// Reject closes the pending request and restores the status the record had
// before the correction cycle. The requester is told the reason.
func (s *Service) Reject(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in RejectInput) (*domain.Record, error) {
	if !actor.Can(domain.CapCorrectionReview) {
		return nil, fmt.Errorf("correction.Service.Reject: role %q: %w", actor.Role, domain.ErrForbidden)
	}
	if in.TransactionID == "" || in.Reason == "" {
		return nil, fmt.Errorf("correction.Service.Reject: transactionId and reason are required: %w", domain.ErrValidation)
	}

	var request *domain.CorrectionAction
	rec, committed, err := s.run(ctx, transitionReject, recordID, func(ctx context.Context, rec *domain.Record, current *domain.Task) (*domain.Commit, error) {
		if rec.FindAction(in.TransactionID, domain.ActionRejectCorrection) != nil {
			return nil, nil
		}
		request = pendingRequest(rec, current)
		if request == nil {
			return nil, fmt.Errorf("correction.Service.Reject: record %s has no pending request: %w", rec.ID, domain.ErrConflict)
		}

		hist, err := s.history.History(ctx, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("correction.Service.Reject: %w", err)
		}

		commit, err := ToCorrectionRejected(rec, current, hist, request, actor.ID, in, s.now())
		if err != nil {
			return nil, err
		}
		return commit, s.stamp(ctx, commit, actor.ID)
	})
	if err != nil {
		return nil, err
	}

	if committed {
		s.notify(ctx, rec, request, domain.CorrectionRejected, in.Reason)
	}
	return rec, nil
}

// Approve accepts the pending request and applies its values, or the values
// given in the input when present.
func (s *Service) Approve(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in ApproveInput) (*domain.Record, error) {
	if !actor.Can(domain.CapCorrectionReview) {
		return nil, fmt.Errorf("correction.Service.Approve: role %q: %w", actor.Role, domain.ErrForbidden)
	}
	if in.TransactionID == "" {
		return nil, fmt.Errorf("correction.Service.Approve: transactionId is required: %w", domain.ErrValidation)
	}

	var request *domain.CorrectionAction
	rec, committed, err := s.run(ctx, transitionApprove, recordID, func(ctx context.Context, rec *domain.Record, current *domain.Task) (*domain.Commit, error) {
		if rec.FindAction(in.TransactionID, domain.ActionApproveCorrection) != nil {
			return nil, nil
		}
		request = pendingRequest(rec, current)

		commit, err := ToCorrectionApproved(rec, current, request, actor.ID, in, s.now())
		if err != nil {
			return nil, err
		}
		return commit, s.stamp(ctx, commit, actor.ID)
	})
	if err != nil {
		return nil, err
	}

	if committed {
		s.notify(ctx, rec, request, domain.CorrectionApproved, "")
	}
	return rec, nil
}

// Correct amends a finalized record directly without a request cycle.
func (s *Service) Correct(ctx context.Context, actor domain.Actor, recordID uuid.UUID, in Input) (*domain.Record, error) {
	if !actor.Can(domain.CapCorrectionMake) {
		return nil, fmt.Errorf("correction.Service.Correct: role %q: %w", actor.Role, domain.ErrForbidden)
	}
	if err := in.validate(true); err != nil {
		return nil, fmt.Errorf("correction.Service.Correct: %w", err)
	}

	rec, _, err := s.run(ctx, transitionCorrect, recordID, func(ctx context.Context, rec *domain.Record, current *domain.Task) (*domain.Commit, error) {
		if rec.FindAction(in.TransactionID, domain.ActionCorrect) != nil {
			return nil, nil
		}
		commit, err := ToCorrected(rec, current, actor.ID, in, s.now())
		if err != nil {
			return nil, err
		}
		return commit, s.stamp(ctx, commit, actor.ID)
	})
	return rec, err
}

// run applies build through the log and reports whether the final attempt
// produced a commit, as opposed to an idempotent replay.
func (s *Service) run(ctx context.Context, transition string, recordID uuid.UUID, build events.BuildFunc) (*domain.Record, bool, error) {
	start := time.Now()
	var committed bool

	rec, err := s.log.Apply(ctx, recordID, func(ctx context.Context, rec *domain.Record, current *domain.Task) (*domain.Commit, error) {
		commit, err := build(ctx, rec, current)
		committed = commit != nil && err == nil
		return commit, err
	})

	s.metrics.ObserveTransitionLatency(transition, time.Since(start))
	s.metrics.IncrementTransition(transition, resultLabel(err))

	if errors.Is(err, domain.ErrHistoryIntegrity) {
		log.Error().Err(err).Str("record_id", recordID.String()).Str("transition", transition).Msg("correction: task history has no state to restore")
	}
	if err != nil {
		return nil, false, err
	}
	return rec, committed, nil
}

// stamp marks every task in the commit, user first then location.
func (s *Service) stamp(ctx context.Context, c *domain.Commit, actorID uuid.UUID) error {
	for _, t := range c.Tasks {
		if err := s.stamper.Stamp(ctx, t, actorID); err != nil {
			return fmt.Errorf("correction: stamp: %w", err)
		}
	}
	return nil
}

// notify tells the original requester the outcome. Failures are logged and
// counted; the transition has already committed.
func (s *Service) notify(ctx context.Context, rec *domain.Record, request *domain.CorrectionAction, outcome domain.CorrectionOutcome, reason string) {
	if s.notifier == nil || request == nil {
		return
	}

	ids, _ := rec.Identifiers()
	notice := domain.CorrectionNotice{
		Outcome:     outcome,
		RecordID:    rec.ID,
		RequesterID: request.CreatedBy,
		TrackingID:  ids.TrackingID,
		Reason:      reason,
	}

	if err := s.notifier.NotifyRequester(context.WithoutCancel(ctx), notice); err != nil {
		s.metrics.IncrementNotificationFailure(string(outcome))
		log.Warn().Err(err).
			Str("record_id", rec.ID.String()).
			Str("requester_id", request.CreatedBy.String()).
			Str("outcome", string(outcome)).
			Msg("correction: notify requester failed")
	}
}

// pendingRequest returns the request action behind the active correction
// task, or nil when none is in flight.
func pendingRequest(rec *domain.Record, current *domain.Task) *domain.CorrectionAction {
	if !current.IsActiveCorrectionRequest() {
		return nil
	}
	req, _ := rec.LastAction(domain.ActionRequestCorrection).(*domain.CorrectionAction)
	return req
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrStaleRecord), errors.Is(err, domain.ErrDuplicateAction):
		return "conflict"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownPractitioner):
		return "invalid"
	default:
		return "error"
	}
}
