// Package correction implements the state machine that amends finalized
// records: request, reject, approve and direct correction.
package correction

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/domain"
	"github.com/gosuda/crvs/internal/history"
)

type Attachment struct {
	Type string `json:"type" doc:"Kind of legal proof, e.g. court order" minLength:"1"`
	URI  string `json:"uri" doc:"Location of the stored document" minLength:"1"`
}

type Payment struct {
	Amount  int64     `json:"amount" doc:"Fee in minor currency units" minimum:"0"`
	Outcome string    `json:"outcome" doc:"Reconciliation outcome" minLength:"1"`
	PaidAt  time.Time `json:"paidAt,omitempty" doc:"When the fee was paid, defaults to now"`
}

// Input carries a correction request or a direct correction.
type Input struct {
	TransactionID string
	Requester     string
	Reason        string
	Note          string
	Values        map[string]any
	Attachments   []Attachment
	Payment       *Payment
}

func (in Input) validate(requireValues bool) error {
	if in.TransactionID == "" {
		return fmt.Errorf("transactionId is required: %w", domain.ErrValidation)
	}
	if in.Reason == "" {
		return fmt.Errorf("reason is required: %w", domain.ErrValidation)
	}
	if requireValues && len(in.Values) == 0 {
		return fmt.Errorf("at least one corrected value is required: %w", domain.ErrValidation)
	}
	for i, a := range in.Attachments {
		if a.Type == "" || a.URI == "" {
			return fmt.Errorf("attachment %d needs type and uri: %w", i, domain.ErrValidation)
		}
	}
	if in.Payment != nil {
		if in.Payment.Amount < 0 {
			return fmt.Errorf("payment amount must not be negative: %w", domain.ErrValidation)
		}
		if in.Payment.Outcome == "" {
			return fmt.Errorf("payment outcome is required: %w", domain.ErrValidation)
		}
	}
	return nil
}

type RejectInput struct {
	TransactionID string
	Reason        string
}

type ApproveInput struct {
	TransactionID string
	// Values overrides the values proposed by the pending request. Empty
	// means apply the request as submitted.
	Values map[string]any
}

// ToCorrectionRequested moves a finalized record into CORRECTION_REQUESTED.
// The supporting encounter, payment and documents are created with the
// request and referenced from the new task.
func ToCorrectionRequested(rec *domain.Record, current *domain.Task, actorID uuid.UUID, in Input, now time.Time) (*domain.Commit, error) {
	if current.IsActiveCorrectionRequest() {
		return nil, fmt.Errorf("correction.ToCorrectionRequested: record %s already has a pending request: %w", rec.ID, domain.ErrConflict)
	}
	if err := requireFinalized(rec, current); err != nil {
		return nil, fmt.Errorf("correction.ToCorrectionRequested: %w", err)
	}

	commit := &domain.Commit{At: now}
	encounter := materialize(commit, rec.ID, in, now)

	task := current.Next(now)
	task.Status = domain.StatusCorrectionRequested
	task.State = domain.TaskStateRequested
	task.Reason = in.Reason
	task.EncounterID = &encounter.ID
	task.Extensions = task.Extensions.Without(domain.ExtPaymentReference)
	task.Extensions.SetRequester(in.Requester)
	task.Extensions.SetCorrectionReason(in.Reason)
	if encounter.PaymentID != nil {
		task.Extensions.SetPaymentReference(*encounter.PaymentID)
	}

	commit.Action = correctionAction(domain.ActionRequestCorrection, in.TransactionID, actorID, now, in.Values, domain.CorrectionDetails{
		Requester:   in.Requester,
		Reason:      in.Reason,
		Note:        in.Note,
		EncounterID: &encounter.ID,
	})
	commit.Tasks = []*domain.Task{task}
	return commit, nil
}

// ToCorrectionRejected closes the pending request as rejected and restores
// the newest task in hist whose status is not correction related. The
// rejected marker is written first so the restored task becomes current.
func ToCorrectionRejected(rec *domain.Record, current *domain.Task, hist []*domain.Task, request *domain.CorrectionAction, actorID uuid.UUID, in RejectInput, now time.Time) (*domain.Commit, error) {
	if !current.IsActiveCorrectionRequest() || request == nil {
		return nil, fmt.Errorf("correction.ToCorrectionRejected: record %s has no pending request: %w", rec.ID, domain.ErrConflict)
	}

	prior, err := history.PriorFinalizedTask(hist)
	if err != nil {
		return nil, fmt.Errorf("correction.ToCorrectionRejected: record %s: %w", rec.ID, err)
	}

	rejected := current.Next(now)
	rejected.State = domain.TaskStateRejected
	rejected.Reason = in.Reason
	rejected.Extensions = rejected.Extensions.Without(domain.ExtAssignment)

	restored := prior.Next(now)
	restored.State = domain.TaskStateReady
	restored.Reason = ""
	restored.Extensions = restored.Extensions.Without(
		domain.ExtAssignment,
		domain.ExtRequester,
		domain.ExtCorrectionReason,
	)

	requestID := request.ID
	return &domain.Commit{
		Action: correctionAction(domain.ActionRejectCorrection, in.TransactionID, actorID, now, nil, domain.CorrectionDetails{
			RequestID:   &requestID,
			Reason:      in.Reason,
			EncounterID: current.EncounterID,
		}),
		Tasks: []*domain.Task{rejected, restored},
		At:    now,
	}, nil
}

// ToCorrectionApproved accepts the pending request. Two tasks are written:
// the accepted marker, then the corrected task, which becomes current.
func ToCorrectionApproved(rec *domain.Record, current *domain.Task, request *domain.CorrectionAction, actorID uuid.UUID, in ApproveInput, now time.Time) (*domain.Commit, error) {
	if !current.IsActiveCorrectionRequest() || request == nil {
		return nil, fmt.Errorf("correction.ToCorrectionApproved: record %s has no pending request: %w", rec.ID, domain.ErrConflict)
	}

	values := in.Values
	if len(values) == 0 {
		values = request.Data
	}

	marker := current.Next(now)
	marker.State = domain.TaskStateAccepted

	corrected := correctedTask(current, now)
	corrected.EncounterID = current.EncounterID

	requestID := request.ID
	return &domain.Commit{
		Action: correctionAction(domain.ActionApproveCorrection, in.TransactionID, actorID, now, values, domain.CorrectionDetails{
			RequestID:   &requestID,
			Requester:   request.Correction.Requester,
			Reason:      request.Correction.Reason,
			EncounterID: current.EncounterID,
		}),
		Tasks: []*domain.Task{marker, corrected},
		At:    now,
	}, nil
}

// ToCorrected applies a correction directly to a finalized record that has
// no request in flight.
func ToCorrected(rec *domain.Record, current *domain.Task, actorID uuid.UUID, in Input, now time.Time) (*domain.Commit, error) {
	if current.IsActiveCorrectionRequest() {
		return nil, fmt.Errorf("correction.ToCorrected: record %s has a pending request: %w", rec.ID, domain.ErrConflict)
	}
	if err := requireFinalized(rec, current); err != nil {
		return nil, fmt.Errorf("correction.ToCorrected: %w", err)
	}

	commit := &domain.Commit{At: now}
	encounter := materialize(commit, rec.ID, in, now)

	task := correctedTask(current, now)
	task.EncounterID = &encounter.ID
	task.Extensions = task.Extensions.Without(domain.ExtPaymentReference)
	if encounter.PaymentID != nil {
		task.Extensions.SetPaymentReference(*encounter.PaymentID)
	}

	commit.Action = correctionAction(domain.ActionCorrect, in.TransactionID, actorID, now, in.Values, domain.CorrectionDetails{
		Requester:   in.Requester,
		Reason:      in.Reason,
		Note:        in.Note,
		EncounterID: &encounter.ID,
	})
	commit.Tasks = []*domain.Task{task}
	return commit, nil
}

func requireFinalized(rec *domain.Record, current *domain.Task) error {
	if current == nil {
		return fmt.Errorf("record %s has no task: %w", rec.ID, domain.ErrConflict)
	}
	if !current.Status.Finalized() {
		return fmt.Errorf("record %s is %s, not registered, certified or issued: %w", rec.ID, current.Status, domain.ErrConflict)
	}
	return nil
}

func correctedTask(current *domain.Task, now time.Time) *domain.Task {
	t := current.Next(now)
	t.Status = domain.StatusRegistered
	t.State = domain.TaskStateReady
	t.Reason = ""
	t.Extensions = t.Extensions.Without(domain.ExtRequester, domain.ExtCorrectionReason, domain.ExtAssignment)
	return t
}

// materialize attaches the encounter and its payment and documents to the
// commit.
func materialize(c *domain.Commit, recordID uuid.UUID, in Input, now time.Time) *domain.Encounter {
	enc := &domain.Encounter{
		ID:        uuid.New(),
		RecordID:  recordID,
		CreatedAt: now,
	}

	if in.Payment != nil {
		p := &domain.PaymentReconciliation{
			ID:          uuid.New(),
			EncounterID: enc.ID,
			Amount:      in.Payment.Amount,
			Outcome:     in.Payment.Outcome,
			PaidAt:      in.Payment.PaidAt,
		}
		if p.PaidAt.IsZero() {
			p.PaidAt = now
		}
		enc.PaymentID = &p.ID
		c.Payment = p
	}

	for _, a := range in.Attachments {
		doc := &domain.DocumentReference{
			ID:          uuid.New(),
			EncounterID: enc.ID,
			Type:        a.Type,
			URI:         a.URI,
			CreatedAt:   now,
		}
		enc.DocumentIDs = append(enc.DocumentIDs, doc.ID)
		c.Documents = append(c.Documents, doc)
	}

	c.Encounter = enc
	return enc
}

func correctionAction(t domain.ActionType, txID string, actorID uuid.UUID, now time.Time, values map[string]any, details domain.CorrectionDetails) *domain.CorrectionAction {
	return &domain.CorrectionAction{
		ActionBase: domain.ActionBase{
			ID:            uuid.New(),
			Type:          t,
			TransactionID: txID,
			CreatedAt:     now,
			CreatedBy:     actorID,
			Data:          values,
		},
		Correction: details,
	}
}
