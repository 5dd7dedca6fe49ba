package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

type ActionType string

const (
	ActionCreate            ActionType = "CREATE"
	ActionNotify            ActionType = "NOTIFY"
	ActionDeclare           ActionType = "DECLARE"
	ActionValidate          ActionType = "VALIDATE"
	ActionRegister          ActionType = "REGISTER"
	ActionPrintCertificate  ActionType = "PRINT_CERTIFICATE"
	ActionIssue             ActionType = "ISSUE"
	ActionArchive           ActionType = "ARCHIVE"
	ActionAssign            ActionType = "ASSIGN"
	ActionUnassign          ActionType = "UNASSIGN"
	ActionDraft             ActionType = "DRAFT"
	ActionCustom            ActionType = "CUSTOM"
	ActionRequestCorrection ActionType = "REQUEST_CORRECTION"
	ActionRejectCorrection  ActionType = "REJECT_CORRECTION"
	ActionApproveCorrection ActionType = "APPROVE_CORRECTION"
	ActionCorrect           ActionType = "CORRECT"
)

// IsCorrection reports whether the action belongs to the correction workflow.
// These kinds are appended only by the correction state machine.
func (t ActionType) IsCorrection() bool {
	switch t {
	case ActionRequestCorrection, ActionRejectCorrection, ActionApproveCorrection, ActionCorrect:
		return true
	default:
		return false
	}
}

// ResultingStatus returns the business status an action moves the record to,
// or false when the action leaves the status untouched.
func (t ActionType) ResultingStatus() (RegStatus, bool) {
	switch t {
	case ActionCreate:
		return StatusCreated, true
	case ActionNotify:
		return StatusNotified, true
	case ActionDeclare:
		return StatusDeclared, true
	case ActionValidate:
		return StatusValidated, true
	case ActionRegister:
		return StatusRegistered, true
	case ActionPrintCertificate:
		return StatusCertified, true
	case ActionIssue:
		return StatusIssued, true
	case ActionArchive:
		return StatusArchived, true
	case ActionRequestCorrection:
		return StatusCorrectionRequested, true
	case ActionApproveCorrection, ActionCorrect:
		return StatusRegistered, true
	default:
		return "", false
	}
}

// ActionBase holds the fields every action variant carries.
type ActionBase struct {
	ID            uuid.UUID      `json:"id"`
	Type          ActionType     `json:"type"`
	TransactionID string         `json:"transactionId"`
	CreatedAt     time.Time      `json:"createdAt"`
	CreatedBy     uuid.UUID      `json:"createdBy"`
	Data          map[string]any `json:"data,omitempty"`
}

func (b *ActionBase) Base() *ActionBase { return b }

// Action is one immutable entry of a record's history. The concrete variant is
// selected by ActionBase.Type.
type Action interface {
	Base() *ActionBase
}

type CreateAction struct {
	ActionBase
	CreatedAtLocation string `json:"createdAtLocation"`
}

type NotifyAction struct {
	ActionBase
	CreatedAtLocation string `json:"createdAtLocation,omitempty"`
}

type DeclareAction struct{ ActionBase }

type ValidateAction struct{ ActionBase }

type RegistrationIdentifiers struct {
	TrackingID         string `json:"trackingId"`
	RegistrationNumber string `json:"registrationNumber"`
}

type RegisterAction struct {
	ActionBase
	Identifiers RegistrationIdentifiers `json:"identifiers"`
}

type PrintCertificateAction struct{ ActionBase }

type IssueAction struct{ ActionBase }

type ArchiveAction struct{ ActionBase }

type AssignAction struct {
	ActionBase
	AssignedTo uuid.UUID `json:"assignedTo"`
}

type UnassignAction struct{ ActionBase }

type DraftAction struct{ ActionBase }

type CustomAction struct{ ActionBase }

// CorrectionDetails travels with every correction-workflow action. Data on the
// action carries the corrected field values.
type CorrectionDetails struct {
	RequestID   *uuid.UUID `json:"requestId,omitempty"`
	Requester   string     `json:"requester,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Note        string     `json:"note,omitempty"`
	EncounterID *uuid.UUID `json:"encounterId,omitempty"`
}

type CorrectionAction struct {
	ActionBase
	Correction CorrectionDetails `json:"correction"`
}

// NewAction returns an empty variant for the given discriminator.
func NewAction(t ActionType) (Action, error) {
	var a Action
	switch t {
	case ActionCreate:
		a = &CreateAction{}
	case ActionNotify:
		a = &NotifyAction{}
	case ActionDeclare:
		a = &DeclareAction{}
	case ActionValidate:
		a = &ValidateAction{}
	case ActionRegister:
		a = &RegisterAction{}
	case ActionPrintCertificate:
		a = &PrintCertificateAction{}
	case ActionIssue:
		a = &IssueAction{}
	case ActionArchive:
		a = &ArchiveAction{}
	case ActionAssign:
		a = &AssignAction{}
	case ActionUnassign:
		a = &UnassignAction{}
	case ActionDraft:
		a = &DraftAction{}
	case ActionCustom:
		a = &CustomAction{}
	case ActionRequestCorrection, ActionRejectCorrection, ActionApproveCorrection, ActionCorrect:
		a = &CorrectionAction{}
	default:
		return nil, fmt.Errorf("unknown action type %q: %w", t, ErrValidation)
	}
	a.Base().Type = t
	return a, nil
}

// CheckAction checks the invariants shared by all variants plus the
// variant-specific required fields.
func CheckAction(a Action) error {
	if a == nil {
		return fmt.Errorf("nil action: %w", ErrValidation)
	}
	b := a.Base()
	want, err := NewAction(b.Type)
	if err != nil {
		return err
	}
	if reflect.TypeOf(want) != reflect.TypeOf(a) {
		return fmt.Errorf("action type %q does not match variant %T: %w", b.Type, a, ErrValidation)
	}
	if b.TransactionID == "" {
		return fmt.Errorf("action %s: transactionId is required: %w", b.Type, ErrValidation)
	}
	if b.CreatedBy == uuid.Nil {
		return fmt.Errorf("action %s: createdBy is required: %w", b.Type, ErrValidation)
	}

	switch v := a.(type) {
	case *AssignAction:
		if v.AssignedTo == uuid.Nil {
			return fmt.Errorf("action ASSIGN: assignedTo is required: %w", ErrValidation)
		}
	case *CorrectionAction:
		if (b.Type == ActionRejectCorrection || b.Type == ActionApproveCorrection) && v.Correction.RequestID == nil {
			return fmt.Errorf("action %s: requestId is required: %w", b.Type, ErrValidation)
		}
	}
	return nil
}

// ActionList decodes each element into its concrete variant.
type ActionList []Action

func (l *ActionList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("domain.ActionList: %w", err)
	}

	out := make(ActionList, 0, len(raws))
	for _, raw := range raws {
		a, err := DecodeAction(raw)
		if err != nil {
			return err
		}
		out = append(out, a)
	}
	*l = out
	return nil
}

// DecodeAction decodes a single JSON action, rejecting unknown discriminators.
func DecodeAction(raw []byte) (Action, error) {
	var head struct {
		Type ActionType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("domain.DecodeAction: %w", err)
	}
	a, err := NewAction(head.Type)
	if err != nil {
		return nil, fmt.Errorf("domain.DecodeAction: %w", err)
	}
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fmt.Errorf("domain.DecodeAction: %w", err)
	}
	return a, nil
}
