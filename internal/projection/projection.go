// Package projection derives the observable state of a record from its action
// log. It performs no I/O.
package projection

import (
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/domain"
)

// State is what read APIs and the search index see of a record.
type State struct {
	ID                 uuid.UUID        `json:"id"`
	Type               domain.EventType `json:"type"`
	Status             domain.RegStatus `json:"status"`
	AssignedTo         *uuid.UUID       `json:"assignedTo,omitempty"`
	Data               map[string]any   `json:"data"`
	TrackingID         string           `json:"trackingId,omitempty"`
	RegistrationNumber string           `json:"registrationNumber,omitempty"`
	PendingCorrection  *uuid.UUID       `json:"pendingCorrection,omitempty"`
	CreatedBy          uuid.UUID        `json:"createdBy"`
	CreatedAtLocation  string           `json:"createdAtLocation,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
	ActionCount        int              `json:"actionCount"`
}

// Project folds the record's actions in order. Drafts never reach the shared
// data; correction requests hold proposed values that only apply on approval.
func Project(r *domain.Record) *State {
	s := &State{
		ID:          r.ID,
		Type:        r.Type,
		Data:        make(map[string]any),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		ActionCount: len(r.Actions),
	}

	var beforeCorrection domain.RegStatus
	for _, a := range r.Actions {
		b := a.Base()

		switch v := a.(type) {
		case *domain.CreateAction:
			s.CreatedBy = b.CreatedBy
			s.CreatedAtLocation = v.CreatedAtLocation
		case *domain.AssignAction:
			assignee := v.AssignedTo
			s.AssignedTo = &assignee
		case *domain.UnassignAction:
			s.AssignedTo = nil
		case *domain.RegisterAction:
			s.TrackingID = v.Identifiers.TrackingID
			s.RegistrationNumber = v.Identifiers.RegistrationNumber
		case *domain.CorrectionAction:
			s.applyCorrection(v, &beforeCorrection)
			continue
		}

		if status, ok := b.Type.ResultingStatus(); ok {
			s.Status = status
		}
		if b.Type != domain.ActionDraft {
			merge(s.Data, b.Data)
		}
	}

	return s
}

func (s *State) applyCorrection(a *domain.CorrectionAction, beforeCorrection *domain.RegStatus) {
	switch a.Type {
	case domain.ActionRequestCorrection:
		if !s.Status.IsCorrection() {
			*beforeCorrection = s.Status
		}
		s.Status = domain.StatusCorrectionRequested
		id := a.ID
		s.PendingCorrection = &id
	case domain.ActionRejectCorrection:
		if *beforeCorrection != "" {
			s.Status = *beforeCorrection
		}
		s.PendingCorrection = nil
		s.AssignedTo = nil
	case domain.ActionApproveCorrection, domain.ActionCorrect:
		merge(s.Data, a.Data)
		s.Status = domain.StatusRegistered
		s.PendingCorrection = nil
	}
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}
