package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/domain"
)

type AddActionInput struct {
	ID   uuid.UUID `path:"id" doc:"Record ID"`
	Body struct {
		Type              domain.ActionType `json:"type" doc:"Action kind, e.g. VALIDATE or REGISTER"`
		TransactionID     string            `json:"transactionId" minLength:"1" doc:"Client idempotency key"`
		Data              map[string]any    `json:"data,omitempty" doc:"Field values carried by the action"`
		AssignedTo        *uuid.UUID        `json:"assignedTo,omitempty" doc:"Practitioner to assign, ASSIGN only"`
		CreatedAtLocation string            `json:"createdAtLocation,omitempty" doc:"Submitting office, NOTIFY only"`
	}
}

type DeclareInput struct {
	ID   uuid.UUID `path:"id" doc:"Record ID"`
	Body struct {
		TransactionID string         `json:"transactionId" minLength:"1" doc:"Client idempotency key"`
		Data          map[string]any `json:"data,omitempty" doc:"Declared field values"`
	}
}

type NotifyInput struct {
	ID   uuid.UUID `path:"id" doc:"Record ID"`
	Body struct {
		TransactionID     string         `json:"transactionId" minLength:"1" doc:"Client idempotency key"`
		Data              map[string]any `json:"data,omitempty" doc:"Field values known so far"`
		CreatedAtLocation string         `json:"createdAtLocation,omitempty" doc:"Submitting office"`
	}
}

func RegisterActionRoutes(api huma.API, records RecordService) {
	huma.Register(api, huma.Operation{
		OperationID: "add-action",
		Method:      http.MethodPost,
		Path:        "/records/{id}/actions",
		Summary:     "Append an action to a record",
		Description: "Correction actions are only accepted on the correction routes.",
		Tags:        []string{"Actions"},
	}, func(ctx context.Context, input *AddActionInput) (*RecordOutput, error) {
		actor, err := actorFor(ctx, "")
		if err != nil {
			return nil, err
		}

		t := input.Body.Type
		if t == domain.ActionCreate || t.IsCorrection() {
			return nil, huma.Error400BadRequest("action " + string(t) + " cannot be appended through this route")
		}

		a, err := domain.NewAction(t)
		if err != nil {
			return nil, toHTTPError("add action", "record", err)
		}

		if c := domain.CapabilityFor(t); !actor.Can(c) {
			return nil, huma.Error403Forbidden("role " + string(actor.Role) + " may not " + string(c))
		}

		b := a.Base()
		b.TransactionID = input.Body.TransactionID
		b.Data = input.Body.Data
		switch v := a.(type) {
		case *domain.AssignAction:
			if input.Body.AssignedTo != nil {
				v.AssignedTo = *input.Body.AssignedTo
			}
		case *domain.NotifyAction:
			v.CreatedAtLocation = input.Body.CreatedAtLocation
		}

		rec, err := records.AddAction(ctx, actor, input.ID, a)
		return recordResult("add action", rec, err)
	})

	huma.Register(api, huma.Operation{
		OperationID: "declare",
		Method:      http.MethodPost,
		Path:        "/records/{id}/actions/declare",
		Summary:     "Declare a record",
		Tags:        []string{"Actions"},
	}, func(ctx context.Context, input *DeclareInput) (*RecordOutput, error) {
		actor, err := actorFor(ctx, domain.CapRecordDeclare)
		if err != nil {
			return nil, err
		}

		rec, err := records.Declare(ctx, actor, input.ID, input.Body.TransactionID, input.Body.Data)
		return recordResult("declare", rec, err)
	})

	huma.Register(api, huma.Operation{
		OperationID: "notify",
		Method:      http.MethodPost,
		Path:        "/records/{id}/actions/notify",
		Summary:     "Send in an incomplete declaration",
		Tags:        []string{"Actions"},
	}, func(ctx context.Context, input *NotifyInput) (*RecordOutput, error) {
		actor, err := actorFor(ctx, domain.CapRecordDeclare)
		if err != nil {
			return nil, err
		}

		rec, err := records.Notify(ctx, actor, input.ID, input.Body.TransactionID, input.Body.Data, input.Body.CreatedAtLocation)
		return recordResult("notify", rec, err)
	})
}
