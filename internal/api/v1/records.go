package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/domain"
	"github.com/gosuda/crvs/internal/events"
	"github.com/gosuda/crvs/internal/projection"
)

type CreateRecordInput struct {
	Body struct {
		TransactionID     string           `json:"transactionId" minLength:"1" doc:"Client idempotency key"`
		Type              domain.EventType `json:"type" enum:"birth,death,marriage" doc:"Declaration kind"`
		Fields            map[string]any   `json:"fields,omitempty" doc:"Initial field values"`
		CreatedAtLocation string           `json:"createdAtLocation,omitempty" doc:"Office the declaration was started in"`
	}
}

type GetRecordInput struct {
	ID uuid.UUID `path:"id" doc:"Record ID"`
}

type PatchRecordInput struct {
	ID   uuid.UUID `path:"id" doc:"Record ID"`
	Body struct {
		TransactionID string           `json:"transactionId" minLength:"1" doc:"Client idempotency key"`
		Type          domain.EventType `json:"type" enum:"birth,death,marriage" doc:"New declaration kind"`
	}
}

type RecordStateOutput struct {
	Body *projection.State
}

type RecordTasksOutput struct {
	Body []*domain.Task
}

func RegisterRecordRoutes(api huma.API, records RecordService, history HistoryService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-record",
		Method:      http.MethodPost,
		Path:        "/records",
		Summary:     "Create a record, or return the one already created with this transaction id",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *CreateRecordInput) (*RecordOutput, error) {
		actor, err := actorFor(ctx, domain.CapRecordCreate)
		if err != nil {
			return nil, err
		}

		rec, err := records.Create(ctx, actor, events.CreateInput{
			TransactionID:     input.Body.TransactionID,
			Type:              input.Body.Type,
			Fields:            input.Body.Fields,
			CreatedAtLocation: input.Body.CreatedAtLocation,
		})
		return recordResult("create record", rec, err)
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-record",
		Method:      http.MethodGet,
		Path:        "/records/{id}",
		Summary:     "Get a record with its full action history",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *GetRecordInput) (*RecordOutput, error) {
		if _, err := actorFor(ctx, ""); err != nil {
			return nil, err
		}

		rec, err := records.Get(ctx, input.ID)
		return recordResult("get record", rec, err)
	})

	huma.Register(api, huma.Operation{
		OperationID: "patch-record",
		Method:      http.MethodPatch,
		Path:        "/records/{id}",
		Summary:     "Change the declaration kind of a record",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *PatchRecordInput) (*RecordOutput, error) {
		if _, err := actorFor(ctx, domain.CapRecordDeclare); err != nil {
			return nil, err
		}

		rec, err := records.Patch(ctx, input.ID, events.PatchInput{
			TransactionID: input.Body.TransactionID,
			Type:          input.Body.Type,
		})
		return recordResult("patch record", rec, err)
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-record-state",
		Method:      http.MethodGet,
		Path:        "/records/{id}/state",
		Summary:     "Get the state projected from a record's actions",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *GetRecordInput) (*RecordStateOutput, error) {
		if _, err := actorFor(ctx, ""); err != nil {
			return nil, err
		}

		rec, err := records.Get(ctx, input.ID)
		if err != nil {
			return nil, toHTTPError("get record state", "record", err)
		}

		return &RecordStateOutput{Body: projection.Project(rec)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-record-tasks",
		Method:      http.MethodGet,
		Path:        "/records/{id}/tasks",
		Summary:     "List every task version of a record, newest first",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *GetRecordInput) (*RecordTasksOutput, error) {
		if _, err := actorFor(ctx, ""); err != nil {
			return nil, err
		}

		if _, err := records.Get(ctx, input.ID); err != nil {
			return nil, toHTTPError("list record tasks", "record", err)
		}

		tasks, err := history.History(ctx, input.ID)
		if err != nil {
			return nil, toHTTPError("list record tasks", "record", err)
		}

		return &RecordTasksOutput{Body: tasks}, nil
	})
}
